package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// calculatorTool is pure arithmetic, the only builtin that never touches the
// network or the cache.
type calculatorTool struct{}

func (calculatorTool) Name() string { return "calculator" }

func (calculatorTool) Description() string {
	return "Perform a basic arithmetic operation on two numbers. Supported operations: add, sub, mul, div."
}

func (calculatorTool) Schema() []byte {
	return []byte(`{
		"type": "object",
		"properties": {
			"first_num": {"type": "number"},
			"second_num": {"type": "number"},
			"operation": {"type": "string", "enum": ["add", "sub", "mul", "div"]}
		},
		"required": ["first_num", "second_num", "operation"]
	}`)
}

func (calculatorTool) Run(_ context.Context, args json.RawMessage) (Result, error) {
	var in struct {
		FirstNum  float64 `json:"first_num"`
		SecondNum float64 `json:"second_num"`
		Operation string  `json:"operation"`
	}
	if err := parseJSONArgs(args, &in); err != nil {
		return errorResult("invalid arguments: " + err.Error()), nil
	}

	var result float64
	switch in.Operation {
	case "add":
		result = in.FirstNum + in.SecondNum
	case "sub":
		result = in.FirstNum - in.SecondNum
	case "mul":
		result = in.FirstNum * in.SecondNum
	case "div":
		if in.SecondNum == 0 {
			return errorResult("Division by zero is not allowed"), nil
		}
		result = in.FirstNum / in.SecondNum
	default:
		return errorResult(fmt.Sprintf("Unsupported operation '%s'", in.Operation)), nil
	}

	return Result{Output: toJSON(map[string]any{
		"first_num":  in.FirstNum,
		"second_num": in.SecondNum,
		"operation":  in.Operation,
		"result":     result,
	})}, nil
}
