package tool

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCalculator(t *testing.T, args string) map[string]any {
	t.Helper()
	res, err := calculatorTool{}.Run(context.Background(), json.RawMessage(args))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Output), &out))
	return out
}

func TestCalculatorMul(t *testing.T) {
	out := runCalculator(t, `{"first_num":4,"second_num":5,"operation":"mul"}`)
	require.Equal(t, float64(20), out["result"])
	require.Equal(t, float64(4), out["first_num"])
	require.Equal(t, float64(5), out["second_num"])
	require.Equal(t, "mul", out["operation"])
}

func TestCalculatorDivisionByZero(t *testing.T) {
	out := runCalculator(t, `{"first_num":10,"second_num":0,"operation":"div"}`)
	require.Equal(t, "Division by zero is not allowed", out["error"])
}

func TestCalculatorUnsupportedOperation(t *testing.T) {
	out := runCalculator(t, `{"first_num":1,"second_num":2,"operation":"pow"}`)
	require.Equal(t, "Unsupported operation 'pow'", out["error"])
}

func TestCalculatorDiv(t *testing.T) {
	out := runCalculator(t, `{"first_num":9,"second_num":3,"operation":"div"}`)
	require.Equal(t, float64(3), out["result"])
}
