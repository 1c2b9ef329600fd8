package tool

import "trip-agent/internal/cache"

// Options carries the provider credentials and shared cache for the builtin
// travel tools. Base URLs are overridable for tests.
type Options struct {
	SerpAPIKey     string
	SerpBaseURL    string
	OpenWeatherKey string
	WeatherBaseURL string
	Cache          *cache.Cache
}

// RegisterBuiltins wires the full travel tool set into the registry. Missing
// credentials do not fail registration; each tool degrades to its own
// error payload at call time.
func RegisterBuiltins(r *Registry, opts Options) error {
	serp := NewSerpClient(opts.SerpBaseURL, opts.SerpAPIKey, opts.Cache)
	builtins := []Tool{
		&flightsTool{serp: serp},
		&hotelsTool{serp: serp},
		newWeatherTool(opts.WeatherBaseURL, opts.OpenWeatherKey, opts.Cache),
		&attractionsTool{serp: serp},
		&youtubeTool{serp: serp},
		&googleSearchTool{serp: serp},
		calculatorTool{},
	}
	for _, t := range builtins {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
