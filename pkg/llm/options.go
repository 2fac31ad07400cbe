// Package llm provides the provider port and functional options for
// generation parameters.
package llm

// GenerateOptions holds parameters for a single generation call.
// Defaults come from the model definition in config.yaml; options passed
// to Generate override them.
type GenerateOptions struct {
	// Model is the model identifier (e.g., "gpt-4o")
	Model string

	// Temperature controls randomness (0.0 = deterministic)
	Temperature float64

	// MaxTokens bounds the completion length
	MaxTokens int

	// OnUsage, when set, receives token usage reported by the API
	OnUsage func(Usage)
}

// GenerateOption is a functional option for configuring GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithModel sets the model for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		if model != "" {
			o.Model = model
		}
	}
}

// WithTemperature sets the temperature for generation.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithMaxTokens sets the output token budget. Non-positive values are ignored.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		if tokens > 0 {
			o.MaxTokens = tokens
		}
	}
}

// WithUsageCallback registers a callback for token usage.
func WithUsageCallback(fn func(Usage)) GenerateOption {
	return func(o *GenerateOptions) {
		o.OnUsage = fn
	}
}

// Apply folds opts over base and returns the result.
func Apply(base GenerateOptions, opts ...GenerateOption) GenerateOptions {
	for _, opt := range opts {
		if opt != nil {
			opt(&base)
		}
	}
	return base
}
