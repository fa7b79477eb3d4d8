package compaction

import "github.com/youssefsiam38/agentctx/types"

// RequestOption configures a single Manager call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	system         string
	tools          []types.ToolSpec
	preserveRecent int
	hasPreserve    bool
}

// WithSystem includes the system prompt in usage calculations.
func WithSystem(system string) RequestOption {
	return func(o *requestOptions) {
		o.system = system
	}
}

// WithTools includes tool specs in usage calculations.
func WithTools(tools ...types.ToolSpec) RequestOption {
	return func(o *requestOptions) {
		o.tools = append(o.tools, tools...)
	}
}

// WithPreserveRecent overrides the strategy's recent window for one call.
// Negative values are ignored.
func WithPreserveRecent(n int) RequestOption {
	return func(o *requestOptions) {
		if n < 0 {
			return
		}
		o.preserveRecent = n
		o.hasPreserve = true
	}
}

func resolveOptions(opts []RequestOption) requestOptions {
	var o requestOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
