package compaction

import (
	"fmt"

	"github.com/youssefsiam38/agentctx/hooks"
)

// StrategyName identifies one of the built-in compaction strategies.
type StrategyName string

const (
	// StrategyAggressive summarizes early and keeps a short recent window.
	StrategyAggressive StrategyName = "aggressive"

	// StrategyBalanced is the default trade-off between context and headroom.
	StrategyBalanced StrategyName = "balanced"

	// StrategyConservative summarizes late and keeps a long recent window.
	StrategyConservative StrategyName = "conservative"

	// StrategyManual never triggers on its own; use Manager.ForceSummarize.
	StrategyManual StrategyName = "manual"
)

// SummarizationStyle selects the verbosity of generated summaries.
type SummarizationStyle string

const (
	// StyleAggressive asks for one or two sentences.
	StyleAggressive SummarizationStyle = "aggressive"

	// StyleBalanced asks for two to four sentences.
	StyleBalanced SummarizationStyle = "balanced"

	// StyleConservative asks for one detailed paragraph.
	StyleConservative SummarizationStyle = "conservative"
)

// StrategyConfig is an immutable bundle of compaction settings.
type StrategyConfig struct {
	Name StrategyName

	// Threshold is the fraction (0-1] of the context window at which
	// summarization is triggered.
	Threshold float64

	// PreserveRecent is the number of trailing messages that are never summarized.
	PreserveRecent int

	Style SummarizationStyle
	Label string
}

// AutoTriggers reports whether the strategy summarizes without an explicit request.
func (s StrategyConfig) AutoTriggers() bool {
	return s.Threshold < 1.0
}

var strategies = map[StrategyName]StrategyConfig{
	StrategyAggressive: {
		Name:           StrategyAggressive,
		Threshold:      0.50,
		PreserveRecent: 5,
		Style:          StyleAggressive,
		Label:          "Aggressive (summarize at 50%, keep last 5)",
	},
	StrategyBalanced: {
		Name:           StrategyBalanced,
		Threshold:      0.70,
		PreserveRecent: 10,
		Style:          StyleBalanced,
		Label:          "Balanced (summarize at 70%, keep last 10)",
	},
	StrategyConservative: {
		Name:           StrategyConservative,
		Threshold:      0.85,
		PreserveRecent: 20,
		Style:          StyleConservative,
		Label:          "Conservative (summarize at 85%, keep last 20)",
	},
	StrategyManual: {
		Name:           StrategyManual,
		Threshold:      1.0,
		PreserveRecent: 10,
		Style:          StyleBalanced,
		Label:          "Manual (summarize only on request)",
	},
}

// LookupStrategy returns the named strategy configuration.
func LookupStrategy(name string) (StrategyConfig, bool) {
	cfg, ok := strategies[StrategyName(name)]
	return cfg, ok
}

// Strategies returns every built-in strategy, ordered from most to least aggressive.
func Strategies() []StrategyConfig {
	return []StrategyConfig{
		strategies[StrategyAggressive],
		strategies[StrategyBalanced],
		strategies[StrategyConservative],
		strategies[StrategyManual],
	}
}

// Weights holds the importance-scoring policy. The defaults were tuned by hand
// and are meant to be overridden.
type Weights struct {
	Bookmarked float64
	Image      float64

	UserLong   float64 // longer than UserLongChars
	UserMedium float64 // longer than UserMediumChars
	UserShort  float64

	AssistantCode        float64
	AssistantError       float64
	AssistantAck         float64
	AssistantFiller      float64
	AssistantToolShort   float64
	AssistantToolLong    float64
	AssistantLong        float64
	AssistantDefault     float64
	SystemSummary        float64
	SystemDefault        float64
	Fallback             float64
	RecencyBoost         float64
	UserLongChars        int
	UserMediumChars      int
	AssistantFillerChars int
	AssistantToolChars   int
	AssistantLongChars   int
}

// DefaultWeights returns the stock scoring policy.
func DefaultWeights() Weights {
	return Weights{
		Bookmarked:           1.0,
		Image:                0.85,
		UserLong:             0.9,
		UserMedium:           0.85,
		UserShort:            0.75,
		AssistantCode:        0.8,
		AssistantError:       0.8,
		AssistantAck:         0.2,
		AssistantFiller:      0.1,
		AssistantToolShort:   0.4,
		AssistantToolLong:    0.7,
		AssistantLong:        0.6,
		AssistantDefault:     0.5,
		SystemSummary:        0.75,
		SystemDefault:        0.5,
		Fallback:             0.5,
		RecencyBoost:         0.3,
		UserLongChars:        200,
		UserMediumChars:      50,
		AssistantFillerChars: 20,
		AssistantToolChars:   100,
		AssistantLongChars:   100,
	}
}

// Default configuration values.
const (
	DefaultStrategy           = StrategyBalanced
	DefaultSummaryMaxTokens   = 512
	DefaultOutputReservation  = 300
	DefaultRedundancyLookback = 3

	// NoOutputReservation disables the output reservation. A zero
	// Config.OutputReservation means "use the default".
	NoOutputReservation = -1
)

// Config holds Manager configuration.
type Config struct {
	// Model is the target model; its context window is resolved through ModelLimits.
	Model string

	// Strategy is the initial strategy.
	// Default: StrategyBalanced
	Strategy StrategyName

	// Generator produces summaries. When nil, the deterministic fallback is used.
	Generator Generator

	// ModelLimits maps model names (or substrings) to context window sizes.
	// Default: DefaultModelLimits()
	ModelLimits ModelLimits

	// Weights overrides the importance-scoring policy.
	// Default: DefaultWeights()
	Weights *Weights

	// SummaryMaxTokens caps the collaborator's output.
	// Default: 512
	SummaryMaxTokens int

	// OutputReservation is added when budgeting an upcoming request.
	// Zero selects the default; use NoOutputReservation to reserve nothing.
	// Default: 300
	OutputReservation int

	// Logger receives warnings and round summaries.
	Logger Logger

	// Hooks observe summarization rounds. May be nil.
	Hooks *hooks.Registry
}

// DefaultConfig returns a Config with defaults for everything but Model and Generator.
func DefaultConfig() *Config {
	w := DefaultWeights()
	return &Config{
		Strategy:          DefaultStrategy,
		ModelLimits:       DefaultModelLimits(),
		Weights:           &w,
		SummaryMaxTokens:  DefaultSummaryMaxTokens,
		OutputReservation: DefaultOutputReservation,
		Logger:            noopLogger{},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Strategy == "" {
		c.Strategy = DefaultStrategy
	}
	if c.ModelLimits == nil {
		c.ModelLimits = DefaultModelLimits()
	}
	if c.Weights == nil {
		w := DefaultWeights()
		c.Weights = &w
	}
	if c.SummaryMaxTokens == 0 {
		c.SummaryMaxTokens = DefaultSummaryMaxTokens
	}
	if c.OutputReservation == 0 {
		c.OutputReservation = DefaultOutputReservation
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if _, ok := strategies[c.Strategy]; !ok {
		return fmt.Errorf("%w: %v %q", ErrInvalidConfig, ErrUnknownStrategy, c.Strategy)
	}

	if c.SummaryMaxTokens <= 0 {
		return fmt.Errorf("%w: summary_max_tokens must be positive, got %d", ErrInvalidConfig, c.SummaryMaxTokens)
	}

	if c.OutputReservation < NoOutputReservation {
		return fmt.Errorf("%w: output_reservation must be non-negative or NoOutputReservation, got %d", ErrInvalidConfig, c.OutputReservation)
	}

	for name, limit := range c.ModelLimits {
		if limit <= 0 {
			return fmt.Errorf("%w: context window for %q must be positive, got %d", ErrInvalidConfig, name, limit)
		}
	}

	if w := c.Weights; w != nil && w.RecencyBoost < 0 {
		return fmt.Errorf("%w: recency boost must be non-negative, got %f", ErrInvalidConfig, w.RecencyBoost)
	}

	return nil
}
