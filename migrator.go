package glideshift

import (
	"fmt"

	"github.com/projectdiscovery/gologger"
	errorutil "github.com/projectdiscovery/utils/errors"
	sliceutil "github.com/projectdiscovery/utils/slice"
)

// Options configures a Migrator. A nil Config selects the built-in defaults.
type Options struct {
	Config *Config
}

// Migrator is the stateless entry point of the library: classify, detect,
// select a strategy, run it, and aggregate the outcome. Safe for concurrent
// use.
type Migrator struct {
	cfg *Config
}

func New(opts *Options) (*Migrator, error) {
	cfg := &Config{}
	if opts != nil && opts.Config != nil {
		*cfg = *opts.Config
	}
	cfg.fillDefaults()
	if len(cfg.AdvancedKeywords) == 0 || len(cfg.IntermediateKeywords) == 0 {
		return nil, errorutil.NewWithTag("glideshift", "classification keyword tables must not be empty")
	}
	return &Migrator{cfg: cfg}, nil
}

// Result is the full migration outcome for one source unit.
type Result struct {
	TransformedCode  string          `json:"transformedCode" yaml:"transformedCode"`
	DetectedPatterns []PatternTag    `json:"detectedPatterns" yaml:"detectedPatterns"`
	Complexity       ComplexityLevel `json:"complexity" yaml:"complexity"`
	Warnings         []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Notes            []string        `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Migrate rewrites one source unit. Validation failures surface as a
// ValidationError; strategy panics are contained and degrade to returning
// the original code with a warning.
func (m *Migrator) Migrate(src *Source) (*Result, error) {
	if err := src.validate(); err != nil {
		return nil, err
	}
	level := Classify(src.Code, m.cfg)
	tags := Detect(src.Code)
	strategy := selectStrategy(m.cfg, level, tags)
	gologger.Verbose().Msgf("complexity=%v patterns=%v strategy=%v", level, tags, strategy.Name())
	res := runStrategy(strategy, src)
	return &Result{
		TransformedCode:  res.Code,
		DetectedPatterns: tags,
		Complexity:       level,
		Warnings:         sliceutil.Dedupe(res.Warnings),
		Notes:            sliceutil.Dedupe(res.Notes),
	}, nil
}

// runStrategy contains strategy panics: the original code comes back
// unmodified with a warning instead of crashing the caller.
func runStrategy(strategy Strategy, src *Source) (res *StrategyResult) {
	defer func() {
		if r := recover(); r != nil {
			gologger.Warning().Msgf("%v strategy panicked: %v", strategy.Name(), r)
			res = &StrategyResult{
				Code: src.Code,
				Warnings: []string{fmt.Sprintf(
					"%v strategy failed unexpectedly (%v); original code returned unmodified",
					strategy.Name(), r)},
			}
		}
	}()
	return strategy.Apply(src)
}
