package srs

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidParams is returned when a parameter set fails validation.
var ErrInvalidParams = errors.New("invalid scheduler parameters")

// WeightCount is the length of the FSRS-6 weight vector.
const WeightCount = 21

// DefaultWeights are the published FSRS-6 default weights.
var DefaultWeights = [WeightCount]float64{
	0.212, 1.2931, 2.3065, 8.2956, // w0..w3  initial stability per rating
	6.4133, 0.8334, 3.0194, 0.001, // w4..w7  difficulty
	1.8722, 0.1666, 0.796, 1.4835, // w8..w11 recall stability
	0.0614, 0.2629, 1.6483, 0.6014, // w12..w15 forget stability, hard penalty
	1.8729, 0.5425, 0.0912, 0.0658, // w16..w19 easy bonus, short-term
	0.1542, // w20 decay
}

var (
	weightLowerBounds = [WeightCount]float64{
		0.001, 0.001, 0.001, 0.001,
		1.0, 0.001, 0.001, 0.001,
		0.0, 0.0, 0.001, 0.001,
		0.001, 0.001, 0.0, 0.0,
		1.0, 0.0, 0.0, 0.0,
		0.1,
	}
	weightUpperBounds = [WeightCount]float64{
		100.0, 100.0, 100.0, 100.0,
		10.0, 4.0, 4.0, 0.75,
		4.5, 0.8, 3.5, 5.0,
		0.25, 0.9, 4.0, 1.0,
		6.0, 2.0, 2.0, 0.8,
		0.8,
	}
)

// Params is the immutable configuration of a Scheduler. Values are copied
// into the scheduler on construction, so one Params can safely back many
// schedulers and several parameter sets can coexist in one process.
type Params struct {
	// Weights is the FSRS weight vector.
	Weights [WeightCount]float64

	// DesiredRetention is the recall probability used to size intervals.
	DesiredRetention float64

	// MinimumIntervalDays and MaximumIntervalDays bound day-scale intervals,
	// jitter included.
	MinimumIntervalDays int
	MaximumIntervalDays int

	// LearningSteps and RelearningSteps are the short-term waits of the
	// Learning and Relearning phases.
	LearningSteps   []time.Duration
	RelearningSteps []time.Duration

	// EasyStepFactor scales the step wait when Easy is given during a
	// short-term phase.
	EasyStepFactor float64

	// EnableFuzz spreads day-scale intervals to avoid clustering.
	EnableFuzz bool
}

// ParamsConfig allows overriding the default parameters. Zero values keep
// the defaults. It is decoded from the application config and from YAML
// preset files.
type ParamsConfig struct {
	Weights             []float64 `yaml:"weights"               mapstructure:"weights"`
	DesiredRetention    float64   `yaml:"desired_retention"     mapstructure:"desired_retention"`
	MinimumIntervalDays int       `yaml:"minimum_interval_days" mapstructure:"minimum_interval_days"`
	MaximumIntervalDays int       `yaml:"maximum_interval_days" mapstructure:"maximum_interval_days"`
	LearningSteps       []string  `yaml:"learning_steps"        mapstructure:"learning_steps"`
	RelearningSteps     []string  `yaml:"relearning_steps"      mapstructure:"relearning_steps"`
	EasyStepFactor      float64   `yaml:"easy_step_factor"      mapstructure:"easy_step_factor"`
	EnableFuzz          *bool     `yaml:"enable_fuzz"           mapstructure:"enable_fuzz"`
}

// NewDefaultParams returns the default parameter set.
func NewDefaultParams() Params {
	return Params{
		Weights:             DefaultWeights,
		DesiredRetention:    0.9,
		MinimumIntervalDays: 1,
		MaximumIntervalDays: 365,
		LearningSteps:       []time.Duration{1 * time.Minute, 10 * time.Minute},
		RelearningSteps:     []time.Duration{10 * time.Minute},
		EasyStepFactor:      1.5,
		EnableFuzz:          true,
	}
}

// NewParams builds a validated parameter set from the defaults and the
// given overrides.
func NewParams(cfg ParamsConfig) (Params, error) {
	params := NewDefaultParams()

	if len(cfg.Weights) > 0 {
		if len(cfg.Weights) != WeightCount {
			return Params{}, fmt.Errorf(
				"%w: expected %d weights, got %d", ErrInvalidParams, WeightCount, len(cfg.Weights),
			)
		}
		copy(params.Weights[:], cfg.Weights)
	}
	if cfg.DesiredRetention != 0 {
		params.DesiredRetention = cfg.DesiredRetention
	}
	if cfg.MinimumIntervalDays != 0 {
		params.MinimumIntervalDays = cfg.MinimumIntervalDays
	}
	if cfg.MaximumIntervalDays != 0 {
		params.MaximumIntervalDays = cfg.MaximumIntervalDays
	}
	if len(cfg.LearningSteps) > 0 {
		steps, err := parseSteps(cfg.LearningSteps)
		if err != nil {
			return Params{}, fmt.Errorf("learning steps: %w", err)
		}
		params.LearningSteps = steps
	}
	if len(cfg.RelearningSteps) > 0 {
		steps, err := parseSteps(cfg.RelearningSteps)
		if err != nil {
			return Params{}, fmt.Errorf("relearning steps: %w", err)
		}
		params.RelearningSteps = steps
	}
	if cfg.EasyStepFactor != 0 {
		params.EasyStepFactor = cfg.EasyStepFactor
	}
	if cfg.EnableFuzz != nil {
		params.EnableFuzz = *cfg.EnableFuzz
	}

	if err := params.Validate(); err != nil {
		return Params{}, err
	}
	return params, nil
}

// LoadParamsFile reads a YAML parameter preset and builds a Params from it.
func LoadParamsFile(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("failed to read params file: %w", err)
	}

	var cfg ParamsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Params{}, fmt.Errorf("%w: failed to parse params file: %v", ErrInvalidParams, err)
	}

	return NewParams(cfg)
}

// Validate checks every parameter against its allowed range.
func (p Params) Validate() error {
	for i, w := range p.Weights {
		if w < weightLowerBounds[i] || w > weightUpperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %v outside [%v, %v]",
				ErrInvalidParams, i, w, weightLowerBounds[i], weightUpperBounds[i])
		}
	}
	if p.DesiredRetention <= 0 || p.DesiredRetention >= 1 {
		return fmt.Errorf("%w: desired retention must be in (0, 1), got %v",
			ErrInvalidParams, p.DesiredRetention)
	}
	if p.MinimumIntervalDays < 1 {
		return fmt.Errorf("%w: minimum interval must be at least 1 day", ErrInvalidParams)
	}
	if p.MaximumIntervalDays < p.MinimumIntervalDays {
		return fmt.Errorf("%w: maximum interval %d is below minimum %d",
			ErrInvalidParams, p.MaximumIntervalDays, p.MinimumIntervalDays)
	}
	if err := validateSteps("learning", p.LearningSteps); err != nil {
		return err
	}
	if err := validateSteps("relearning", p.RelearningSteps); err != nil {
		return err
	}
	if p.EasyStepFactor < 1 {
		return fmt.Errorf("%w: easy step factor must be at least 1, got %v",
			ErrInvalidParams, p.EasyStepFactor)
	}
	return nil
}

// clone returns a copy that shares no slices with p.
func (p Params) clone() Params {
	out := p
	out.LearningSteps = slices.Clone(p.LearningSteps)
	out.RelearningSteps = slices.Clone(p.RelearningSteps)
	return out
}

// Steps must stay below one day so short-term waits never exceed the
// minimum day-scale interval.
func validateSteps(name string, steps []time.Duration) error {
	if len(steps) == 0 {
		return fmt.Errorf("%w: %s steps cannot be empty", ErrInvalidParams, name)
	}
	for i, step := range steps {
		if step <= 0 || step >= 24*time.Hour {
			return fmt.Errorf("%w: %s step %d must be in (0, 24h), got %s",
				ErrInvalidParams, name, i, step)
		}
		if i > 0 && step < steps[i-1] {
			return fmt.Errorf("%w: %s steps must be non-decreasing", ErrInvalidParams, name)
		}
	}
	return nil
}

func parseSteps(raw []string) ([]time.Duration, error) {
	steps := make([]time.Duration, 0, len(raw))
	for _, s := range raw {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		steps = append(steps, d)
	}
	return steps, nil
}
