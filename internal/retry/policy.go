package retry

import (
	"time"

	"github.com/vvka-141/fscat/pkg/fscat"
)

// Policy is the serializable form of a backoff configuration.
// Zero fields fall back to the fscat defaults.
type Policy struct {
	MaxAttempts  int           `yaml:"max_attempts,omitempty"`
	InitialDelay time.Duration `yaml:"initial_delay,omitempty"`
	MaxDelay     time.Duration `yaml:"max_delay,omitempty"`
}

// DefaultPolicy returns the policy used when a backend configures none.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  fscat.DefaultRetryMaxAttempts,
		InitialDelay: fscat.DefaultRetryInitialDelay,
		MaxDelay:     fscat.DefaultRetryMaxDelay,
	}
}

// Backoff builds the exponential backoff strategy described by p.
func (p Policy) Backoff() *ExponentialBackoff {
	d := DefaultPolicy()
	if p.MaxAttempts == 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = d.InitialDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = d.MaxDelay
	}
	return NewExponentialBackoff(p.MaxAttempts,
		WithInitialDelay(p.InitialDelay),
		WithMaxDelay(p.MaxDelay),
	)
}

// Executor builds an executor applying p with the given classifier.
func (p Policy) Executor(classifier fscat.ErrorClassifier) *Executor {
	return NewExecutor(classifier, p.Backoff())
}
