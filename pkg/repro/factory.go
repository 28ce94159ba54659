package repro

import "context"

// HarnessRunner runs the verification loop
type HarnessRunner interface {
	Run(ctx context.Context) (Report, error)
}

// RunnerFactory creates harness runners
type RunnerFactory interface {
	// CreateRunner creates a runner for cfg
	CreateRunner(cfg Config, opts ...Option) (HarnessRunner, error)
}

// DefaultRunnerFactory is the default implementation of RunnerFactory
type DefaultRunnerFactory struct{}

// NewRunnerFactory creates a new runner factory
func NewRunnerFactory() RunnerFactory {
	return &DefaultRunnerFactory{}
}

// CreateRunner creates a Runner
func (f *DefaultRunnerFactory) CreateRunner(cfg Config, opts ...Option) (HarnessRunner, error) {
	return NewRunner(cfg, opts...)
}
