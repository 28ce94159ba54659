// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/rowcheck/pkg/api"   //nolint:depguard
	"github.com/ssargent/rowcheck/pkg/repro" //nolint:depguard
)

// Container holds all the dependencies for the application
type Container struct {
	runnerFactory repro.RunnerFactory
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		runnerFactory: repro.NewRunnerFactory(),
		serverFactory: api.NewServerFactory(),
	}
}

// GetRunnerFactory returns the harness runner factory
func (c *Container) GetRunnerFactory() repro.RunnerFactory {
	return c.runnerFactory
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetRunnerFactory allows overriding the runner factory (for testing)
func (c *Container) SetRunnerFactory(factory repro.RunnerFactory) {
	c.runnerFactory = factory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}
