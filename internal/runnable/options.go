package runnable

import (
	"github.com/conveyor-ci/conveyor/internal/behavior"
	"github.com/conveyor-ci/conveyor/internal/path"
)

type StatusType string

const (
	StatusRunning StatusType = "running"
	StatusSuccess StatusType = "success"
	StatusFailure StatusType = "failure"
	StatusSkipped StatusType = "skipped"
)

type Status struct {
	Status StatusType
	Output string
}

type Config struct {
	Status *Status

	Paths *path.Path

	Behavior *behavior.Behavior

	// Environment carries the matrix job's environment set, layered
	// over the pipeline's env block.
	Environment map[string]string
}

type Option func(*Config)

func WithStatus(status StatusType) Option {
	return func(c *Config) {
		c.Status = &Status{
			Status: status,
		}
	}
}

func WithPaths(paths *path.Path) Option {
	return func(c *Config) {
		c.Paths = paths
	}
}

func WithBehavior(behavior *behavior.Behavior) Option {
	return func(c *Config) {
		c.Behavior = behavior
	}
}

func WithEnvironment(env map[string]string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

func NewDefaultConfig() *Config {
	return &Config{
		Status: &Status{Status: StatusRunning},
		Paths:  nil,
	}
}

func NewConfig(options ...Option) *Config {
	c := NewDefaultConfig()
	for _, option := range options {
		option(c)
	}
	return c
}
