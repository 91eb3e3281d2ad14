// Package server runs long-lived components (the HTTP server, background
// workers) under one start/stop lifecycle.
package server

import "context"

// Lifecycle defines the lifecycle interface for servers.
type Lifecycle interface {
	// Start starts the component. It must not block once serving has begun.
	Start(ctx context.Context) error
	// Stop stops the component gracefully.
	Stop(ctx context.Context) error
}

// Runnable represents a component that can be started and stopped.
type Runnable interface {
	Lifecycle
	// Name returns the component name for logs.
	Name() string
}

// Hook adapts plain functions to Runnable.
type Hook struct {
	HookName string
	OnStart  func(ctx context.Context) error
	OnStop   func(ctx context.Context) error
}

func (h Hook) Name() string { return h.HookName }

func (h Hook) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart(ctx)
}

func (h Hook) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}
	return h.OnStop(ctx)
}
