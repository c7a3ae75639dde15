// Package clinicagent provides a high-level façade over the clinic store,
// function registry, dispatcher, session manager, and call logger. Most
// applications interact with this package by:
//  1. Creating a ClinicAgent via New() with a store (optionally overriding
//     the recorder, logger, or execution timeout)
//  2. Calling Dispatch for individual function invocations, or wiring a
//     model and agent.Receptionist on top for full conversations
//  3. Closing the instance on shutdown to flush the call log
//
// All defaults are safe for local development and testing; production
// deployments typically supply an NDJSON recorder and a structured logger.
package clinicagent

import (
	"context"
	"errors"
	"time"

	"github.com/GediminasPukys/clinic-voice-agent/calllog"
	"github.com/GediminasPukys/clinic-voice-agent/core"
	"github.com/GediminasPukys/clinic-voice-agent/dispatch"
	"github.com/GediminasPukys/clinic-voice-agent/logging"
	"github.com/GediminasPukys/clinic-voice-agent/session"
	"github.com/GediminasPukys/clinic-voice-agent/store"
	"github.com/GediminasPukys/clinic-voice-agent/tool"
)

// Options configure the ClinicAgent instance.
type Options struct {
	// Recorder receives one entry per invocation (defaults to NoOpRecorder).
	Recorder calllog.Recorder

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// DispatchTimeout bounds a single function execution.
	DispatchTimeout time.Duration

	// ExtraTools are registered after the standard clinic catalog.
	ExtraTools []tool.Tool
}

// ClinicAgent is the high-level façade aggregating the store, registry,
// dispatcher, and session manager.
type ClinicAgent struct {
	store      store.Store
	registry   *tool.Registry
	dispatcher *dispatch.Dispatcher
	sessions   *session.Manager
	recorder   calllog.Recorder
	logger     logging.Logger
}

// New creates a ClinicAgent over a store with the standard function catalog
// registered. Any unset option takes a safe default.
func New(st store.Store, optFns ...func(o *Options)) (*ClinicAgent, error) {
	opts := Options{
		Recorder:        calllog.NoOpRecorder{},
		Logger:          logging.NoOpLogger{},
		DispatchTimeout: dispatch.DefaultTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	tools := tool.ClinicToolset(st)
	tools = append(tools, opts.ExtraTools...)
	registry, err := tool.NewRegistry(tools...)
	if err != nil {
		return nil, err
	}

	dispatcher := dispatch.New(registry, func(o *dispatch.Options) {
		o.Recorder = opts.Recorder
		o.Logger = opts.Logger
		o.Timeout = opts.DispatchTimeout
	})

	return &ClinicAgent{
		store:      st,
		registry:   registry,
		dispatcher: dispatcher,
		sessions:   session.NewManager(),
		recorder:   opts.Recorder,
		logger:     opts.Logger,
	}, nil
}

// Dispatch executes one decoded function invocation for the given session.
func (c *ClinicAgent) Dispatch(ctx context.Context, sessionID string, req core.Request) core.Result {
	return c.dispatcher.Dispatch(ctx, c.sessions.Get(sessionID), req)
}

// DispatchCall executes one raw model-issued function call for the session.
func (c *ClinicAgent) DispatchCall(ctx context.Context, sessionID string, fc core.FunctionCall) core.Result {
	return c.dispatcher.DispatchCall(ctx, c.sessions.Get(sessionID), fc)
}

// Dispatcher exposes the underlying dispatcher for agent wiring.
func (c *ClinicAgent) Dispatcher() *dispatch.Dispatcher { return c.dispatcher }

// Sessions exposes the session manager.
func (c *ClinicAgent) Sessions() *session.Manager { return c.sessions }

// Store exposes the clinic store.
func (c *ClinicAgent) Store() store.Store { return c.store }

// Catalog returns the ordered function definitions.
func (c *ClinicAgent) Catalog() []tool.Definition { return c.registry.Definitions() }

// EndSession discards the per-call context for a finished session.
func (c *ClinicAgent) EndSession(sessionID string) { c.sessions.End(sessionID) }

// Close flushes the call log and releases the store.
func (c *ClinicAgent) Close() error {
	return errors.Join(c.recorder.Close(), c.store.Close())
}
