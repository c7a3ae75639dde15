// Package dispatch executes model-issued function invocations against the
// clinic catalog. Each invocation moves through a fixed lifecycle: received,
// validated, executing, succeeded or failed, logged, returned. Errors are
// classified and converted into structured result payloads; they never
// propagate to the transport as protocol faults, so one failed call can
// never abort a conversation.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/GediminasPukys/clinic-voice-agent/calllog"
	"github.com/GediminasPukys/clinic-voice-agent/core"
	"github.com/GediminasPukys/clinic-voice-agent/internal/util"
	"github.com/GediminasPukys/clinic-voice-agent/logging"
	"github.com/GediminasPukys/clinic-voice-agent/session"
	"github.com/GediminasPukys/clinic-voice-agent/tool"
)

// DefaultTimeout bounds a single handler execution. No clinic operation is
// long-running; a handler exceeding this is treated as an internal failure.
const DefaultTimeout = 10 * time.Second

// Options configure a Dispatcher.
type Options struct {
	// Recorder receives one entry per invocation (defaults to NoOpRecorder).
	Recorder calllog.Recorder
	// Logger for operational events (defaults to NoOpLogger).
	Logger logging.Logger
	// Timeout bounds handler execution (defaults to DefaultTimeout).
	Timeout time.Duration
}

// Dispatcher resolves invocation requests against the registry, validates
// arguments, executes handlers against the store and session context, and
// produces structured, logged results. Safe for concurrent use across
// sessions; within one session the transport delivers invocations
// sequentially.
type Dispatcher struct {
	registry *tool.Registry
	recorder calllog.Recorder
	logger   logging.Logger
	timeout  time.Duration
}

// New constructs a Dispatcher over an immutable registry.
func New(registry *tool.Registry, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		Recorder: calllog.NoOpRecorder{},
		Logger:   logging.NoOpLogger{},
		Timeout:  DefaultTimeout,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Dispatcher{
		registry: registry,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
	}
}

// Catalog exports the ordered function definitions for model configuration.
func (d *Dispatcher) Catalog() []tool.Definition { return d.registry.Definitions() }

// DispatchCall handles a raw function call whose arguments are still a JSON
// string, as delivered by model providers. Malformed argument JSON is a
// validation failure, not a transport fault.
func (d *Dispatcher) DispatchCall(ctx context.Context, sess *session.Context, fc core.FunctionCall) core.Result {
	args := map[string]any{}
	if fc.Arguments != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			verr := core.NewDomainError(core.ErrValidation, "arguments are not valid JSON: %v", err)
			return d.finish(sess, core.NewID(), fc.Name, nil, core.Fail(verr), 0)
		}
	}
	return d.dispatch(ctx, sess, fc.ID, core.Request{Name: fc.Name, Arguments: args})
}

// Dispatch handles a decoded invocation request. It always returns a
// terminal Result; the error taxonomy is carried in the result payload.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Context, req core.Request) core.Result {
	return d.dispatch(ctx, sess, "", req)
}

func (d *Dispatcher) dispatch(ctx context.Context, sess *session.Context, callID string, req core.Request) core.Result {
	invocationID := core.NewID()
	d.logger.Debug("dispatch.received",
		"function", req.Name, "session_id", sess.ID(), "invocation_id", invocationID)

	// Received -> Validated: resolve the name, then check the arguments.
	t, err := d.registry.Resolve(req.Name)
	if err != nil {
		d.logger.Warn("dispatch.unknown_function", "function", req.Name, "session_id", sess.ID())
		return d.finish(sess, invocationID, req.Name, req.Arguments, core.Fail(err), 0)
	}

	if err := util.ValidateParameters(req.Arguments, t.Parameters()); err != nil {
		verr := &core.DomainError{Kind: core.ErrValidation, Message: err.Error(), Err: err}
		d.logger.Warn("dispatch.validation_failed",
			"function", req.Name, "session_id", sess.ID(), "error", err.Error())
		return d.finish(sess, invocationID, req.Name, req.Arguments, core.Fail(verr), 0)
	}

	// Validated -> Executing.
	start := time.Now()
	value, err := d.execute(ctx, sess, invocationID, callID, t, req.Arguments)
	duration := time.Since(start)

	// Executing -> Succeeded | Failed.
	var result core.Result
	if err != nil {
		result = core.Fail(err)
		d.logger.Error("dispatch.executed",
			"function", req.Name, "session_id", sess.ID(), "invocation_id", invocationID,
			"duration_ms", duration.Milliseconds(), "code", string(result.Code), "error", err.Error())
	} else {
		result = core.OK(serialize(value))
		d.logger.Info("dispatch.executed",
			"function", req.Name, "session_id", sess.ID(), "invocation_id", invocationID,
			"duration_ms", duration.Milliseconds())
	}

	// Succeeded | Failed -> Logged -> Returned.
	return d.finish(sess, invocationID, req.Name, req.Arguments, result, duration)
}

// execute runs the handler under the configured timeout with panic recovery.
// Handlers receive a context carrying the deadline, so storage calls are
// bounded too; a handler that still fails to return is abandoned and reported
// as an internal failure.
func (d *Dispatcher) execute(
	ctx context.Context,
	sess *session.Context,
	invocationID, callID string,
	t tool.Tool,
	args map[string]any,
) (any, error) {
	execCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if callID == "" {
		callID = invocationID
	}
	toolCtx := core.NewToolContext(execCtx, sess, invocationID, callID, d.logger)

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("dispatch.handler_panic",
					"function", t.Name(), "recover", fmt.Sprintf("%v", r), "stack", string(debug.Stack()))
				done <- outcome{err: core.WrapInternal("handler panicked", fmt.Errorf("%v", r))}
			}
		}()
		value, err := t.Call(toolCtx, args)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-execCtx.Done():
		return nil, core.WrapInternal("operation did not complete in time", execCtx.Err())
	}
}

// finish records the invocation in the session history and the call log,
// then returns the terminal result. Logging is never skipped and a recorder
// failure can never fail the invocation it describes.
func (d *Dispatcher) finish(
	sess *session.Context,
	invocationID, name string,
	args map[string]any,
	result core.Result,
	duration time.Duration,
) core.Result {
	sess.RecordInvocation(name, result.Status)

	entry := calllog.Entry{
		Timestamp:    time.Now(),
		SessionID:    sess.ID(),
		InvocationID: invocationID,
		Function:     name,
		Arguments:    args,
		Status:       result.Status,
		Code:         result.Code,
		DurationMs:   duration.Milliseconds(),
		Context:      sess.Snapshot(),
	}
	if result.Status == core.StatusOK {
		entry.Result = result.Payload
	} else {
		entry.Result = result.Message
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Warn("dispatch.record_panic", "function", name, "recover", fmt.Sprintf("%v", r))
			}
		}()
		d.recorder.Record(entry)
	}()

	return result
}

// serialize renders a handler return value as model-facing text. Handlers
// return strings; structured values are JSON-encoded.
func serialize(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}
