// Package agent implements the receptionist conversation loop. It drives a
// language model with the clinic function catalog, executes every function
// call the model issues through the dispatcher, feeds the results back, and
// returns the model's closing reply for the turn.
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/GediminasPukys/clinic-voice-agent/core"
	"github.com/GediminasPukys/clinic-voice-agent/dispatch"
	"github.com/GediminasPukys/clinic-voice-agent/logging"
	"github.com/GediminasPukys/clinic-voice-agent/model"
	"github.com/GediminasPukys/clinic-voice-agent/session"
)

// Greeting opens every call before the caller has said anything.
const Greeting = "Hello, you've reached Ieva's Endocrinology Clinic. How may I assist you today?"

// Instructions is the default receptionist persona. The function catalog
// itself is supplied separately through tool definitions, so the text focuses
// on conduct and workflow rather than enumerating schemas.
const Instructions = `You are a professional and friendly receptionist at Ieva's Endocrinology Clinic.

Start each call with: "` + Greeting + `"

Your responsibilities:
1. Help patients schedule appointments with our doctors
2. Look up existing patient records or create new ones
3. Provide information about our doctors and their specialties
4. Manage appointments (view, cancel, reschedule)
5. Answer questions about clinic hours (Monday-Friday, 8 AM - 5 PM)

Always:
- Be warm, professional, and patient
- Confirm important details before taking actions
- Use the function tools to interact with the clinic database
- Provide clear confirmations of any actions taken

When scheduling appointments:
1. First look up the patient by phone number
2. If new, create their patient record
3. Check doctor availability
4. Confirm the appointment details
5. Book the appointment and provide confirmation

Use the function tools whenever you need clinic data; never invent patients,
doctors, or appointment slots.`

// defaultMaxTurns bounds model round-trips within a single caller turn. A
// scheduling flow needs a handful (lookup, create, slots, book); beyond that
// the model is looping.
const defaultMaxTurns = 8

// Options configure a Receptionist.
type Options struct {
	// Instructions override the default persona.
	Instructions string
	// MaxTurns bounds model round-trips per caller utterance.
	MaxTurns int
	// Logger for operational events (defaults to NoOpLogger).
	Logger logging.Logger
}

// Receptionist is the conversational front desk. One instance serves many
// concurrent calls; per-call state lives in the session manager and in the
// per-session transcript.
type Receptionist struct {
	model        model.Model
	dispatcher   *dispatch.Dispatcher
	sessions     *session.Manager
	instructions string
	maxTurns     int
	logger       logging.Logger

	mu          sync.Mutex
	transcripts map[string][]core.Content
}

// New constructs a Receptionist over a model, a dispatcher, and a session
// manager.
func New(m model.Model, d *dispatch.Dispatcher, sessions *session.Manager, optFns ...func(o *Options)) *Receptionist {
	opts := Options{
		Instructions: Instructions,
		MaxTurns:     defaultMaxTurns,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = defaultMaxTurns
	}
	return &Receptionist{
		model:        m,
		dispatcher:   d,
		sessions:     sessions,
		instructions: opts.Instructions,
		maxTurns:     opts.MaxTurns,
		logger:       opts.Logger,
		transcripts:  make(map[string][]core.Content),
	}
}

// Respond handles one caller utterance: it appends the text to the session
// transcript, lets the model request function calls, executes them in order
// through the dispatcher, and returns the model's final spoken reply.
func (r *Receptionist) Respond(ctx context.Context, sessionID, userText string) (string, error) {
	sessCtx := r.sessions.Get(sessionID)
	r.appendContent(sessionID, core.NewTextContent("user", userText))

	defs := catalogDefinitions(r.dispatcher)

	for turn := 0; turn < r.maxTurns; turn++ {
		req := model.Request{
			Instructions: r.instructions,
			Contents:     r.transcript(sessionID),
			Tools:        defs,
		}

		content, err := r.generate(ctx, req)
		if err != nil {
			return "", fmt.Errorf("model generation: %w", err)
		}
		r.appendContent(sessionID, content)

		calls := content.FunctionCalls()
		if len(calls) == 0 {
			return content.Text(), nil
		}

		// Function calls execute sequentially in issue order; each result is
		// fed back before the next model round-trip.
		var parts []core.Part
		for _, fc := range calls {
			result := r.dispatcher.DispatchCall(ctx, sessCtx, fc)
			parts = append(parts, core.FunctionResponsePart{
				FunctionResponse: functionResponse(fc, result),
			})
		}
		r.appendContent(sessionID, core.Content{Role: "tool", Parts: parts})
	}

	r.logger.Warn("turn budget exhausted", "session_id", sessionID, "max_turns", r.maxTurns)
	return "", fmt.Errorf("no final reply after %d model turns", r.maxTurns)
}

// EndCall releases the session state and transcript for a finished call.
func (r *Receptionist) EndCall(sessionID string) {
	r.sessions.End(sessionID)
	r.mu.Lock()
	delete(r.transcripts, sessionID)
	r.mu.Unlock()
}

// generate collects the final (non-partial) response from one model call.
func (r *Receptionist) generate(ctx context.Context, req model.Request) (core.Content, error) {
	respCh, errCh := r.model.Generate(ctx, req)

	var final *core.Content
	for resp := range respCh {
		if resp.Partial {
			continue
		}
		c := resp.Content
		final = &c
	}
	if err := <-errCh; err != nil {
		return core.Content{}, err
	}
	if final == nil {
		return core.Content{}, fmt.Errorf("model produced no final response")
	}
	return *final, nil
}

func (r *Receptionist) transcript(sessionID string) []core.Content {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Content, len(r.transcripts[sessionID]))
	copy(out, r.transcripts[sessionID])
	return out
}

func (r *Receptionist) appendContent(sessionID string, c core.Content) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts[sessionID] = append(r.transcripts[sessionID], c)
}

// functionResponse converts a dispatch result into the part fed back to the
// model. Failures travel as error text so the model can recover in
// conversation instead of the call dying.
func functionResponse(fc core.FunctionCall, result core.Result) core.FunctionResponse {
	fr := core.FunctionResponse{ID: fc.ID, Name: fc.Name}
	if result.Status == core.StatusOK {
		fr.Response = result.Payload
	} else {
		fr.Error = fmt.Sprintf("%s: %s", result.Code, result.Message)
	}
	return fr
}

// catalogDefinitions converts the dispatcher's registry export into model
// tool definitions.
func catalogDefinitions(d *dispatch.Dispatcher) []model.ToolDefinition {
	catalog := d.Catalog()
	defs := make([]model.ToolDefinition, len(catalog))
	for i, t := range catalog {
		defs[i] = model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return defs
}
