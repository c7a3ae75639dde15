package clinicagent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GediminasPukys/clinic-voice-agent/calllog"
	"github.com/GediminasPukys/clinic-voice-agent/core"
	"github.com/GediminasPukys/clinic-voice-agent/store"
)

func newTestAgent(t *testing.T, optFns ...func(o *Options)) *ClinicAgent {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "clinic.db"))
	require.NoError(t, err)
	require.NoError(t, st.Seed(context.Background()))

	ca, err := New(st, optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ca.Close() })
	return ca
}

func TestNewRegistersFullCatalog(t *testing.T) {
	ca := newTestAgent(t)
	assert.Len(t, ca.Catalog(), 11)
}

func TestReceptionScenario(t *testing.T) {
	ca := newTestAgent(t)
	ctx := context.Background()
	sessionID := core.NewID()

	// An unknown caller is a prompt to register, not an error.
	result := ca.Dispatch(ctx, sessionID, core.Request{
		Name:      "lookup_patient",
		Arguments: map[string]any{"phone": "+37069876543"},
	})
	require.Equal(t, core.StatusOK, result.Status)
	assert.Contains(t, result.Payload, "No patient found with phone number +37069876543")

	result = ca.Dispatch(ctx, sessionID, core.Request{
		Name: "create_patient",
		Arguments: map[string]any{
			"name":  "Rasa Petrauskienė",
			"phone": "+37069876543",
		},
	})
	require.Equal(t, core.StatusOK, result.Status)
	assert.Contains(t, result.Payload, "Successfully created new patient record for Rasa Petrauskienė")

	// The session now carries the patient context.
	result = ca.Dispatch(ctx, sessionID, core.Request{Name: "get_current_patient_info", Arguments: map[string]any{}})
	require.Equal(t, core.StatusOK, result.Status)
	assert.Contains(t, result.Payload, "Name: Rasa Petrauskienė")

	// A different session knows nothing about this caller.
	other := ca.Dispatch(ctx, core.NewID(), core.Request{Name: "get_current_patient_info", Arguments: map[string]any{}})
	require.Equal(t, core.StatusOK, other.Status)
	assert.Contains(t, other.Payload, "No patient currently selected")
}

func TestDispatchErrorTaxonomy(t *testing.T) {
	ca := newTestAgent(t)
	ctx := context.Background()
	sessionID := core.NewID()

	unknown := ca.Dispatch(ctx, sessionID, core.Request{Name: "summon_doctor", Arguments: map[string]any{}})
	assert.Equal(t, core.StatusError, unknown.Status)
	assert.Equal(t, core.ErrUnknownFunction, unknown.Code)

	invalid := ca.Dispatch(ctx, sessionID, core.Request{Name: "lookup_patient", Arguments: map[string]any{}})
	assert.Equal(t, core.StatusError, invalid.Status)
	assert.Equal(t, core.ErrValidation, invalid.Code)

	missing := ca.Dispatch(ctx, sessionID, core.Request{
		Name:      "cancel_appointment",
		Arguments: map[string]any{"appointment_id": 424242},
	})
	assert.Equal(t, core.StatusError, missing.Status)
	assert.Equal(t, core.ErrNotFound, missing.Code)
}

func TestCallLogReceivesEveryDispatch(t *testing.T) {
	rec := &memoryRecorder{}
	ca := newTestAgent(t, func(o *Options) { o.Recorder = rec })
	ctx := context.Background()
	sessionID := core.NewID()

	ca.Dispatch(ctx, sessionID, core.Request{Name: "list_all_doctors", Arguments: map[string]any{}})
	ca.Dispatch(ctx, sessionID, core.Request{Name: "summon_doctor", Arguments: map[string]any{}})

	require.Len(t, rec.entries, 2)
	assert.Equal(t, "list_all_doctors", rec.entries[0].Function)
	assert.Equal(t, core.StatusOK, rec.entries[0].Status)
	assert.Equal(t, "summon_doctor", rec.entries[1].Function)
	assert.Equal(t, core.ErrUnknownFunction, rec.entries[1].Code)
	assert.Equal(t, sessionID, rec.entries[1].SessionID)
}

type memoryRecorder struct {
	entries []calllog.Entry
}

func (r *memoryRecorder) Record(entry calllog.Entry) { r.entries = append(r.entries, entry) }
func (r *memoryRecorder) Close() error               { return nil }
