package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GediminasPukys/clinic-voice-agent/clinic"
)

func TestCurrentPatientLifecycle(t *testing.T) {
	c := NewContext("s1")
	assert.Nil(t, c.CurrentPatient())

	p := &clinic.Patient{ID: 7, Name: "Ona Kazlauskienė", Phone: "+37060000001"}
	c.SetCurrentPatient(p)
	require.NotNil(t, c.CurrentPatient())
	assert.Equal(t, int64(7), c.CurrentPatient().ID)

	// Identifying as someone else replaces the link.
	c.SetCurrentPatient(&clinic.Patient{ID: 9, Name: "Petras Jonaitis"})
	assert.Equal(t, int64(9), c.CurrentPatient().ID)

	c.Clear()
	assert.Nil(t, c.CurrentPatient())
	assert.Empty(t, c.History())
}

func TestHistoryIsBounded(t *testing.T) {
	c := NewContext("s1")
	for i := 0; i < historyLimit+10; i++ {
		c.RecordInvocation(fmt.Sprintf("fn_%d", i), "ok")
	}

	history := c.History()
	require.Len(t, history, historyLimit)
	// Oldest entries fall off the front.
	assert.Equal(t, fmt.Sprintf("fn_%d", 10), history[0].Function)
}

func TestSnapshot(t *testing.T) {
	c := NewContext("s1")
	c.RecordInvocation("lookup_patient", "ok")

	snap := c.Snapshot()
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, 1, snap.InvocationCount)
	assert.False(t, snap.HasPatientContext)
	assert.Zero(t, snap.PatientID)

	c.SetCurrentPatient(&clinic.Patient{ID: 7, Name: "Ona Kazlauskienė"})
	snap = c.Snapshot()
	assert.True(t, snap.HasPatientContext)
	assert.Equal(t, int64(7), snap.PatientID)
	assert.Equal(t, "Ona Kazlauskienė", snap.PatientName)
}

func TestManagerIsolatesSessions(t *testing.T) {
	m := NewManager()

	a := m.Get("call-a")
	b := m.Get("call-b")
	require.NotSame(t, a, b)
	assert.Same(t, a, m.Get("call-a"))
	assert.Equal(t, 2, m.Active())

	a.SetCurrentPatient(&clinic.Patient{ID: 1, Name: "Ona"})
	assert.Nil(t, b.CurrentPatient())

	m.End("call-a")
	assert.Equal(t, 1, m.Active())
	// A new call with the same id starts clean.
	assert.Nil(t, m.Get("call-a").CurrentPatient())
}

func TestManagerConcurrentGet(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	contexts := make([]*Context, 16)
	for i := range contexts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			contexts[i] = m.Get("same-session")
		}(i)
	}
	wg.Wait()

	for _, c := range contexts[1:] {
		assert.Same(t, contexts[0], c)
	}
	assert.Equal(t, 1, m.Active())
}
