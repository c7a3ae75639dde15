package openai

import (
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GediminasPukys/clinic-voice-agent/core"
	"github.com/GediminasPukys/clinic-voice-agent/model"
)

func TestFinalChunkEmitsToolCallsInStreamOrder(t *testing.T) {
	m := &Model{}
	out := make(chan model.Response, 1)
	agg := map[int64]*aggCall{
		2: {id: "call-2", name: "get_available_slots", args: "{}"},
		0: {id: "call-0", name: "lookup_patient", args: "{}"},
		1: {id: "call-1", name: "get_specialties", args: "{}"},
	}

	var builder strings.Builder
	m.emitFinalChunk(openai.ChatCompletionChunkChoice{FinishReason: "tool_calls"}, &builder, agg, out)

	resp := <-out
	assert.False(t, resp.Partial)
	require.Len(t, resp.Content.Parts, 3)

	names := []string{}
	for _, p := range resp.Content.Parts {
		fc, ok := p.(core.FunctionCallPart)
		require.True(t, ok)
		names = append(names, fc.FunctionCall.Name)
	}
	assert.Equal(t, []string{"lookup_patient", "get_specialties", "get_available_slots"}, names)
}
