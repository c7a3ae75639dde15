package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingArgs struct {
	DoctorID int64  `json:"doctor_id" description:"The doctor's ID number"`
	Date     string `json:"date" description:"Appointment date in YYYY-MM-DD format"`
	Notes    string `json:"notes,omitempty" description:"Additional notes"`
	Internal string `json:"-"`
	hidden   string
}

func TestCreateSchemaFromStruct(t *testing.T) {
	schema := CreateSchema(bookingArgs{})

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, props, "doctor_id")
	require.Contains(t, props, "date")
	require.Contains(t, props, "notes")
	assert.NotContains(t, props, "Internal")
	assert.NotContains(t, props, "hidden")

	doctorID := props["doctor_id"].(map[string]any)
	assert.Equal(t, "integer", doctorID["type"])
	assert.Equal(t, "The doctor's ID number", doctorID["description"])

	// omitempty fields are optional.
	assert.ElementsMatch(t, []string{"doctor_id", "date"}, schema["required"])
}

func TestCreateSchemaNonStruct(t *testing.T) {
	schema := CreateSchema("not a struct")
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, schema["properties"])
}

func TestValidateParametersRequired(t *testing.T) {
	schema := CreateSchema(bookingArgs{})

	err := ValidateParameters(map[string]any{"date": "2026-09-01"}, schema)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "doctor_id", verr.Field)
}

func TestValidateParametersTypes(t *testing.T) {
	schema := CreateSchema(bookingArgs{})

	// JSON numbers arrive as float64; whole values satisfy integer fields.
	err := ValidateParameters(map[string]any{"doctor_id": float64(3), "date": "2026-09-01"}, schema)
	assert.NoError(t, err)

	err = ValidateParameters(map[string]any{"doctor_id": 2.5, "date": "2026-09-01"}, schema)
	require.Error(t, err)

	err = ValidateParameters(map[string]any{"doctor_id": float64(3), "date": 42}, schema)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)
}

func TestValidateParametersEnum(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{"type": "string", "enum": []string{"scheduled", "cancelled"}},
		},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"status": "scheduled"}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"status": "pending"}, schema))
}

func TestValidateParametersToleratesExtras(t *testing.T) {
	schema := CreateSchema(bookingArgs{})

	err := ValidateParameters(map[string]any{
		"doctor_id": float64(1),
		"date":      "2026-09-01",
		"reasoning": "models sometimes add fields",
	}, schema)
	assert.NoError(t, err)
}
