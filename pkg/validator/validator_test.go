package validator

import (
	"database/sql/driver"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type day struct{ s string }

func (d day) Value() (driver.Value, error) {
	if d.s == "" {
		return nil, nil
	}
	return d.s, nil
}

type request struct {
	When  day    `json:"when" binding:"required"`
	At    string `json:"at" binding:"omitempty,hhmm"`
	Email string `json:"email" binding:"omitempty,email"`
}

func TestRegister(t *testing.T) {
	require.NoError(t, Register(day{}))

	assert.NoError(t, binding.Validator.ValidateStruct(&request{When: day{"2025-03-10"}, At: "18:00"}))

	err := binding.Validator.ValidateStruct(&request{At: "25:00", Email: "nope"})
	require.Error(t, err)
	fields := Errors(err)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	assert.Equal(t, map[string]string{
		"when":  "is required",
		"at":    "must be a time of day in HH:MM form",
		"email": "must be a valid email",
	}, got)
	assert.Contains(t, Summary(err), "when is required")
}

func TestSummary_NonValidationError(t *testing.T) {
	assert.Nil(t, Errors(assert.AnError))
	assert.Equal(t, "invalid request body", Summary(assert.AnError))
}
