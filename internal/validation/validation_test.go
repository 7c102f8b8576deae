package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	StudentNumber string `json:"student_number" validate:"required,student_number"`
	Internal      string `json:"-" validate:"omitempty"`
}

func TestStructCollectsJSONFieldNames(t *testing.T) {
	err := Struct(signup{Email: "nope", Password: "short", StudentNumber: "!!"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 3)

	byField := map[string]string{}
	for _, f := range verr.Fields {
		byField[f.Field] = f.Error
	}
	assert.Contains(t, byField, "email")
	assert.Contains(t, byField, "password")
	assert.Equal(t, "student_number must contain only digits, letters and dashes", byField["student_number"])
}

func TestRequiredTranslation(t *testing.T) {
	err := Struct(signup{})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email is required", verr.Fields[0].Error)
}

func TestStructValid(t *testing.T) {
	assert.NoError(t, Struct(signup{Email: "a@b.co", Password: "password1", StudentNumber: "2024-00123"}))
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("a@b.co", "required,email"))
	assert.Error(t, Var("", "required"))
}
