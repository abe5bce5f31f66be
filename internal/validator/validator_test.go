package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roomForm struct {
	Title    string   `json:"title" validate:"required,max=10"`
	RoomType string   `json:"roomType" validate:"omitempty,is-room-type"`
	Emails   []string `json:"emails" validate:"omitempty,dive,email"`
}

type statusForm struct {
	Subscription string `json:"subscription" validate:"omitempty,is-subscription-status"`
	Invoice      string `json:"invoice" validate:"omitempty,is-invoice-status"`
	Period       string `json:"period" validate:"omitempty,is-billing-period"`
	Role         string `json:"role" validate:"omitempty,is-user-role"`
}

func TestValidate_FieldNamesFromJSONTags(t *testing.T) {
	v := New()

	err := v.Validate(&roomForm{RoomType: "Huge", Emails: []string{"ok@example.com", "nope"}})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))

	assert.Equal(t, "This field is required", vErr.Errors["title"])
	assert.Equal(t, "Must be one of: OneToOne, SmallClass, BigClass", vErr.Errors["roomType"])
	assert.Equal(t, "Must be a valid email address", vErr.Errors["emails[1]"])
	assert.Len(t, vErr.Errors, 3)
}

func TestValidate_CustomRules(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&statusForm{}), "пустые значения пропускаются")
	assert.NoError(t, v.Validate(&statusForm{
		Subscription: "active", Invoice: "refunded", Period: "yearly", Role: "editor",
	}))

	err := v.Validate(&statusForm{Subscription: "paused", Invoice: "lost", Period: "weekly", Role: "customer"})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Len(t, vErr.Errors, 4)
}

func TestValidationError_StableMessage(t *testing.T) {
	err := &ValidationError{Errors: map[string]string{"b": "second", "a": "first"}}
	assert.Equal(t, "Validation failed: field 'a': first; field 'b': second", err.Error())
}
