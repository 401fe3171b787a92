package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Role   string `json:"role" validate:"required,user_role"`
	Action string `json:"action" validate:"required,bulk_action"`
	Status *int   `json:"status" validate:"omitempty,record_status"`
}

func intPtr(n int) *int { return &n }

func TestCustomTags(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(sample{Role: "admin", Action: "purge", Status: intPtr(1)}))
	assert.NoError(t, v.Validate(sample{Role: "user", Action: "trash"}))

	err := v.Validate(sample{Role: "root", Action: "explode", Status: intPtr(2)})
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := verrs.Fields()
	assert.Equal(t, "role must be either 'admin' or 'user'", fields["role"])
	assert.Equal(t, "action must be one of: trash, restore, purge", fields["action"])
	assert.Equal(t, "status must be 0 or 1", fields["status"])
	assert.Contains(t, err.Error(), "role")
}
