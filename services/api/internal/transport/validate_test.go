package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	t.Parallel()
	v := NewValidator()

	require.NoError(t, v.Validate(&RegisterRequest{Email: "a@b.io", Username: "alice", Password: "Secret123"}))

	err := v.Validate(&RegisterRequest{Email: "nope", Username: "al", Password: "short"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Msg, "email must be a valid email address")
	assert.Contains(t, verr.Msg, "username must be at least 3")
	assert.Contains(t, verr.Msg, "password must be at least 8")

	lat := 123.0
	err = v.Validate(&CreateReportRequest{Title: "x", Latitude: &lat})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "latitude is invalid", verr.Msg)

	err = v.Validate(&LoginRequest{Password: "x"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username is required", verr.Msg)
}
