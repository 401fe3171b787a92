package utils

import (
	"testing"
	"time"

	"cms0/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	user := models.User{Base: models.Base{ID: 7}, Role: models.UserRoleAdmin}

	token, err := GenerateJWT(user, "sid-1", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "sid-1", claims.SID)
}

func TestParseJWT_Rejects(t *testing.T) {
	user := models.User{Base: models.Base{ID: 7}}

	token, err := GenerateJWT(user, "sid-1", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateJWT(user, "sid-1", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.Error(t, err)

	noSession, err := GenerateJWT(user, "", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(noSession, "secret")
	assert.Error(t, err)
}

func TestJSONToMap(t *testing.T) {
	m, err := JSONToMap(nil)
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = JSONToMap([]byte(`{"price":"10","stock":3}`))
	require.NoError(t, err)
	assert.Equal(t, "10", m["price"])
	assert.Equal(t, float64(3), m["stock"])

	_, err = JSONToMap([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestGenerateRandomString(t *testing.T) {
	a, err := GenerateRandomString(48)
	require.NoError(t, err)
	b, err := GenerateRandomString(48)
	require.NoError(t, err)

	assert.Len(t, a, 48)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^[a-zA-Z0-9]+$`, a)

	_, err = GenerateRandomString(0)
	assert.Error(t, err)
}
