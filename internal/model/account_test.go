package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountView_OmitsSecrets(t *testing.T) {
	now := time.Now()
	a := Account{
		ID:                 "b7a3c2e4-1f0e-4b8a-9d8c-2a1e5f6b7c8d",
		UserName:           "alice",
		FirstName:          "Alice",
		LastName:           "Liddell",
		HashedPassword:     "$argon2id$secret",
		SecurityAnswerHash: "$argon2id$answer",
		IsActive:           true,
		DateCreated:        now,
		LastUpdate:         now,
	}

	b, err := json.Marshal(a.View())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.ElementsMatch(t,
		[]string{"id", "userName", "firstName", "lastName", "isActive", "isAdmin"},
		keys(got))
	assert.NotContains(t, string(b), "argon2id")
}

func TestViews_EmptyIsNotNil(t *testing.T) {
	b, err := json.Marshal(Views(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
