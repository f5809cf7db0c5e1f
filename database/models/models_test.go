package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorSummaryOrFallback(t *testing.T) {
	tests := []struct {
		name   string
		input  ColorSummary
		expect ColorSummary
	}{
		{"nil", nil, ColorSummary{{128, 128, 128}}},
		{"empty", ColorSummary{}, ColorSummary{{128, 128, 128}}},
		{"kept", ColorSummary{{1, 2, 3}}, ColorSummary{{1, 2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.input.OrFallback())
		})
	}
}

func TestMemorialHasPassword(t *testing.T) {
	assert.False(t, (&Memorial{IsPublic: true}).HasPassword())
	assert.False(t, (&Memorial{IsPublic: false}).HasPassword())
	assert.True(t, (&Memorial{IsPublic: false, PasswordHash: "$2a$12$x"}).HasPassword())
}

func TestMemorialBeforeCreate(t *testing.T) {
	m := &Memorial{IsPublic: true}
	assert.NoError(t, m.BeforeCreate(nil))
	assert.Len(t, m.ID, 36)
	assert.Equal(t, FallbackSummary(), m.ColorSummary)

	bad := &Memorial{IsPublic: true, PasswordHash: "hash"}
	assert.ErrorIs(t, bad.BeforeCreate(nil), ErrPublicWithPassword)
}

func TestUserName(t *testing.T) {
	assert.Equal(t, "grandson", (&User{Username: "grandson"}).Name())
	assert.Equal(t, "Tom", (&User{Username: "grandson", DisplayName: "Tom"}).Name())
	var u *User
	assert.Equal(t, "", u.Name())
}
