package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersonName(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       string
		wantReason string
	}{
		{name: "Plain", raw: "Ada", want: "Ada"},
		{name: "Trimmed", raw: "  Ada Lovelace \t", want: "Ada Lovelace"},
		{name: "Exactly Max", raw: strings.Repeat("a", MaxPersonNameLength), want: strings.Repeat("a", MaxPersonNameLength)},
		{name: "Multibyte Counts Characters", raw: strings.Repeat("é", MaxPersonNameLength), want: strings.Repeat("é", MaxPersonNameLength)},
		{name: "Empty", raw: "", wantReason: ReasonEmpty},
		{name: "Whitespace Only", raw: " \t\n ", wantReason: ReasonEmpty},
		{name: "Too Long", raw: strings.Repeat("a", MaxPersonNameLength+1), wantReason: ReasonTooLong},
		{name: "Too Long Before Trim", raw: strings.Repeat("a", MaxPersonNameLength) + " ", wantReason: ReasonTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPersonName(tt.raw)
			if tt.wantReason != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))

				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantReason, verr.Reason)
				assert.Equal(t, "name", verr.Field)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Value())
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestPersonName_EqualityByValue(t *testing.T) {
	a, err := NewPersonName("Ada")
	require.NoError(t, err)
	b, err := NewPersonName("  Ada  ")
	require.NoError(t, err)
	c, err := NewPersonName("ada")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, a == b)
	assert.False(t, a == c)
}

func TestValidationError_Message(t *testing.T) {
	_, err := NewPersonName("")
	assert.EqualError(t, err, "name is empty or whitespace")

	_, err = NewMessageText(strings.Repeat("x", MaxMessageTextLength+1))
	assert.EqualError(t, err, "message exceeds maximum length of 200 characters")
}
