package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageText(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		m, err := NewMessageText("  Good morning  ")
		require.NoError(t, err)
		assert.Equal(t, "Good morning", m.Value())
	})

	t.Run("Max Length", func(t *testing.T) {
		m, err := NewMessageText(strings.Repeat("m", MaxMessageTextLength))
		require.NoError(t, err)
		assert.Len(t, m.Value(), MaxMessageTextLength)
	})

	t.Run("Rejected", func(t *testing.T) {
		for _, raw := range []string{"", "   ", strings.Repeat("m", MaxMessageTextLength+1)} {
			_, err := NewMessageText(raw)
			assert.ErrorIs(t, err, ErrValidation, "input %q", raw)
		}
	})
}

func TestDefaultMessageFor(t *testing.T) {
	name, err := NewPersonName("Ada")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!", DefaultMessageFor(name).Value())

	longest, err := NewPersonName(strings.Repeat("n", MaxPersonNameLength))
	require.NoError(t, err)
	msg := DefaultMessageFor(longest)

	// The derived message must itself be a valid MessageText.
	validated, err := NewMessageText(msg.Value())
	require.NoError(t, err)
	assert.Equal(t, msg, validated)
}
