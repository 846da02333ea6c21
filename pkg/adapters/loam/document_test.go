package loam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreatedAt(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 5000, time.UTC)

	for _, raw := range []any{ts, ts.Format(time.RFC3339Nano)} {
		got, err := parseCreatedAt(raw)
		require.NoError(t, err)
		assert.True(t, ts.Equal(got))
	}

	_, err := parseCreatedAt(42)
	assert.Error(t, err)
}
