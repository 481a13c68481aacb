package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCursor(t *testing.T) {
	t.Run("empty data", func(t *testing.T) {
		assert.Empty(t, EncodeCursor(Cursor{}))
	})

	t.Run("round trip", func(t *testing.T) {
		c := Cursor{CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 6000, time.UTC), ID: "r-1"}
		encoded := EncodeCursor(c)
		require.NotEmpty(t, encoded)

		decoded, err := DecodeCursor(encoded)
		require.NoError(t, err)
		require.NotNil(t, decoded)
		assert.True(t, c.CreatedAt.Equal(decoded.CreatedAt))
		assert.Equal(t, "r-1", decoded.ID)
	})
}

func TestDecodeCursor(t *testing.T) {
	t.Run("empty cursor", func(t *testing.T) {
		c, err := DecodeCursor("")
		assert.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DecodeCursor("invalid-base64!!!")
		assert.Error(t, err)
	})

	t.Run("missing fields", func(t *testing.T) {
		// {"id":""}
		_, err := DecodeCursor("eyJpZCI6IiJ9")
		assert.ErrorIs(t, err, errInvalidCursor)
	})
}
