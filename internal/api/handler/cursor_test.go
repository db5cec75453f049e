package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hqbui/faceswap-be/internal/store"
)

func TestJobCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC)

	encoded := EncodeJobCursor(&store.Cursor{
		CreatedAt: createdAt,
		ID:        "req-1",
	})

	decoded, err := DecodeJobCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, decoded.CreatedAt.Equal(createdAt))
	assert.Equal(t, "req-1", decoded.ID)
}

func TestTxCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	encoded := EncodeTxCursor(&store.TxCursor{
		CreatedAt: createdAt,
		ID:        42,
	})

	decoded, err := DecodeTxCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, decoded.CreatedAt.Equal(createdAt))
	assert.Equal(t, int64(42), decoded.ID)
}

func TestDecodeJobCursor(t *testing.T) {
	tests := []struct {
		name    string
		cursor  string
		wantNil bool
		wantErr bool
	}{
		{
			name:    "empty cursor means first page",
			cursor:  "",
			wantNil: true,
		},
		{
			name:    "not base64",
			cursor:  "!!definitely not base64!!",
			wantErr: true,
		},
		{
			name:    "missing separator",
			cursor:  "MTIzNDU2Nzg5", // base64("123456789")
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeJobCursor(tt.cursor)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, decoded)
			}
		})
	}
}
