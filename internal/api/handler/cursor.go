package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/hqbui/faceswap-be/internal/store"
)

// Cursors encode (created_at nanos, id) as base64 so listings paginate
// stably under concurrent inserts.

func DecodeJobCursor(cursorStr string) (*store.Cursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	createdAt, id, err := decodeCursorParts(cursorStr)
	if err != nil {
		return nil, err
	}

	return &store.Cursor{
		CreatedAt: createdAt,
		ID:        id,
	}, nil
}

func EncodeJobCursor(cursor *store.Cursor) string {
	return encodeCursorParts(cursor.CreatedAt, cursor.ID)
}

func DecodeTxCursor(cursorStr string) (*store.TxCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	createdAt, idStr, err := decodeCursorParts(cursorStr)
	if err != nil {
		return nil, err
	}

	var id int64
	if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
		return nil, fmt.Errorf("invalid id in cursor: %w", err)
	}

	return &store.TxCursor{
		CreatedAt: createdAt,
		ID:        id,
	}, nil
}

func EncodeTxCursor(cursor *store.TxCursor) string {
	return encodeCursorParts(cursor.CreatedAt, fmt.Sprintf("%d", cursor.ID))
}

func encodeCursorParts(createdAt time.Time, id string) string {
	cs := fmt.Sprintf("%d|%s", createdAt.UnixNano(), id)
	return base64.StdEncoding.EncodeToString([]byte(cs))
}

func decodeCursorParts(cursorStr string) (time.Time, string, error) {
	decoded, err := base64.StdEncoding.DecodeString(cursorStr)
	if err != nil {
		return time.Time{}, "", err
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("invalid cursor format")
	}

	var createdAt int64
	if _, err := fmt.Sscanf(parts[0], "%d", &createdAt); err != nil {
		return time.Time{}, "", fmt.Errorf("invalid createdAt in cursor: %w", err)
	}

	return time.Unix(0, createdAt), parts[1], nil
}
