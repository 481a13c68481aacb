package review

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Cursor marks the last review of a page. The next page starts strictly
// after it in (created_at DESC, id DESC) order.
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// EncodeCursor encodes a cursor to an opaque base64 string.
func EncodeCursor(c Cursor) string {
	if c.ID == "" {
		return ""
	}
	jsonBytes, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(jsonBytes)
}

// DecodeCursor decodes a cursor string. An empty string yields nil.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}

	var c Cursor
	if err := json.Unmarshal(decoded, &c); err != nil {
		return nil, err
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return nil, errInvalidCursor
	}
	return &c, nil
}
