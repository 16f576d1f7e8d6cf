package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalBody serializes a record to JSON TEXT for storage with HTML
// escaping disabled, so narrative text like "<gold>" survives a round trip
// byte-identically.
func marshalBody(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal body: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func unmarshalBody(body string, target any) error {
	return json.Unmarshal([]byte(body), target)
}
