package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// marshalIDs converts an ID list to JSON TEXT. A nil list is stored as [].
func marshalIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal ids: %w", err)
	}
	return string(data), nil
}

// unmarshalIDs parses JSON TEXT into an ID list, never returning nil.
func unmarshalIDs(data string) ([]string, error) {
	ids := []string{}
	if data == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal ids: %w", err)
	}
	return ids, nil
}

func marshalTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func unmarshalTime(data string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, data)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal time: %w", err)
	}
	return t, nil
}

func unmarshalNullTime(data sql.NullString) (*time.Time, error) {
	if !data.Valid {
		return nil, nil
	}
	t, err := unmarshalTime(data.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
