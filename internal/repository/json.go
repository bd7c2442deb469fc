package repository

import (
	"encoding/json"
	"fmt"
)

// jsonb columns are written as pre-marshalled bytes so nil slices become [] and not null.

func marshalList(v []string) ([]byte, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal list: %w", err)
	}
	return b, nil
}

func marshalObject(v any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal object: %w", err)
	}
	return b, nil
}

func unmarshalList(b []byte) []string {
	var out []string
	if len(b) == 0 {
		return []string{}
	}
	if err := json.Unmarshal(b, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
