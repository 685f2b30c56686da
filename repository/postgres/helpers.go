package postgres

import (
	"encoding/json"
	"fmt"
	"time"
)

// limitOffsetClause builds a LIMIT/OFFSET tail for the given 1-based
// positional index of the limit argument.
func limitOffsetClause(limitIdx int) string {
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", limitIdx, limitIdx+1)
}

func marshalMap(data map[string]string) []byte {
	if len(data) == 0 {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return b
}

func unmarshalMap(raw []byte) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
