package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Row is one result row as an ordered column to value mapping.
type Row struct {
	Columns []string
	Values  []any
}

func NewRow(columns []string, values []any) Row {
	return Row{Columns: columns, Values: values}
}

func (r Row) Get(column string) (any, bool) {
	for i, name := range r.Columns {
		if name == column && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

func (r Row) Len() int {
	return len(r.Columns)
}

// MarshalJSON writes the row as a JSON object keeping column order.
func (r Row) MarshalJSON() ([]byte, error) {
	if len(r.Values) != len(r.Columns) {
		return nil, fmt.Errorf("row has %d columns and %d values", len(r.Columns), len(r.Values))
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, column := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(column)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", column, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NormalizeValues converts driver byte slices to strings so rows render as
// text rather than base64.
func NormalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func StripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
