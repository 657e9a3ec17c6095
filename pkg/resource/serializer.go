package resource

import (
	"encoding/json"
	"fmt"
)

// Row is one stored record keyed by column name. Values are nil, float64 or string.
type Row map[string]any

// ToResponse projects a stored row onto the response object of its contract,
// decoding embedded fields. Columns outside the contract are dropped.
func ToResponse(c *Contract, row Row) map[string]any {
	if row == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(c.Fields)+3)
	out[ColumnID] = row[ColumnID]
	out[ColumnType] = row[ColumnType]

	for _, f := range c.Fields {
		v := row[f.Name]
		if f.Embedded() {
			raw, _ := v.(string)
			out[f.Name] = DecodeEmbedded(raw, f)
			continue
		}
		out[f.Name] = v
	}

	if c.CreatedAt {
		out[ColumnCreatedAt] = row[ColumnCreatedAt]
	}
	return out
}

// DecodeEmbedded decodes stored JSON text for an embedded field. Malformed,
// empty or mistyped text yields the field's empty value so rows written under
// an older layout stay readable.
func DecodeEmbedded(raw string, f Field) any {
	if raw == "" {
		return f.EmptyValue()
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return f.EmptyValue()
	}

	switch f.Type {
	case TypeArray:
		if list, ok := v.([]any); ok {
			return list
		}
	case TypeObject:
		if obj, ok := v.(map[string]any); ok {
			return obj
		}
	}
	return f.EmptyValue()
}

// EncodeEmbedded serializes an embedded value to text. A nil value encodes as
// the field's empty value.
func EncodeEmbedded(v any, f Field) (string, error) {
	if v == nil {
		v = f.EmptyValue()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", f.Name, err)
	}
	return string(b), nil
}

// StorageValue converts a payload value into the value bound to its column.
func StorageValue(f Field, v any) (any, error) {
	if f.Embedded() {
		return EncodeEmbedded(v, f)
	}
	return v, nil
}
