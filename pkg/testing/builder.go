package testing

import (
	"encoding/json"
	"fmt"

	"github.com/getmockd/bankmock/pkg/resource"
)

// RecordBuilder builds a fixture record using a fluent API.
type RecordBuilder struct {
	server *MockServer
	kind   resource.Kind
	fields map[string]any
	err    error // First error encountered during building
}

// Record starts a fixture of the given kind.
func (m *MockServer) Record(kind resource.Kind) *RecordBuilder {
	return &RecordBuilder{server: m, kind: kind, fields: make(map[string]any)}
}

// setError records the first error encountered during building.
// Subsequent errors are ignored (first error wins pattern).
func (b *RecordBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *RecordBuilder) Err() error {
	return b.err
}

// With sets one field.
func (b *RecordBuilder) With(field string, value any) *RecordBuilder {
	b.fields[field] = value
	return b
}

// WithFields sets several fields at once.
func (b *RecordBuilder) WithFields(fields map[string]any) *RecordBuilder {
	for k, v := range fields {
		b.fields[k] = v
	}
	return b
}

// WithJSON merges the fields of a JSON object, given as a string, []byte or
// any value that encodes to an object.
func (b *RecordBuilder) WithJSON(body any) *RecordBuilder {
	var raw []byte
	switch v := body.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
			return b
		}
		raw = data
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		b.setError(fmt.Errorf("WithJSON: body is not a JSON object: %w", err))
		return b
	}
	return b.WithFields(fields)
}

// Fields returns the fields collected so far.
func (b *RecordBuilder) Fields() map[string]any {
	return b.fields
}

// Create validates and stores the record as a POST would, failing the test
// on any error. It returns the stored record.
func (b *RecordBuilder) Create() map[string]any {
	b.server.t.Helper()
	return b.finish(true)
}

// Insert stores the record without validation, failing the test on any
// error. Read-only kinds such as transactions can only be populated this way.
func (b *RecordBuilder) Insert() map[string]any {
	b.server.t.Helper()
	return b.finish(false)
}

// TryCreate is Create without failing the test, for asserting on rejections.
func (b *RecordBuilder) TryCreate() (map[string]any, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.server.create(b.kind, b.normalized(), true)
}

func (b *RecordBuilder) finish(validate bool) map[string]any {
	b.server.t.Helper()

	if b.err != nil {
		b.server.t.Fatalf("build %s: %v", b.kind, b.err)
	}
	record, err := b.server.create(b.kind, b.normalized(), validate)
	if err != nil {
		b.server.t.Fatalf("create %s: %v", b.kind, err)
	}
	return record
}

// normalized round-trips the fields through JSON so Go ints and structs are
// seen the way a decoded request body would be.
func (b *RecordBuilder) normalized() map[string]any {
	data, err := json.Marshal(b.fields)
	if err != nil {
		return b.fields
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return b.fields
	}
	return out
}
