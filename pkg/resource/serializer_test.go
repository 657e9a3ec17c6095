package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded_RoundTrip(t *testing.T) {
	perms, _ := Lookup(KindConsentPE).Field("permissions")
	terms, _ := Lookup(KindProductAgreement).Field("terms")

	raw, err := EncodeEmbedded([]any{"accounts:read", "payments:write"}, perms)
	require.NoError(t, err)
	assert.Equal(t, []any{"accounts:read", "payments:write"}, DecodeEmbedded(raw, perms))

	nested := map[string]any{"rate": 7.5, "schedule": []any{"2026-01", "2026-02"}, "meta": map[string]any{"grace": true}}
	raw, err = EncodeEmbedded(nested, terms)
	require.NoError(t, err)
	assert.Equal(t, nested, DecodeEmbedded(raw, terms))

	raw, err = EncodeEmbedded(nil, perms)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestDecodeEmbedded_Fallbacks(t *testing.T) {
	perms, _ := Lookup(KindConsentPE).Field("permissions")
	terms, _ := Lookup(KindProductAgreement).Field("terms")

	tests := []struct {
		name  string
		raw   string
		field Field
		want  any
	}{
		{"empty list", "", perms, []any{}},
		{"malformed list", "[\"a\",", perms, []any{}},
		{"legacy comma text", "read,write", perms, []any{}},
		{"object stored in list field", `{"a":1}`, perms, []any{}},
		{"empty object", "", terms, map[string]any{}},
		{"malformed object", "{oops", terms, map[string]any{}},
		{"list stored in object field", `[1,2]`, terms, map[string]any{}},
		{"json null", "null", terms, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeEmbedded(tt.raw, tt.field))
		})
	}
}

func TestToResponse(t *testing.T) {
	c := Lookup(KindConsentPE)
	row := Row{
		"id":          "3f2b8c1e-9a4d-4e6f-8b7a-1c2d3e4f5a6b",
		"type":        TypePhysicalEntity,
		"tpp_id":      "tpp-1",
		"subject":     "client",
		"scope":       nil,
		"permissions": `["read"]`,
		"account_id":  nil,
		"status":      "ACTIVE",
		"created_at":  "2026-01-01T00:00:00Z",
		"owner":       "leaked from another kind",
	}

	got := ToResponse(c, row)
	assert.Equal(t, []any{"read"}, got["permissions"])
	assert.Equal(t, "2026-01-01T00:00:00Z", got["created_at"])
	assert.Contains(t, got, "scope")
	assert.Nil(t, got["scope"])
	assert.NotContains(t, got, "owner")
	assert.Len(t, got, 9)

	noCreated := ToResponse(Lookup(KindVRP), Row{"id": "x", "type": "vrp"})
	assert.NotContains(t, noCreated, "created_at")

	assert.Empty(t, ToResponse(c, nil))
}

func TestStorageValue(t *testing.T) {
	perms, _ := Lookup(KindConsentPE).Field("permissions")
	balance, _ := Lookup(KindPhysicalAccount).Field("balance")

	v, err := StorageValue(perms, []any{"x"})
	require.NoError(t, err)
	assert.Equal(t, `["x"]`, v)

	v, err = StorageValue(balance, 12.5)
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)
}
