package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c := Lookup(KindPhysicalAccount)
	assert.Equal(t, "accounts", c.Table)
	assert.Equal(t, TypePhysicalEntity, c.Type)
	assert.Equal(t, "/accounts-v1.3.3/", c.BasePath)
	assert.Equal(t, "/accounts-v1.3.3/{id}", c.ItemPath())

	assert.Panics(t, func() { Lookup("nope") })
}

func TestAll_FixedOrder(t *testing.T) {
	all := All()
	require.Len(t, all, 12)
	assert.Equal(t, KindPhysicalAccount, all[0].Kind)
	assert.Equal(t, KindProductAgreement, all[len(all)-1].Kind)

	paths := map[string]bool{}
	for _, c := range all {
		assert.False(t, paths[c.BasePath], "duplicate base path %s", c.BasePath)
		paths[c.BasePath] = true
	}
}

func TestContract_Sets(t *testing.T) {
	c := Lookup(KindPayment)

	var updatable []string
	for _, f := range c.UpdatableFields() {
		updatable = append(updatable, f.Name)
	}
	assert.Equal(t, []string{"amount", "currency", "recipient"}, updatable)
	assert.Equal(t, []string{"id", "type", "purpose", "budget_code", "account_id", "status", "created_at"}, c.ImmutableFields())

	assert.True(t, c.Filterable("account_id"))
	assert.False(t, c.Filterable("recipient"))
	assert.False(t, c.Filterable("missing"))

	assert.Equal(t, []string{"permissions"}, Lookup(KindConsentPE).EmbeddedFields())
	assert.Equal(t, []string{"terms"}, Lookup(KindProductAgreement).EmbeddedFields())
	assert.Empty(t, c.EmbeddedFields())
}

func TestContract_Allows(t *testing.T) {
	tx := Lookup(KindTransaction)
	assert.True(t, tx.Allows(OpList))
	assert.True(t, tx.Allows(OpGet))
	assert.False(t, tx.Allows(OpCreate))
	assert.False(t, tx.Allows(OpDelete))

	assert.True(t, Lookup(KindVRP).Allows(OpUpdate))
}

func TestContract_Columns(t *testing.T) {
	assert.Equal(t,
		[]string{"id", "type", "balance", "currency", "owner", "status"},
		Lookup(KindPhysicalAccount).Columns())
	assert.Equal(t,
		[]string{"id", "type", "tpp_id", "subject", "scope", "permissions", "account_id", "status", "created_at"},
		Lookup(KindConsentLE).Columns())
}

func TestTables_UnionOfColumns(t *testing.T) {
	tables := Tables()

	byName := map[string]Table{}
	for _, tbl := range tables {
		byName[tbl.Name] = tbl
	}
	require.Len(t, byName, 9)

	accounts := byName["accounts"]
	var names []string
	for _, col := range accounts.Columns {
		names = append(names, col.Name)
	}
	assert.Equal(t, []string{"id", "type", "balance", "currency", "owner", "status", "company"}, names)
	assert.Equal(t, "TEXT PRIMARY KEY", accounts.Columns[0].SQLType)
	assert.Equal(t, "REAL", accounts.Columns[2].SQLType)
}

func TestRegister_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		c    *Contract
	}{
		{"missing type", &Contract{Kind: "x1", Table: "x", UpdateMode: FullReplace, Operations: ReadOnly}},
		{"bad table", &Contract{Kind: "x2", Type: "x", Table: "x; drop", UpdateMode: FullReplace, Operations: ReadOnly}},
		{"no update mode", &Contract{Kind: "x3", Type: "x", Table: "x", Operations: ReadOnly}},
		{"shadowed column", &Contract{Kind: "x4", Type: "x", Table: "x", UpdateMode: FullReplace, Operations: ReadOnly,
			Fields: []Field{{Name: "id", Type: TypeString}}}},
		{"server field without default", &Contract{Kind: "x5", Type: "x", Table: "x", UpdateMode: FullReplace, Operations: ReadOnly,
			Fields: []Field{{Name: "status", Type: TypeString, Server: true}}}},
		{"unknown order column", &Contract{Kind: "x6", Type: "x", Table: "x", UpdateMode: FullReplace, Operations: ReadOnly,
			OrderBy: []Order{{Column: "date"}}}},
		{"duplicate kind", Lookup(KindVRP)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { Register(tt.c) })
		})
	}
}

func TestField_Helpers(t *testing.T) {
	arr := Field{Name: "p", Type: TypeArray}
	obj := Field{Name: "o", Type: TypeObject}
	num := Field{Name: "n", Type: TypeNumber}

	assert.True(t, arr.Embedded())
	assert.True(t, obj.Embedded())
	assert.False(t, num.Embedded())
	assert.Equal(t, []any{}, arr.EmptyValue())
	assert.Equal(t, map[string]any{}, obj.EmptyValue())
	assert.Nil(t, num.EmptyValue())
	assert.Equal(t, "REAL", num.SQLType())
	assert.Equal(t, "TEXT", arr.SQLType())
	assert.Equal(t, "full_replace", FullReplace.String())
	assert.Equal(t, "partial_fields", PartialFields.String())
}
