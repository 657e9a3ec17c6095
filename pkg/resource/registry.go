package resource

import (
	"fmt"
	"regexp"
	"sync"
)

// Kind is the registry key of a resource type.
type Kind string

// FieldType is the JSON type a field accepts.
type FieldType string

// Field types.
const (
	TypeNumber FieldType = "number"
	TypeString FieldType = "string"
	TypeObject FieldType = "object"
	TypeArray  FieldType = "array"
)

// UpdateMode governs which fields an update call may change.
type UpdateMode int

const (
	// FullReplace requires every updatable field on each update.
	FullReplace UpdateMode = iota + 1
	// PartialFields updates only the updatable fields present in the payload.
	PartialFields
)

func (m UpdateMode) String() string {
	switch m {
	case FullReplace:
		return "full_replace"
	case PartialFields:
		return "partial_fields"
	default:
		return "unknown"
	}
}

// Operation is one engine operation on a resource type.
type Operation string

// Engine operations.
const (
	OpList   Operation = "list"
	OpCreate Operation = "create"
	OpGet    Operation = "get"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Operation sets used by contracts.
var (
	ReadWrite = []Operation{OpList, OpCreate, OpGet, OpUpdate, OpDelete}
	ReadOnly  = []Operation{OpList, OpGet}
)

// System columns present on every table.
const (
	ColumnID        = "id"
	ColumnType      = "type"
	ColumnCreatedAt = "created_at"
)

// Field declares one resource field and the rules that apply to it.
type Field struct {
	Name string
	Type FieldType
	// Items is the element type of array fields.
	Items FieldType

	Required  bool
	Updatable bool
	// Server fields are assigned from Default and never read from payloads.
	Server  bool
	Default any

	Enum    []string
	Pattern string
	Minimum *float64

	// MaxLength is a rune-count ceiling checked as a domain rule.
	MaxLength int
	// Future requires a date or timestamp strictly after the current time.
	Future bool

	Filterable bool
}

// Embedded reports whether the field is stored as serialized JSON text.
func (f Field) Embedded() bool {
	return f.Type == TypeObject || f.Type == TypeArray
}

// EmptyValue is the value an embedded field decodes to when stored text is unusable.
func (f Field) EmptyValue() any {
	switch f.Type {
	case TypeArray:
		return []any{}
	case TypeObject:
		return map[string]any{}
	default:
		return nil
	}
}

// SQLType is the column type used for the field.
func (f Field) SQLType() string {
	if f.Type == TypeNumber {
		return "REAL"
	}
	return "TEXT"
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Contract is the registry entry of a resource type.
type Contract struct {
	Kind Kind
	// Type is stored in the type column and discriminates kinds sharing a table.
	Type       string
	Table      string
	BasePath   string
	Title      string
	Fields     []Field
	UpdateMode UpdateMode
	OrderBy    []Order
	CreatedAt  bool
	Operations []Operation
}

// Field returns the named field.
func (c *Contract) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns every stored column in select order.
func (c *Contract) Columns() []string {
	cols := make([]string, 0, len(c.Fields)+3)
	cols = append(cols, ColumnID, ColumnType)
	for _, f := range c.Fields {
		cols = append(cols, f.Name)
	}
	if c.CreatedAt {
		cols = append(cols, ColumnCreatedAt)
	}
	return cols
}

// EmbeddedFields returns the names of fields stored as serialized JSON.
func (c *Contract) EmbeddedFields() []string {
	var names []string
	for _, f := range c.Fields {
		if f.Embedded() {
			names = append(names, f.Name)
		}
	}
	return names
}

// UpdatableFields returns the fixed set of fields an update may write.
func (c *Contract) UpdatableFields() []Field {
	var out []Field
	for _, f := range c.Fields {
		if f.Updatable && !f.Server {
			out = append(out, f)
		}
	}
	return out
}

// ImmutableFields returns the names of fields no update may change.
func (c *Contract) ImmutableFields() []string {
	names := []string{ColumnID, ColumnType}
	for _, f := range c.Fields {
		if !f.Updatable || f.Server {
			names = append(names, f.Name)
		}
	}
	if c.CreatedAt {
		names = append(names, ColumnCreatedAt)
	}
	return names
}

// Filterable reports whether list queries may filter on the named field.
func (c *Contract) Filterable(name string) bool {
	f, ok := c.Field(name)
	return ok && f.Filterable
}

// Allows reports whether the operation is defined for this resource type.
func (c *Contract) Allows(op Operation) bool {
	for _, o := range c.Operations {
		if o == op {
			return true
		}
	}
	return false
}

// ItemPath is the route pattern of a single record.
func (c *Contract) ItemPath() string {
	return c.BasePath + "{id}"
}

// Column declares a table column.
type Column struct {
	Name    string
	SQLType string
}

// Table is a storage table with the union of the columns of every contract stored in it.
type Table struct {
	Name    string
	Columns []Column
}

var identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

var (
	registryMu sync.RWMutex
	contracts  = make(map[Kind]*Contract)
	kindOrder  []Kind
)

// Register adds a contract to the registry. It panics on a malformed or
// duplicate entry since contracts are static program data.
func Register(c *Contract) {
	if err := check(c); err != nil {
		panic(fmt.Sprintf("resource: invalid contract %q: %v", c.Kind, err))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := contracts[c.Kind]; exists {
		panic(fmt.Sprintf("resource: contract %q already registered", c.Kind))
	}
	contracts[c.Kind] = c
	kindOrder = append(kindOrder, c.Kind)
}

func check(c *Contract) error {
	if c.Kind == "" || c.Type == "" {
		return fmt.Errorf("kind and type are required")
	}
	if !identRegex.MatchString(c.Table) {
		return fmt.Errorf("table name %q is not a plain identifier", c.Table)
	}
	if c.UpdateMode != FullReplace && c.UpdateMode != PartialFields {
		return fmt.Errorf("update mode must be set")
	}
	if len(c.Operations) == 0 {
		return fmt.Errorf("no operations declared")
	}
	seen := map[string]bool{ColumnID: true, ColumnType: true, ColumnCreatedAt: true}
	for _, f := range c.Fields {
		if !identRegex.MatchString(f.Name) {
			return fmt.Errorf("field name %q is not a plain identifier", f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("field %q declared twice or shadows a system column", f.Name)
		}
		seen[f.Name] = true
		if f.Server && f.Default == nil {
			return fmt.Errorf("server field %q needs a default", f.Name)
		}
	}
	for _, o := range c.OrderBy {
		if !seen[o.Column] {
			return fmt.Errorf("order column %q is not a field", o.Column)
		}
	}
	return nil
}

// Lookup returns the contract of a kind. An unknown kind is a programmer
// error and panics.
func Lookup(kind Kind) *Contract {
	registryMu.RLock()
	defer registryMu.RUnlock()

	c, ok := contracts[kind]
	if !ok {
		panic(fmt.Sprintf("resource: unknown kind %q", kind))
	}
	return c
}

// All returns every registered contract in registration order.
func All() []*Contract {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]*Contract, 0, len(kindOrder))
	for _, k := range kindOrder {
		out = append(out, contracts[k])
	}
	return out
}

// Tables returns the storage tables in first-use order.
// It panics if two contracts declare the same column with different types.
func Tables() []Table {
	var tables []Table
	index := make(map[string]int)
	colTypes := make(map[string]map[string]string)

	for _, c := range All() {
		i, ok := index[c.Table]
		if !ok {
			i = len(tables)
			index[c.Table] = i
			tables = append(tables, Table{
				Name: c.Table,
				Columns: []Column{
					{Name: ColumnID, SQLType: "TEXT PRIMARY KEY"},
					{Name: ColumnType, SQLType: "TEXT NOT NULL"},
				},
			})
			colTypes[c.Table] = map[string]string{ColumnID: "TEXT", ColumnType: "TEXT"}
		}

		add := func(name, sqlType string) {
			if existing, ok := colTypes[c.Table][name]; ok {
				if existing != sqlType && name != ColumnID && name != ColumnType {
					panic(fmt.Sprintf("resource: column %s.%s declared as %s and %s", c.Table, name, existing, sqlType))
				}
				return
			}
			colTypes[c.Table][name] = sqlType
			tables[i].Columns = append(tables[i].Columns, Column{Name: name, SQLType: sqlType})
		}

		for _, f := range c.Fields {
			add(f.Name, f.SQLType())
		}
		if c.CreatedAt {
			add(ColumnCreatedAt, "TEXT")
		}
	}
	return tables
}
