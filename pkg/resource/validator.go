package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/getmockd/bankmock/internal/id"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Mode selects the field set a payload is validated against.
type Mode int

const (
	// ModeCreate accepts every client-writable field.
	ModeCreate Mode = iota + 1
	// ModeUpdate accepts only the contract's updatable fields.
	ModeUpdate
)

// AcceptedFields returns the fields a payload may carry in the given mode.
func (c *Contract) AcceptedFields(mode Mode) []Field {
	if mode == ModeUpdate {
		return c.UpdatableFields()
	}
	var out []Field
	for _, f := range c.Fields {
		if !f.Server {
			out = append(out, f)
		}
	}
	return out
}

// Project keeps only the payload keys accepted in the given mode. Unknown,
// server-assigned and non-updatable keys are dropped.
func Project(c *Contract, payload map[string]any, mode Mode) map[string]any {
	out := make(map[string]any)
	for _, f := range c.AcceptedFields(mode) {
		if v, ok := payload[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}

// rule is one validation stage. Stages run in declaration order.
type rule int

const (
	ruleRequired rule = iota + 1
	ruleType
	ruleEnum
	rulePattern
	ruleBounds
)

func (r rule) String() string {
	switch r {
	case ruleRequired:
		return "required"
	case ruleType:
		return "type"
	case ruleEnum:
		return "enum"
	case rulePattern:
		return "pattern"
	case ruleBounds:
		return "bounds"
	default:
		return "unknown"
	}
}

type stage struct {
	rule   rule
	schema *jsonschema.Schema
}

// plan is the compiled validation of one contract in one mode.
type plan struct {
	fields   []Field
	required []string
	stages   []stage
}

// Validator checks payloads against registry contracts. Rules run in a fixed
// order and the first violation is returned; errors are never aggregated.
type Validator struct {
	now       func() time.Time
	maxLength map[string]int
	plans     map[Kind]map[Mode]*plan
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithClock sets the time source used by time-bounded rules.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// WithMaxLength overrides the length ceiling of every field with this name.
func WithMaxLength(field string, n int) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.maxLength[field] = n
		}
	}
}

// NewValidator compiles validation plans for every registered contract.
func NewValidator(opts ...ValidatorOption) (*Validator, error) {
	v := &Validator{
		now:       time.Now,
		maxLength: make(map[string]int),
		plans:     make(map[Kind]map[Mode]*plan),
	}
	for _, opt := range opts {
		opt(v)
	}

	for _, c := range All() {
		v.plans[c.Kind] = make(map[Mode]*plan, 2)
		for _, mode := range []Mode{ModeCreate, ModeUpdate} {
			p, err := compilePlan(c, mode)
			if err != nil {
				return nil, fmt.Errorf("compile %s validation: %w", c.Kind, err)
			}
			v.plans[c.Kind][mode] = p
		}
	}
	return v, nil
}

func compilePlan(c *Contract, mode Mode) (*plan, error) {
	p := &plan{fields: c.AcceptedFields(mode)}

	for _, f := range p.fields {
		switch {
		case mode == ModeCreate && f.Required:
			p.required = append(p.required, f.Name)
		case mode == ModeUpdate && c.UpdateMode == FullReplace:
			p.required = append(p.required, f.Name)
		}
	}

	docs := map[rule]map[string]any{}
	if len(p.required) > 0 {
		docs[ruleRequired] = map[string]any{"type": "object", "required": p.required}
	}

	props := map[rule]map[string]any{
		ruleType:    {},
		ruleEnum:    {},
		rulePattern: {},
		ruleBounds:  {},
	}
	for _, f := range p.fields {
		typ := map[string]any{"type": string(f.Type)}
		if f.Type == TypeArray && f.Items != "" {
			typ["items"] = map[string]any{"type": string(f.Items)}
		}
		props[ruleType][f.Name] = typ

		if len(f.Enum) > 0 {
			props[ruleEnum][f.Name] = map[string]any{"enum": f.Enum}
		}
		if f.Pattern != "" {
			props[rulePattern][f.Name] = map[string]any{"pattern": f.Pattern}
		}
		if f.Minimum != nil {
			props[ruleBounds][f.Name] = map[string]any{"minimum": *f.Minimum}
		}
	}
	for r, fields := range props {
		if len(fields) > 0 {
			docs[r] = map[string]any{"type": "object", "properties": fields}
		}
	}

	for _, r := range []rule{ruleRequired, ruleType, ruleEnum, rulePattern, ruleBounds} {
		doc, ok := docs[r]
		if !ok {
			continue
		}
		name := fmt.Sprintf("%s.%d.%s.json", c.Kind, mode, r)
		schema, err := compileSchema(name, doc)
		if err != nil {
			return nil, err
		}
		p.stages = append(p.stages, stage{rule: r, schema: schema})
	}
	return p, nil
}

func compileSchema(name string, doc map[string]any) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}
	if err := compiler.AddResource(name, strings.NewReader(string(b))); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	return compiler.Compile(name)
}

// Validate checks payload against the contract in the given mode and returns
// the first violated rule as a *ValidationError. Keys the mode does not
// accept are ignored.
func (v *Validator) Validate(payload map[string]any, c *Contract, mode Mode) error {
	p, ok := v.plans[c.Kind][mode]
	if !ok {
		return fmt.Errorf("no validation plan for %s", c.Kind)
	}

	doc, err := normalize(Project(c, payload, mode))
	if err != nil {
		return &ValidationError{Message: "Request body is not valid JSON"}
	}

	for _, st := range p.stages {
		err := st.schema.Validate(doc)
		if err == nil {
			continue
		}
		var schemaErr *jsonschema.ValidationError
		if !errors.As(err, &schemaErr) {
			return &ValidationError{Message: err.Error()}
		}
		field := p.failingField(st.rule, schemaErr, doc)
		return v.violation(c, st.rule, field)
	}

	return v.checkDomain(c, p, doc)
}

// checkDomain applies the rules JSON Schema cannot express.
func (v *Validator) checkDomain(c *Contract, p *plan, doc map[string]any) error {
	for _, f := range p.fields {
		raw, present := doc[f.Name]
		if !present {
			continue
		}
		s, isString := raw.(string)
		if !isString {
			continue
		}

		if limit := v.limit(f); limit > 0 && utf8.RuneCountInString(s) > limit {
			return &ValidationError{
				Field:   f.Name,
				Message: fmt.Sprintf("'%s' is too long (maximum %d characters)", f.Name, limit),
			}
		}

		if f.Future {
			t, err := ParseTime(s)
			if err != nil {
				return &ValidationError{Field: f.Name, Message: fmt.Sprintf("'%s' must be an ISO-8601 date", f.Name)}
			}
			if !t.After(v.now()) {
				return &ValidationError{Field: f.Name, Message: fmt.Sprintf("'%s' must be a date in the future", f.Name)}
			}
		}
	}
	return nil
}

func (v *Validator) limit(f Field) int {
	if n, ok := v.maxLength[f.Name]; ok && f.MaxLength > 0 {
		return n
	}
	return f.MaxLength
}

// ValidateID checks a path identifier.
func ValidateID(s string) error {
	if !id.IsValid(s) {
		return &ValidationError{Field: ColumnID, Message: "'id' must be a lowercase UUID"}
	}
	return nil
}

// failingField picks the violated field that comes first in contract order.
func (p *plan) failingField(r rule, err *jsonschema.ValidationError, doc map[string]any) string {
	if r == ruleRequired {
		for _, name := range p.required {
			if _, ok := doc[name]; !ok {
				return name
			}
		}
		return ""
	}

	failed := make(map[string]bool)
	collectFields(err, failed)
	for _, f := range p.fields {
		if failed[f.Name] {
			return f.Name
		}
	}
	return ""
}

func collectFields(err *jsonschema.ValidationError, into map[string]bool) {
	if len(err.Causes) == 0 {
		if name := topField(err.InstanceLocation); name != "" {
			into[name] = true
		}
		return
	}
	for _, cause := range err.Causes {
		collectFields(cause, into)
	}
}

// topField returns the first segment of a JSON pointer.
func topField(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return ""
	}
	seg, _, _ := strings.Cut(pointer, "/")
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}

func (v *Validator) violation(c *Contract, r rule, field string) error {
	f, _ := c.Field(field)

	var msg string
	switch r {
	case ruleRequired:
		msg = fmt.Sprintf("'%s' is a required property", field)
	case ruleType:
		want := string(f.Type)
		if f.Type == TypeArray && f.Items != "" {
			want = fmt.Sprintf("array of %s", f.Items)
		}
		msg = fmt.Sprintf("'%s' must be of type %s", field, want)
	case ruleEnum:
		msg = fmt.Sprintf("'%s' must be one of: %s", field, strings.Join(f.Enum, ", "))
	case rulePattern:
		msg = fmt.Sprintf("'%s' does not match pattern %s", field, f.Pattern)
	case ruleBounds:
		bound := 0.0
		if f.Minimum != nil {
			bound = *f.Minimum
		}
		msg = fmt.Sprintf("'%s' must be greater than or equal to %g", field, bound)
	}

	if field == "" {
		msg = fmt.Sprintf("request body failed %s validation", r)
	}
	return &ValidationError{Field: field, Message: msg}
}

// normalize round-trips the payload through JSON so the schema sees plain
// JSON types regardless of how the caller built the map.
func normalize(payload map[string]any) (map[string]any, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseTime parses the date and timestamp layouts the API accepts.
// Values without a zone are read as UTC.
func ParseTime(s string) (time.Time, error) {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
