// Package apidocs derives an OpenAPI 3 document from the resource registry.
package apidocs

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/getmockd/bankmock/internal/id"
	"github.com/getmockd/bankmock/pkg/resource"
)

// Option configures Build.
type Option func(*options)

type options struct {
	maxPageSize int
}

// WithMaxPageSize sets the advertised page_size maximum. Values below one
// keep the default.
func WithMaxPageSize(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.maxPageSize = n
		}
	}
}

// Build returns the API document for every registered contract.
func Build(version string, opts ...Option) *openapi3.T {
	o := options{maxPageSize: resource.MaxPageSize}
	for _, opt := range opts {
		opt(&o)
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Bank mock API",
			Description: "Mock of open banking account, payment, consent and document APIs.",
			Version:     version,
		},
		Paths: openapi3.NewPaths(),
	}

	for _, c := range resource.All() {
		addContract(doc, c, o)
	}
	return doc
}

// Validate builds the document and checks it against the OpenAPI rules.
func Validate(ctx context.Context, version string, opts ...Option) error {
	if err := Build(version, opts...).Validate(ctx); err != nil {
		return fmt.Errorf("openapi document: %w", err)
	}
	return nil
}

func addContract(doc *openapi3.T, c *resource.Contract, o options) {
	record := recordSchema(c)

	collection := &openapi3.PathItem{}
	list := operation(c, "list", "List "+strings.ToLower(c.Title))
	list.AddParameter(openapi3.NewQueryParameter("page").WithSchema(openapi3.NewIntegerSchema().WithMin(1)))
	list.AddParameter(openapi3.NewQueryParameter("page_size").
		WithSchema(openapi3.NewIntegerSchema().WithMin(1).WithMax(float64(o.maxPageSize))))
	for _, f := range c.Fields {
		if f.Filterable {
			list.AddParameter(openapi3.NewQueryParameter(f.Name).WithSchema(openapi3.NewStringSchema()))
		}
	}
	list.AddResponse(http.StatusOK, jsonResponse("A page of records", pageSchema(record)))
	list.AddResponse(http.StatusBadRequest, errorResponse("Invalid pagination parameters"))
	collection.Get = list

	if c.Allows(resource.OpCreate) {
		create := operation(c, "create", "Create a record")
		create.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithJSONSchema(payloadSchema(c, resource.ModeCreate))}
		create.AddResponse(http.StatusCreated, jsonResponse("The created record", record))
		create.AddResponse(http.StatusBadRequest, errorResponse("Validation error"))
		collection.Post = create
	}
	doc.Paths.Set(c.BasePath, collection)

	item := &openapi3.PathItem{
		Parameters: openapi3.Parameters{
			{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema().WithPattern(id.Pattern))},
		},
	}

	get := operation(c, "get", "Get a record")
	get.AddResponse(http.StatusOK, jsonResponse("The record", record))
	get.AddResponse(http.StatusNotFound, errorResponse("Not found"))
	item.Get = get

	if c.Allows(resource.OpUpdate) {
		update := operation(c, "update", fmt.Sprintf("Update a record (%s)", c.UpdateMode))
		update.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithJSONSchema(payloadSchema(c, resource.ModeUpdate))}
		update.AddResponse(http.StatusOK, jsonResponse("The updated record", record))
		update.AddResponse(http.StatusBadRequest, errorResponse("Validation error"))
		update.AddResponse(http.StatusNotFound, errorResponse("Not found"))
		item.Put = update
	}

	if c.Allows(resource.OpDelete) {
		del := operation(c, "delete", "Delete a record")
		del.AddResponse(http.StatusNoContent, openapi3.NewResponse().WithDescription("Deleted"))
		del.AddResponse(http.StatusNotFound, errorResponse("Not found"))
		item.Delete = del
	}
	doc.Paths.Set(c.BasePath+"{id}", item)
}

func operation(c *resource.Contract, verb, summary string) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = fmt.Sprintf("%s_%s", verb, c.Kind)
	op.Summary = summary
	op.Tags = []string{string(c.Kind)}
	return op
}

func jsonResponse(description string, schema *openapi3.Schema) *openapi3.Response {
	return openapi3.NewResponse().WithDescription(description).WithJSONSchema(schema)
}

func errorResponse(description string) *openapi3.Response {
	envelope := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("message", openapi3.NewStringSchema())
	envelope.Required = []string{"error"}
	return jsonResponse(description, envelope)
}

func fieldSchema(f resource.Field) *openapi3.Schema {
	var s *openapi3.Schema
	switch f.Type {
	case resource.TypeNumber:
		s = openapi3.NewFloat64Schema()
		if f.Minimum != nil {
			s.WithMin(*f.Minimum)
		}
	case resource.TypeArray:
		items := openapi3.NewStringSchema()
		if f.Items == resource.TypeNumber {
			items = openapi3.NewFloat64Schema()
		}
		s = openapi3.NewArraySchema().WithItems(items)
	case resource.TypeObject:
		s = openapi3.NewObjectSchema()
	default:
		s = openapi3.NewStringSchema()
		if f.Pattern != "" {
			s.WithPattern(f.Pattern)
		}
		if f.MaxLength > 0 {
			s.WithMaxLength(int64(f.MaxLength))
		}
	}

	if len(f.Enum) > 0 {
		values := make([]any, len(f.Enum))
		for i, v := range f.Enum {
			values[i] = v
		}
		s.WithEnum(values...)
	}
	return s
}

func payloadSchema(c *resource.Contract, mode resource.Mode) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	for _, f := range c.AcceptedFields(mode) {
		s.WithProperty(f.Name, fieldSchema(f))
		switch {
		case mode == resource.ModeCreate && f.Required:
			s.Required = append(s.Required, f.Name)
		case mode == resource.ModeUpdate && c.UpdateMode == resource.FullReplace:
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

func recordSchema(c *resource.Contract) *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty(resource.ColumnID, openapi3.NewStringSchema().WithPattern(id.Pattern)).
		WithProperty(resource.ColumnType, openapi3.NewStringSchema().WithEnum(c.Type))
	for _, f := range c.Fields {
		fs := fieldSchema(f)
		if !f.Required && !f.Embedded() && f.Default == nil {
			fs.Nullable = true
		}
		s.WithProperty(f.Name, fs)
	}
	if c.CreatedAt {
		s.WithProperty(resource.ColumnCreatedAt, openapi3.NewDateTimeSchema())
	}
	s.Required = []string{resource.ColumnID, resource.ColumnType}
	return s
}

func pageSchema(record *openapi3.Schema) *openapi3.Schema {
	next := openapi3.NewStringSchema()
	next.Nullable = true

	pagination := openapi3.NewObjectSchema().
		WithProperty("page", openapi3.NewIntegerSchema()).
		WithProperty("page_size", openapi3.NewIntegerSchema()).
		WithProperty("next_page", next)
	pagination.Required = []string{"page", "page_size", "next_page"}

	s := openapi3.NewObjectSchema().
		WithProperty("items", openapi3.NewArraySchema().WithItems(record)).
		WithProperty("pagination", pagination)
	s.Required = []string{"items", "pagination"}
	return s
}
