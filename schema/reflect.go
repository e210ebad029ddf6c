package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/shipq/cqlc/query"
)

// TagName is the struct tag FromStruct reads column names from.
const TagName = "cql"

// Named is implemented by entity types that choose their own table name.
type Named interface {
	TableName() string
}

// Keyspaced is implemented by entity types that live in a fixed keyspace.
type Keyspaced interface {
	Keyspace() string
}

// FilteringAllowed marks entity types whose selects carry ALLOW FILTERING.
type FilteringAllowed interface {
	FilteringAllowed()
}

// FromStruct derives a table from a struct value or pointer.
//
// Every exported field becomes a column whose member is the field name.
// The column name is the cql tag when present and the snake_case field
// name otherwise; cql:"-" skips the field. Embedded structs are flattened.
func FromStruct(v any) (*Table, error) {
	if v == nil {
		return nil, errors.New("schema: FromStruct(nil)")
	}
	rt := reflect.TypeOf(v)
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s is not a struct", rt)
	}

	t := &Table{Name: tableName(rt.Name())}
	if n, ok := v.(Named); ok {
		t.Name = n.TableName()
	}
	if k, ok := v.(Keyspaced); ok {
		t.Keyspace = k.Keyspace()
	}
	if _, ok := v.(FilteringAllowed); ok {
		t.Filtering = true
	}

	cols, err := structColumns(rt)
	if err != nil {
		return nil, fmt.Errorf("schema: %s: %w", rt, err)
	}
	t.Cols = cols

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("schema: %s: %w", rt, err)
	}
	return t, nil
}

func structColumns(rt reflect.Type) ([]query.Column, error) {
	var cols []query.Column
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get(TagName)
		if tag == "-" {
			continue
		}

		if field.Anonymous && tag == "" {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				embedded, err := structColumns(ft)
				if err != nil {
					return nil, err
				}
				cols = append(cols, embedded...)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = snakeCase(field.Name)
		}
		cols = append(cols, query.Column{Member: field.Name, Name: name})
	}
	return cols, nil
}
