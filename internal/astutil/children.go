package astutil

import (
	"reflect"

	"github.com/VKCOM/php-parser/pkg/ast"
)

var (
	vertexType      = reflect.TypeOf((*ast.Vertex)(nil)).Elem()
	vertexSliceType = reflect.TypeOf([]ast.Vertex(nil))
)

// Children returns the direct child nodes of n. Node structs declare their
// child fields in source order, so the result is in source order too. Nil
// children are skipped.
//
// php-parser only exposes children through its typed visitor methods, so the
// fields are read by reflection: every ast.Vertex and []ast.Vertex field is a
// child.
func Children(n ast.Vertex) []ast.Vertex {
	rv := reflect.ValueOf(n)
	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return nil
	}

	var children []ast.Vertex
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		if !rt.Field(i).IsExported() {
			continue
		}
		field := rv.Field(i)
		switch field.Type() {
		case vertexType:
			if child := vertexOf(field); child != nil {
				children = append(children, child)
			}
		case vertexSliceType:
			for j := 0; j < field.Len(); j++ {
				if child := vertexOf(field.Index(j)); child != nil {
					children = append(children, child)
				}
			}
		}
	}
	return children
}

// vertexOf unwraps an interface value, treating a typed nil pointer as nil.
func vertexOf(v reflect.Value) ast.Vertex {
	if v.IsNil() {
		return nil
	}
	if inner := v.Elem(); inner.Kind() == reflect.Ptr && inner.IsNil() {
		return nil
	}
	return v.Interface().(ast.Vertex)
}
