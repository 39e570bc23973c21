package intro

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/ichaly/ideabase/utl"
)

const (
	KIND_NON_NULL = "NON_NULL"
	KIND_LIST     = "LIST"
)

const (
	FIELD_SCHEMA   = "__schema"
	FIELD_TYPE     = "__type"
	FIELD_TYPENAME = "__typename"
)

// Handler 基于 ast.Schema 生成内省结果,结果为普通 map,由调用方按选择集裁剪
type Handler struct {
	schema *ast.Schema
}

// New 创建内省处理器
func New(schema *ast.Schema) *Handler {
	return &Handler{schema: schema}
}

// Is 是否为内省字段
func Is(name string) bool {
	return name == FIELD_SCHEMA || name == FIELD_TYPE
}

// Resolve 解析顶层内省字段
func (my *Handler) Resolve(field string, args map[string]any) any {
	switch field {
	case FIELD_SCHEMA:
		return my.Schema()
	case FIELD_TYPE:
		name, _ := args["name"].(string)
		return my.Type(name)
	}
	return nil
}

// Schema 返回 __schema
func (my *Handler) Schema() map[string]any {
	result := map[string]any{
		"description":      nil,
		"queryType":        my.named(my.schema.Query),
		"mutationType":     my.named(my.schema.Mutation),
		"subscriptionType": my.named(my.schema.Subscription),
	}

	names := utl.SortKeys(my.schema.Types)
	types := make([]any, 0, len(names))
	for _, name := range names {
		types = append(types, my.fullType(my.schema.Types[name]))
	}
	result["types"] = types

	directives := make([]any, 0, len(my.schema.Directives))
	for _, name := range utl.SortKeys(my.schema.Directives) {
		directives = append(directives, my.directive(my.schema.Directives[name]))
	}
	result["directives"] = directives
	return result
}

// Type 返回 __type(name:),类型不存在时返回 nil
func (my *Handler) Type(name string) any {
	def := my.schema.Types[name]
	if def == nil {
		return nil
	}
	return my.fullType(def)
}

func (my *Handler) named(def *ast.Definition) any {
	if def == nil {
		return nil
	}
	return map[string]any{"name": def.Name, "kind": string(def.Kind)}
}

func (my *Handler) fullType(def *ast.Definition) map[string]any {
	result := map[string]any{
		"kind":           string(def.Kind),
		"name":           def.Name,
		"description":    nullable(def.Description),
		"specifiedByURL": nil,
		"fields":         nil,
		"inputFields":    nil,
		"interfaces":     nil,
		"enumValues":     nil,
		"possibleTypes":  nil,
	}

	switch def.Kind {
	case ast.Object, ast.Interface:
		fields := make([]any, 0, len(def.Fields))
		for _, f := range def.Fields {
			if !strings.HasPrefix(f.Name, "__") {
				fields = append(fields, my.field(f))
			}
		}
		result["fields"] = fields
		interfaces := make([]any, 0, len(def.Interfaces))
		for _, iface := range def.Interfaces {
			interfaces = append(interfaces, my.typeRef(&ast.Type{NamedType: iface}))
		}
		result["interfaces"] = interfaces
	case ast.InputObject:
		inputs := make([]any, 0, len(def.Fields))
		for _, f := range def.Fields {
			inputs = append(inputs, my.inputValue(f.Name, f.Description, f.Type, f.DefaultValue))
		}
		result["inputFields"] = inputs
	case ast.Enum:
		values := make([]any, 0, len(def.EnumValues))
		for _, v := range def.EnumValues {
			isDeprecated, reason := deprecation(v.Directives)
			values = append(values, map[string]any{
				"name":              v.Name,
				"description":       nullable(v.Description),
				"isDeprecated":      isDeprecated,
				"deprecationReason": reason,
			})
		}
		result["enumValues"] = values
	}

	if def.Kind == ast.Interface || def.Kind == ast.Union {
		possible := make([]any, 0)
		for _, impl := range my.schema.GetPossibleTypes(def) {
			possible = append(possible, my.typeRef(&ast.Type{NamedType: impl.Name}))
		}
		result["possibleTypes"] = possible
	}
	return result
}

func (my *Handler) field(f *ast.FieldDefinition) map[string]any {
	args := make([]any, 0, len(f.Arguments))
	for _, a := range f.Arguments {
		args = append(args, my.inputValue(a.Name, a.Description, a.Type, a.DefaultValue))
	}
	isDeprecated, reason := deprecation(f.Directives)
	return map[string]any{
		"name":              f.Name,
		"description":       nullable(f.Description),
		"args":              args,
		"type":              my.typeRef(f.Type),
		"isDeprecated":      isDeprecated,
		"deprecationReason": reason,
	}
}

func (my *Handler) inputValue(name, description string, t *ast.Type, value *ast.Value) map[string]any {
	result := map[string]any{
		"name":         name,
		"description":  nullable(description),
		"type":         my.typeRef(t),
		"defaultValue": nil,
	}
	if value != nil {
		result["defaultValue"] = value.String()
	}
	return result
}

func (my *Handler) typeRef(t *ast.Type) map[string]any {
	if t.NonNull {
		return map[string]any{
			"kind":   KIND_NON_NULL,
			"name":   nil,
			"ofType": my.typeRef(&ast.Type{NamedType: t.NamedType, Elem: t.Elem}),
		}
	}
	if t.Elem != nil {
		return map[string]any{"kind": KIND_LIST, "name": nil, "ofType": my.typeRef(t.Elem)}
	}
	kind := string(ast.Scalar)
	if def := my.schema.Types[t.NamedType]; def != nil {
		kind = string(def.Kind)
	}
	return map[string]any{"kind": kind, "name": t.NamedType, "ofType": nil}
}

func (my *Handler) directive(d *ast.DirectiveDefinition) map[string]any {
	locations := make([]any, 0, len(d.Locations))
	for _, loc := range d.Locations {
		locations = append(locations, string(loc))
	}
	args := make([]any, 0, len(d.Arguments))
	for _, a := range d.Arguments {
		args = append(args, my.inputValue(a.Name, a.Description, a.Type, a.DefaultValue))
	}
	return map[string]any{
		"name":         d.Name,
		"description":  nullable(d.Description),
		"locations":    locations,
		"args":         args,
		"isRepeatable": d.IsRepeatable,
	}
}

func deprecation(list ast.DirectiveList) (bool, any) {
	d := list.ForName("deprecated")
	if d == nil {
		return false, nil
	}
	if reason := d.Arguments.ForName("reason"); reason != nil && reason.Value != nil && reason.Value.Raw != "" {
		return true, reason.Value.Raw
	}
	return true, "No longer supported"
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
