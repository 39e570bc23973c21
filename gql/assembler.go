package gql

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/ichaly/ideabase/gql/metadata"
	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/gql/renderer"
	"github.com/ichaly/ideabase/gql/types"
	"github.com/ichaly/ideabase/log"
)

// Operation 绑定到生成类型的操作
type Operation struct {
	Kind   OperationKind
	Name   string
	Entry  *metadata.Entry
	Input  *types.Descriptor
	Output *types.Descriptor
}

// Root 操作所在的根类型
func (my *Operation) Root() string {
	return lo.Ternary(my.Kind.IsMutation(), ROOT_MUTATION, ROOT_QUERY)
}

// Schema 一次生成过程的产物,组装完成后只读
type Schema struct {
	Registry  *types.Registry
	Queries   []*Operation
	Mutations []*Operation
	Entries   []*metadata.Entry
	SDL       string
	AST       *ast.Schema

	index map[string]*Operation
}

// Operation 按根类型与字段名查找操作
func (my *Schema) Operation(root, name string) (*Operation, bool) {
	op, ok := my.index[root+"."+name]
	return op, ok
}

// OperationNames 操作名推导规则
func OperationNames(entity string) map[OperationKind]string {
	name := types.EntityName(entity)
	return map[OperationKind]string{
		OP_LIST:   "list" + name,
		OP_GET:    "get" + name + "ById",
		OP_CREATE: "create" + name,
		OP_UPDATE: "update" + name,
		OP_DELETE: "delete" + name,
	}
}

// Assemble 为每个实体生成深度0的类型与五个操作,合并为查询根与变更根
// 任意生成错误都不会产出可服务的schema
func Assemble(entries []*metadata.Entry, limit int) (*Schema, error) {
	if limit <= 0 {
		limit = DEFAULT_LIMIT
	}
	gen := types.NewGenerator(entries)
	s := &Schema{Registry: gen.Registry(), Entries: entries, index: map[string]*Operation{}}
	owners := map[string]string{
		ROOT_QUERY + "." + FIELD_HEALTH_CHECK:    "builtin",
		ROOT_MUTATION + "." + FIELD_HEALTH_CHECK: "builtin",
	}

	for _, e := range entries {
		output, err := gen.Generate(e.Entity, types.KIND_OUTPUT, 0, e.Config)
		if err != nil {
			return nil, fmt.Errorf("生成 %s 输出类型失败: %w", e.Entity.Name, err)
		}
		input, err := gen.Generate(e.Entity, types.KIND_INPUT, 0, e.Config)
		if err != nil {
			return nil, fmt.Errorf("生成 %s 输入类型失败: %w", e.Entity.Name, err)
		}
		update, err := gen.Generate(e.Entity, types.KIND_UPDATE, 0, e.Config)
		if err != nil {
			return nil, fmt.Errorf("生成 %s 更新类型失败: %w", e.Entity.Name, err)
		}

		names := OperationNames(e.Entity.Name)
		for _, kind := range []OperationKind{OP_LIST, OP_GET, OP_CREATE, OP_UPDATE, OP_DELETE} {
			op := &Operation{Kind: kind, Name: names[kind], Entry: e, Output: output}
			switch kind {
			case OP_CREATE:
				op.Input = input
			case OP_UPDATE:
				op.Input = update
			}
			key := op.Root() + "." + op.Name
			if prev, ok := owners[key]; ok {
				err := &protocol.NameCollisionError{Name: op.Name, First: prev, Second: e.Grouping + "." + e.Entity.Name}
				log.Error().Err(err).Str("operation", op.Name).Msg("操作名冲突")
				return nil, err
			}
			owners[key] = e.Grouping + "." + e.Entity.Name
			s.index[key] = op
			if kind.IsMutation() {
				s.Mutations = append(s.Mutations, op)
			} else {
				s.Queries = append(s.Queries, op)
			}
		}
		log.Debug().Str("entity", e.Entity.Name).Str("grouping", e.Grouping).Msg("实体已组装")
	}

	sdl, err := renderer.Render(s.Registry, s.roots(limit)...)
	if err != nil {
		return nil, fmt.Errorf("渲染schema失败: %w", err)
	}
	doc, gerr := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
	if gerr != nil {
		return nil, protocol.NewConfigError("schema.graphql", "生成的schema无效", gerr)
	}
	s.SDL, s.AST = sdl, doc
	s.Registry.Freeze()

	log.Info().Int("entities", len(entries)).Int("types", s.Registry.Len()).
		Int("queries", len(s.Queries)).Int("mutations", len(s.Mutations)).Msg("schema已组装")
	return s, nil
}

func (my *Schema) roots(limit int) []renderer.Root {
	health := renderer.Operation{Name: FIELD_HEALTH_CHECK, Type: renderer.Type{Name: types.SCALAR_STRING, IsNonNull: true}}
	query := renderer.Root{Name: ROOT_QUERY, Operations: []renderer.Operation{health}}
	mutation := renderer.Root{Name: ROOT_MUTATION}
	if len(my.Mutations) == 0 {
		// 空schema的变更根只保留占位字段
		mutation.Operations = append(mutation.Operations, renderer.Operation{
			Name: FIELD_NOOP, Type: renderer.Type{Name: types.SCALAR_BOOLEAN, IsNonNull: true},
		})
	} else {
		mutation.Operations = append(mutation.Operations, health)
	}

	idArg := renderer.Argument{Name: ARG_ID, Type: types.SCALAR_ID + "!"}
	for _, op := range append(append([]*Operation{}, my.Queries...), my.Mutations...) {
		output := op.Output.Name
		item := renderer.Operation{Name: op.Name, Comment: op.Output.Description}
		switch op.Kind {
		case OP_LIST:
			item.Args = []renderer.Argument{{Name: ARG_LIMIT, Type: types.SCALAR_INT, Default: fmt.Sprint(limit)}}
			item.Type = renderer.Type{Name: output, IsList: true, ListItemNonNull: true, IsNonNull: true}
		case OP_GET:
			item.Args = []renderer.Argument{idArg}
			item.Type = renderer.Type{Name: output}
		case OP_CREATE, OP_UPDATE:
			item.Args = []renderer.Argument{{Name: ARG_INPUT, Type: op.Input.Name + "!"}}
			item.Type = renderer.Type{Name: output, IsNonNull: true}
		case OP_DELETE:
			item.Args = []renderer.Argument{idArg}
			item.Type = renderer.Type{Name: types.SCALAR_BOOLEAN, IsNonNull: true}
		}
		if op.Kind.IsMutation() {
			mutation.Operations = append(mutation.Operations, item)
		} else {
			query.Operations = append(query.Operations, item)
		}
	}
	return []renderer.Root{query, mutation}
}
