package gql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ichaly/ideabase/gql/config"
	"github.com/ichaly/ideabase/gql/metadata"
	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/gql/store/memory"
	"github.com/ichaly/ideabase/std"
)

func entry(t *testing.T, e *protocol.Entity, raw map[string]any) *metadata.Entry {
	m, err := config.Decode(e.Name, raw)
	require.NoError(t, err)
	return &metadata.Entry{Grouping: "demo", Entity: e, Config: m}
}

func company() *protocol.Entity {
	return &protocol.Entity{Name: "Company", Fields: []*protocol.Field{
		{Name: "id", Kind: protocol.KIND_IDENTIFIER},
		{Name: "name", Kind: protocol.KIND_TEXT},
		{Name: "city", Kind: protocol.KIND_TEXT, Nullable: true},
	}}
}

func post() *protocol.Entity {
	return &protocol.Entity{Name: "Post", Fields: []*protocol.Field{
		{Name: "id", Kind: protocol.KIND_IDENTIFIER},
		{Name: "title", Kind: protocol.KIND_TEXT},
		{Name: "status", Kind: protocol.KIND_TEXT, Choices: []protocol.Choice{{Value: "active", Label: "启用"}, {Value: "inactive", Label: "停用"}}},
		{Name: "views", Kind: protocol.KIND_INTEGER, Nullable: true},
		{Name: "publishedOn", Kind: protocol.KIND_DATE, Nullable: true},
		{Name: "createdAt", Kind: protocol.KIND_TIMESTAMP, Nullable: true},
	}}
}

func person() *protocol.Entity {
	return &protocol.Entity{Name: "Person", Fields: []*protocol.Field{
		{Name: "id", Kind: protocol.KIND_IDENTIFIER},
		{Name: "name", Kind: protocol.KIND_TEXT},
		{Name: "age", Kind: protocol.KIND_INTEGER, Nullable: true},
	}}
}

func user() *protocol.Entity {
	return &protocol.Entity{
		Name: "User",
		Fields: []*protocol.Field{
			{Name: "id", Kind: protocol.KIND_IDENTIFIER},
			{Name: "name", Kind: protocol.KIND_TEXT},
			{Name: "email", Kind: protocol.KIND_TEXT, Nullable: true},
		},
		Relationships: []*protocol.Relationship{
			{Name: "articles", Target: "Article", Cardinality: protocol.MULTI, Direction: protocol.REVERSE, Nullable: true, Inverse: "author"},
		},
	}
}

func article() *protocol.Entity {
	return &protocol.Entity{
		Name: "Article",
		Fields: []*protocol.Field{
			{Name: "id", Kind: protocol.KIND_IDENTIFIER},
			{Name: "title", Kind: protocol.KIND_TEXT},
		},
		Relationships: []*protocol.Relationship{
			{Name: "author", Target: "User", Cardinality: protocol.SINGLE, Direction: protocol.FORWARD},
			{Name: "editor", Target: "User", Cardinality: protocol.SINGLE, Direction: protocol.FORWARD, Nullable: true},
		},
	}
}

// blog 文章的作者支持嵌套创建与关联,编辑只接受主键
func blog(t *testing.T) []*metadata.Entry {
	return []*metadata.Entry{
		entry(t, user(), map[string]any{"relationships": map[string]any{
			"articles": map[string]any{"include": true},
		}}),
		entry(t, article(), map[string]any{"relationships": map[string]any{
			"author": map[string]any{"include": true, "nested": true, "nested_creation": true, "nested_updates": true},
			"editor": map[string]any{"include": true},
		}}),
	}
}

type fixture struct {
	schema   *Schema
	store    *memory.Store
	executor *Executor
}

func setup(t *testing.T, entries ...*metadata.Entry) *fixture {
	s, err := Assemble(entries, 0)
	require.NoError(t, err)
	v, err := std.NewValidator()
	require.NoError(t, err)
	store := memory.New()
	return &fixture{schema: s, store: store, executor: NewExecutor(s, store, v, 0)}
}

func (my *fixture) run(t *testing.T, root, name string, args map[string]any) (any, error) {
	op, ok := my.schema.Operation(root, name)
	require.True(t, ok, "缺少操作 %s.%s", root, name)
	return my.executor.Execute(context.Background(), op, args)
}

func (my *fixture) seed(t *testing.T, e *protocol.Entity, rec protocol.Record) protocol.Record {
	out, err := my.store.Create(context.Background(), e, rec)
	require.NoError(t, err)
	return out
}

func (my *fixture) dispatcher() *Dispatcher {
	return NewDispatcher(my.schema, my.executor)
}
