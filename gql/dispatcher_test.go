package gql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/std"
)

func data(t *testing.T, r *std.Result) map[string]any {
	require.Empty(t, r.Errors)
	out, ok := r.Data.(map[string]any)
	require.True(t, ok, "data 必须是对象")
	return out
}

func TestDispatchQuery(t *testing.T) {
	f := setup(t, entry(t, post(), nil))
	f.seed(t, post(), protocol.Record{"id": "p1", "title": "first", "status": "active", "views": 3})
	d := f.dispatcher()
	ctx := context.Background()

	t.Run("内置字段", func(t *testing.T) {
		out := data(t, d.Do(ctx, Request{Query: "{ healthCheck __typename }"}))
		assert.Equal(t, HEALTH_OK, out["healthCheck"])
		assert.Equal(t, ROOT_QUERY, out["__typename"])
	})

	t.Run("按选择集裁剪与别名", func(t *testing.T) {
		out := data(t, d.Do(ctx, Request{Query: `{ posts: listPost { name: title __typename } }`}))
		posts := out["posts"].([]any)
		require.Len(t, posts, 1)
		assert.Equal(t, map[string]any{"name": "first", "__typename": "PostOutput"}, posts[0])
	})

	t.Run("片段与指令", func(t *testing.T) {
		query := `query Q($skip: Boolean!) {
			getPostById(id: "p1") { ...basic ... on PostOutput { status } views @skip(if: $skip) }
		}
		fragment basic on PostOutput { id title }`
		out := data(t, d.Do(ctx, Request{Query: query, Variables: map[string]any{"skip": true}}))
		assert.Equal(t, map[string]any{"id": "p1", "title": "first", "status": "active"}, out["getPostById"])
	})

	t.Run("记录不存在返回null", func(t *testing.T) {
		out := data(t, d.Do(ctx, Request{Query: `{ getPostById(id: "zz") { id } }`}))
		assert.Contains(t, out, "getPostById")
		assert.Nil(t, out["getPostById"])
	})

	t.Run("内省", func(t *testing.T) {
		out := data(t, d.Do(ctx, Request{Query: `{ __schema { queryType { name } } __type(name: "PostStatusEnum") { kind enumValues { name } } }`}))
		assert.Equal(t, map[string]any{"queryType": map[string]any{"name": ROOT_QUERY}}, out["__schema"])
		enum := out["__type"].(map[string]any)
		assert.Equal(t, "ENUM", enum["kind"])
		assert.Len(t, enum["enumValues"], 2)
	})

	t.Run("查询校验失败", func(t *testing.T) {
		r := d.Do(ctx, Request{Query: "{ nope }"})
		assert.Nil(t, r.Data)
		require.NotEmpty(t, r.Errors)
		assert.Equal(t, CODE_GRAPHQL_PARSE, r.Errors[0].Extensions["code"])
		assert.NotEmpty(t, r.Errors[0].Locations)
	})

	t.Run("多个操作需指定名称", func(t *testing.T) {
		r := d.Do(ctx, Request{Query: "query A { healthCheck } query B { healthCheck }"})
		require.Len(t, r.Errors, 1)
		assert.Equal(t, CODE_BAD_REQUEST, r.Errors[0].Extensions["code"])

		out := data(t, d.Do(ctx, Request{Query: "query A { healthCheck } query B { b: healthCheck }", OperationName: "B"}))
		assert.Equal(t, map[string]any{"b": HEALTH_OK}, out)
	})

	t.Run("变量类型错误", func(t *testing.T) {
		r := d.Do(ctx, Request{Query: `query($id: ID!) { getPostById(id: $id) { id } }`})
		require.NotEmpty(t, r.Errors)
		assert.Nil(t, r.Data)
	})
}

func TestDispatchMutation(t *testing.T) {
	f := setup(t, entry(t, post(), nil))
	d := f.dispatcher()
	ctx := context.Background()

	t.Run("变量输入", func(t *testing.T) {
		r := d.Do(ctx, Request{
			Query:     `mutation Create($in: PostInput!) { created: createPost(input: $in) { id title status } }`,
			Variables: map[string]any{"in": map[string]any{"title": "T", "status": "active"}},
		})
		created := data(t, r)["created"].(map[string]any)
		assert.NotEmpty(t, created["id"])
		assert.Equal(t, "T", created["title"])
		assert.Equal(t, "active", created["status"])
		assert.NotContains(t, created, "views")
	})

	t.Run("根字段错误不影响其余字段", func(t *testing.T) {
		r := d.Do(ctx, Request{Query: `mutation {
			updatePost(input: {id: "zz", title: "x"}) { id }
			removed: deletePost(id: "zz")
			healthCheck
		}`})
		out, ok := r.Data.(map[string]any)
		require.True(t, ok)
		assert.Nil(t, out["updatePost"])
		assert.Equal(t, false, out["removed"])
		assert.Equal(t, HEALTH_OK, out["healthCheck"])

		require.Len(t, r.Errors, 1)
		ex := r.Errors[0]
		assert.Equal(t, []any{"updatePost"}, ex.Path)
		assert.Equal(t, protocol.CODE_NOT_FOUND, ex.Extensions["code"])
		assert.Equal(t, 404, ex.StatusCode())
		require.Len(t, ex.Locations, 1)
		assert.Equal(t, 2, ex.Locations[0].Line)
	})

	t.Run("校验错误携带字段明细", func(t *testing.T) {
		r := d.Do(ctx, Request{Query: `mutation { createPost(input: {title: "T", status: active, views: 1, publishedOn: "2024-13-01"}) { id } }`})
		require.Len(t, r.Errors, 1)
		assert.Equal(t, protocol.CODE_VALIDATION, r.Errors[0].Extensions["code"])
		assert.NotEmpty(t, r.Errors[0].Extensions["fields"])
	})
}

func TestDispatchEmptySchema(t *testing.T) {
	f := setup(t)
	out := data(t, f.dispatcher().Do(context.Background(), Request{Query: "mutation { noop }"}))
	assert.Equal(t, true, out["noop"])
}
