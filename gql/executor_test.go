package gql

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ichaly/ideabase/gql/metadata"
	"github.com/ichaly/ideabase/gql/protocol"
)

func validation(t *testing.T, err error) *protocol.ValidationError {
	var verr *protocol.ValidationError
	require.True(t, errors.As(err, &verr), "需要 ValidationError, 实际为 %v", err)
	return verr
}

func TestCreateCompany(t *testing.T) {
	f := setup(t, entry(t, company(), map[string]any{"fields": map[string]any{"include": []any{"id", "name"}}}))

	op, ok := f.schema.Operation(ROOT_QUERY, "listCompany")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name"}, op.Output.FieldNames())

	value, err := f.run(t, ROOT_MUTATION, "createCompany", map[string]any{"input": map[string]any{"name": "Acme"}})
	require.NoError(t, err)
	rec := value.(protocol.Record)
	assert.NotEmpty(t, rec["id"], "创建时分配主键")
	assert.Equal(t, "Acme", rec["name"])
	assert.NotContains(t, rec, "city")

	t.Run("未选中的字段不可写", func(t *testing.T) {
		_, err := f.run(t, ROOT_MUTATION, "createCompany", map[string]any{"input": map[string]any{"name": "A", "city": "B"}})
		assert.True(t, validation(t, err).Has("city", protocol.FIELD_READONLY))
	})

	t.Run("未知字段", func(t *testing.T) {
		_, err := f.run(t, ROOT_MUTATION, "createCompany", map[string]any{"input": map[string]any{"name": "A", "bogus": 1}})
		assert.True(t, validation(t, err).Has("bogus", protocol.FIELD_UNKNOWN))
	})

	t.Run("缺少必填字段", func(t *testing.T) {
		_, err := f.run(t, ROOT_MUTATION, "createCompany", map[string]any{"input": map[string]any{}})
		assert.True(t, validation(t, err).Has("name", protocol.FIELD_REQUIRED))
	})
}

func TestCreatePost(t *testing.T) {
	f := setup(t, entry(t, post(), nil))
	create := func(input map[string]any) (any, error) {
		return f.run(t, ROOT_MUTATION, "createPost", map[string]any{"input": input})
	}

	value, err := create(map[string]any{"title": "T", "status": "active", "publishedOn": "2024-03-01", "createdAt": "2024-03-01T08:00:00Z"})
	require.NoError(t, err)
	rec := value.(protocol.Record)
	assert.Equal(t, "active", rec["status"])
	assert.Equal(t, "2024-03-01", rec["publishedOn"])
	assert.Equal(t, "2024-03-01T08:00:00Z", rec["createdAt"])
	assert.Nil(t, rec["views"])

	t.Run("枚举取值非法", func(t *testing.T) {
		_, err := create(map[string]any{"title": "T", "status": "archived"})
		assert.True(t, validation(t, err).Has("status", protocol.FIELD_ENUM_INVALID))
	})

	t.Run("类型不匹配", func(t *testing.T) {
		_, err := create(map[string]any{"title": "T", "status": "active", "views": "many"})
		assert.True(t, validation(t, err).Has("views", protocol.FIELD_TYPE_MISMATCH))
	})

	t.Run("日期格式", func(t *testing.T) {
		_, err := create(map[string]any{"title": "T", "status": "active", "publishedOn": "2024-02-30"})
		assert.True(t, validation(t, err).Has("publishedOn", protocol.FIELD_TYPE_MISMATCH))
	})

	t.Run("错误一次全部报告", func(t *testing.T) {
		_, err := create(map[string]any{"status": "archived", "views": 1.5})
		verr := validation(t, err)
		assert.True(t, verr.Has("title", protocol.FIELD_REQUIRED))
		assert.True(t, verr.Has("status", protocol.FIELD_ENUM_INVALID))
		assert.True(t, verr.Has("views", protocol.FIELD_TYPE_MISMATCH))
	})

	list, err := f.run(t, ROOT_QUERY, "listPost", map[string]any{})
	require.NoError(t, err)
	assert.Len(t, list, 1, "失败的创建不落库")
}

func TestUpdatePerson(t *testing.T) {
	f := setup(t, entry(t, person(), nil))
	f.seed(t, person(), protocol.Record{"id": "abc", "name": "John", "age": 30})

	value, err := f.run(t, ROOT_MUTATION, "updatePerson", map[string]any{"input": map[string]any{"id": "abc", "name": "Jane"}})
	require.NoError(t, err)
	rec := value.(protocol.Record)
	assert.Equal(t, "abc", rec["id"])
	assert.Equal(t, "Jane", rec["name"])
	assert.EqualValues(t, 30, rec["age"], "未提交的字段保持不变")

	t.Run("显式置空", func(t *testing.T) {
		value, err := f.run(t, ROOT_MUTATION, "updatePerson", map[string]any{"input": map[string]any{"id": "abc", "age": nil}})
		require.NoError(t, err)
		assert.Nil(t, value.(protocol.Record)["age"])
	})

	t.Run("非空字段不能置空", func(t *testing.T) {
		_, err := f.run(t, ROOT_MUTATION, "updatePerson", map[string]any{"input": map[string]any{"id": "abc", "name": nil}})
		assert.True(t, validation(t, err).Has("name", protocol.FIELD_REQUIRED))
	})

	t.Run("缺少主键", func(t *testing.T) {
		_, err := f.run(t, ROOT_MUTATION, "updatePerson", map[string]any{"input": map[string]any{"name": "x"}})
		assert.True(t, validation(t, err).Has("id", protocol.FIELD_REQUIRED))
	})

	t.Run("记录不存在", func(t *testing.T) {
		_, err := f.run(t, ROOT_MUTATION, "updatePerson", map[string]any{"input": map[string]any{"id": "nope", "name": "x"}})
		var nf *protocol.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "nope", nf.ID)
	})
}

func TestQueryAndDelete(t *testing.T) {
	f := setup(t, entry(t, post(), nil))
	for _, title := range []string{"a", "b", "c"} {
		f.seed(t, post(), protocol.Record{"id": title, "title": title, "status": "active"})
	}

	t.Run("默认条数与limit", func(t *testing.T) {
		all, err := f.run(t, ROOT_QUERY, "listPost", map[string]any{})
		require.NoError(t, err)
		assert.Len(t, all, 3)
		two, err := f.run(t, ROOT_QUERY, "listPost", map[string]any{"limit": int64(2)})
		require.NoError(t, err)
		assert.Len(t, two, 2)
		_, err = f.run(t, ROOT_QUERY, "listPost", map[string]any{"limit": int64(0)})
		assert.True(t, validation(t, err).Has("limit", protocol.FIELD_TYPE_MISMATCH))
	})

	t.Run("按主键获取", func(t *testing.T) {
		value, err := f.run(t, ROOT_QUERY, "getPostById", map[string]any{"id": "b"})
		require.NoError(t, err)
		assert.Equal(t, "b", value.(protocol.Record)["title"])

		missing, err := f.run(t, ROOT_QUERY, "getPostById", map[string]any{"id": "zzz"})
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("删除", func(t *testing.T) {
		ok, err := f.run(t, ROOT_MUTATION, "deletePost", map[string]any{"id": "nonexistent"})
		require.NoError(t, err)
		assert.Equal(t, false, ok)

		ok, err = f.run(t, ROOT_MUTATION, "deletePost", map[string]any{"id": "a"})
		require.NoError(t, err)
		assert.Equal(t, true, ok)
	})
}

func TestNestedCreate(t *testing.T) {
	f := setup(t, blog(t)...)
	create := func(input map[string]any) (any, error) {
		return f.run(t, ROOT_MUTATION, "createArticle", map[string]any{"input": input})
	}
	users := func() []protocol.Record {
		list, err := f.store.FetchMany(context.Background(), user(), 0)
		require.NoError(t, err)
		return list
	}

	t.Run("不带主键时嵌套创建", func(t *testing.T) {
		value, err := create(map[string]any{"title": "T", "author": map[string]any{"name": "X"}})
		require.NoError(t, err)
		author := value.(protocol.Record)["author"].(protocol.Record)
		assert.Equal(t, "X", author["name"])
		require.Len(t, users(), 1)
		assert.Equal(t, users()[0]["id"], author["id"])
	})

	t.Run("带主键时关联已有记录", func(t *testing.T) {
		f.seed(t, user(), protocol.Record{"id": "u1", "name": "Alice"})
		before := len(users())
		value, err := create(map[string]any{"title": "T", "author": map[string]any{"id": "u1", "name": "ignored"}})
		require.NoError(t, err)
		author := value.(protocol.Record)["author"].(protocol.Record)
		assert.Equal(t, "u1", author["id"])
		assert.Equal(t, "Alice", author["name"], "创建时关联不更新已有记录")
		assert.Len(t, users(), before)

		rec, err := f.store.FetchOne(context.Background(), user(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "Alice", rec["name"])
	})

	t.Run("关联的记录不存在", func(t *testing.T) {
		_, err := create(map[string]any{"title": "T", "author": map[string]any{"id": "ghost"}})
		var nf *protocol.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "User", nf.Entity)
	})

	t.Run("嵌套字段错误带路径", func(t *testing.T) {
		_, err := create(map[string]any{"title": "T", "author": map[string]any{"email": "e@x"}})
		assert.True(t, validation(t, err).Has("author.name", protocol.FIELD_REQUIRED))
	})

	t.Run("主键引用不存在", func(t *testing.T) {
		_, err := create(map[string]any{"title": "T", "author": map[string]any{"id": "u1"}, "editor": "ghost"})
		assert.True(t, validation(t, err).Has("editor", protocol.FIELD_INVALID_REFERENCE))
	})

	t.Run("失败时整体回滚", func(t *testing.T) {
		before := len(users())
		_, err := create(map[string]any{"title": "T", "author": map[string]any{"name": "Y"}, "editor": "ghost"})
		require.Error(t, err)
		assert.Len(t, users(), before, "已嵌套创建的作者被回滚")
	})

	t.Run("反向关系以主键列表输出", func(t *testing.T) {
		op, _ := f.schema.Operation(ROOT_QUERY, "getUserById")
		value, err := f.executor.Execute(context.Background(), op, map[string]any{"id": "u1"})
		require.NoError(t, err)
		articles := value.(protocol.Record)["articles"].([]any)
		assert.NotEmpty(t, articles)
		for _, id := range articles {
			assert.IsType(t, "", id)
		}
	})
}

func TestNestedUpdate(t *testing.T) {
	f := setup(t, blog(t)...)
	f.seed(t, user(), protocol.Record{"id": "u1", "name": "Alice"})
	f.seed(t, article(), protocol.Record{"id": "a1", "title": "T", "author": "u1"})

	value, err := f.run(t, ROOT_MUTATION, "updateArticle", map[string]any{"input": map[string]any{
		"id": "a1", "author": map[string]any{"id": "u1", "name": "Alicia"},
	}})
	require.NoError(t, err)
	rec := value.(protocol.Record)
	assert.Equal(t, "T", rec["title"])
	assert.Equal(t, "Alicia", rec["author"].(protocol.Record)["name"], "更新时关联同时更新已有记录")

	t.Run("部分主键", func(t *testing.T) {
		entries := []*metadata.Entry{
			entry(t, user(), nil),
			entry(t, article(), map[string]any{"relationships": map[string]any{
				"author": map[string]any{"include": true, "nested_creation": map[string]any{"pk": []any{"id", "email"}}},
			}}),
		}
		f := setup(t, entries...)
		_, err := f.run(t, ROOT_MUTATION, "createArticle", map[string]any{"input": map[string]any{
			"title": "T", "author": map[string]any{"id": "u1"},
		}})
		assert.True(t, validation(t, err).Has("author.email", protocol.FIELD_REQUIRED))
	})
}

func TestAttachByCustomKey(t *testing.T) {
	comment := &protocol.Entity{
		Name:   "Comment",
		Fields: []*protocol.Field{{Name: "id", Kind: protocol.KIND_IDENTIFIER}, {Name: "body", Kind: protocol.KIND_TEXT, Nullable: true}},
		Relationships: []*protocol.Relationship{
			{Name: "writer", Target: "User", Cardinality: protocol.SINGLE, Direction: protocol.FORWARD},
		},
	}
	f := setup(t,
		entry(t, user(), nil),
		entry(t, article(), map[string]any{"relationships": map[string]any{
			"author": map[string]any{"include": true, "nested_creation": true},
		}}),
		entry(t, comment, map[string]any{"relationships": map[string]any{
			"writer": map[string]any{"include": true, "nested_creation": map[string]any{"pk": []any{"email"}}},
		}}),
	)
	f.seed(t, user(), protocol.Record{"id": "u1", "name": "Alice", "email": "a@x"})

	value, err := f.run(t, ROOT_MUTATION, "createComment", map[string]any{"input": map[string]any{
		"writer": map[string]any{"email": "a@x"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "u1", value.(protocol.Record)["writer"], "按 email 关联已有用户")

	list, err := f.store.FetchMany(context.Background(), user(), 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.run(t, ROOT_MUTATION, "createArticle", map[string]any{"input": map[string]any{
		"title": "T", "author": map[string]any{"id": "u1"},
	}})
	require.NoError(t, err, "其他关系仍按 id 关联")
}

func TestIntegerRange(t *testing.T) {
	f := setup(t, entry(t, person(), nil))
	create := func(age any) (any, error) {
		return f.run(t, ROOT_MUTATION, "createPerson", map[string]any{"input": map[string]any{"name": "P", "age": age}})
	}

	for _, age := range []any{1e20, -1e20, float64(math.MaxInt64), uint64(1 << 63), 2.5} {
		_, err := create(age)
		assert.True(t, validation(t, err).Has("age", protocol.FIELD_TYPE_MISMATCH), "%v", age)
	}

	for _, age := range []any{int64(42), 42.0, uint64(42), int8(42)} {
		value, err := create(age)
		require.NoError(t, err)
		assert.EqualValues(t, 42, value.(protocol.Record)["age"])
	}
}

func TestIdentifierValue(t *testing.T) {
	cases := []struct {
		value any
		want  string
		ok    bool
	}{
		{"abc", "abc", true},
		{"", "", false},
		{int64(7), "7", true},
		{float64(123), "123", true},
		{1.5, "", false},
		{uint8(9), "9", true},
		{true, "", false},
		{map[string]any{"id": "x"}, "", false},
		{nil, "", false},
	}
	for _, c := range cases {
		id, ok := idString(c.value)
		assert.Equal(t, c.ok, ok, "%v", c.value)
		assert.Equal(t, c.want, id, "%v", c.value)
	}
	assert.Equal(t, []string{"a", "b"}, idList([]any{"a", 1.5, "b"}))
	assert.Equal(t, []string{"u1"}, idList("u1"))
}

func TestPersistenceError(t *testing.T) {
	f := setup(t, entry(t, person(), nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	op, _ := f.schema.Operation(ROOT_QUERY, "listPerson")
	_, err := f.executor.Execute(ctx, op, map[string]any{})
	var perr *protocol.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Person", perr.Entity)
	assert.ErrorIs(t, err, context.Canceled)
}
