package metadata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ichaly/ideabase/gql/protocol"
)

type gormUser struct {
	ID    string `gorm:"primaryKey"`
	Name  string
	Posts []gormPost `gorm:"foreignKey:AuthorID"`
}

func (gormUser) TableName() string { return "users" }

type gormPost struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Status      string `choices:"draft,published"`
	PublishedAt *time.Time
	AuthorID    string
	Author      gormUser `gorm:"foreignKey:AuthorID"`
	Tags        []gormTag `gorm:"many2many:post_tags"`
}

func (gormPost) TableName() string { return "posts" }

type gormTag struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func (gormTag) TableName() string { return "tags" }

func TestGormProvider(t *testing.T) {
	provider := NewGormProvider(map[string][]any{"blog": {&gormUser{}, &gormPost{}, &gormTag{}}})
	entities, err := provider.Describe(context.Background(), "blog")
	require.NoError(t, err)
	require.Len(t, entities, 3)

	user, post := entities[0], entities[1]
	assert.Equal(t, "gormUser", user.Name)
	assert.Equal(t, "id", user.Identity)

	posts, ok := user.GetRelationship("posts")
	require.True(t, ok)
	assert.Equal(t, protocol.REVERSE_MULTI, posts.Class())
	assert.Equal(t, "author", posts.Inverse)

	_, ok = post.GetField("authorID")
	assert.False(t, ok, "外键字段不作为普通字段")
	author, ok := post.GetRelationship("author")
	require.True(t, ok)
	assert.Equal(t, protocol.DIRECT_SINGLE, author.Class())
	assert.Equal(t, "gormUser", author.Target)

	tags, ok := post.GetRelationship("tags")
	require.True(t, ok)
	assert.Equal(t, protocol.DIRECT_MULTI, tags.Class())

	status, ok := post.GetField("status")
	require.True(t, ok)
	assert.Equal(t, []string{"draft", "published"}, status.ChoiceValues())

	published, ok := post.GetField("publishedAt")
	require.True(t, ok)
	assert.Equal(t, protocol.KIND_TIMESTAMP, published.Kind)
	assert.True(t, published.Nullable)

	id, _ := post.GetField("id")
	assert.Equal(t, protocol.KIND_IDENTIFIER, id.Kind)

	t.Run("未注册的分组", func(t *testing.T) {
		entities, err := provider.Describe(context.Background(), "shop")
		require.NoError(t, err)
		assert.Empty(t, entities)
	})
}

func TestDatabaseMeta(t *testing.T) {
	m := meta{
		Tables: []tableInfo{{TableName: "users"}, {TableName: "posts", TableDescription: "文章"}, {TableName: "tags"}, {TableName: "post_tags"}},
		Columns: []columnInfo{
			{TableName: "users", ColumnName: "id", DataType: "uuid", Position: 1},
			{TableName: "users", ColumnName: "full_name", DataType: "character varying", Position: 2},
			{TableName: "posts", ColumnName: "author_id", DataType: "uuid", Position: 3},
			{TableName: "posts", ColumnName: "id", DataType: "bigint", Position: 1},
			{TableName: "posts", ColumnName: "created_at", DataType: "timestamp with time zone", IsNullable: true, Position: 2},
			{TableName: "tags", ColumnName: "id", DataType: "integer", Position: 1},
			{TableName: "post_tags", ColumnName: "post_id", DataType: "bigint", Position: 1},
			{TableName: "post_tags", ColumnName: "tag_id", DataType: "integer", Position: 2},
		},
		PrimaryKeys: []keyInfo{
			{TableName: "users", ColumnName: "id"}, {TableName: "posts", ColumnName: "id"}, {TableName: "tags", ColumnName: "id"},
			{TableName: "post_tags", ColumnName: "post_id"}, {TableName: "post_tags", ColumnName: "tag_id"},
		},
		ForeignKeys: []foreignKeyInfo{
			{SourceTable: "posts", SourceColumn: "author_id", TargetTable: "users", TargetColumn: "id"},
			{SourceTable: "post_tags", SourceColumn: "post_id", TargetTable: "posts", TargetColumn: "id"},
			{SourceTable: "post_tags", SourceColumn: "tag_id", TargetTable: "tags", TargetColumn: "id"},
		},
	}

	entities := m.entities()
	require.Len(t, entities, 3, "中间表不作为实体")
	assert.Equal(t, []string{"Post", "Tag", "User"}, []string{entities[0].Name, entities[1].Name, entities[2].Name})

	post := entities[0]
	assert.Equal(t, "文章", post.Description)
	assert.Equal(t, "id", post.Identity)
	require.Len(t, post.Fields, 2)
	assert.Equal(t, "id", post.Fields[0].Name)
	assert.Equal(t, protocol.KIND_IDENTIFIER, post.Fields[0].Kind)
	assert.Equal(t, "createdAt", post.Fields[1].Name)
	assert.Equal(t, protocol.KIND_TIMESTAMP, post.Fields[1].Kind)

	author, ok := post.GetRelationship("author")
	require.True(t, ok)
	assert.Equal(t, "User", author.Target)
	tags, ok := post.GetRelationship("tags")
	require.True(t, ok)
	assert.Equal(t, protocol.DIRECT_MULTI, tags.Class())

	name, ok := entities[2].GetField("fullName")
	require.True(t, ok)
	assert.Equal(t, protocol.KIND_TEXT, name.Kind)
}

func TestNullable(t *testing.T) {
	for data, want := range map[string]bool{"true": true, "1": true, "false": false, "0": false, "null": false} {
		var n Nullable
		require.NoError(t, n.UnmarshalJSON([]byte(data)))
		assert.Equal(t, want, bool(n), data)
	}
	var n Nullable
	assert.Error(t, n.UnmarshalJSON([]byte(`{}`)))
}

func TestColumnKind(t *testing.T) {
	cases := map[string]protocol.FieldKind{
		"integer":           protocol.KIND_INTEGER,
		"smallint":          protocol.KIND_INTEGER,
		"numeric":           protocol.KIND_FLOAT,
		"double precision":  protocol.KIND_FLOAT,
		"boolean":           protocol.KIND_BOOLEAN,
		"datetime":          protocol.KIND_TIMESTAMP,
		"date":              protocol.KIND_DATE,
		"text":              protocol.KIND_TEXT,
		"character varying": protocol.KIND_TEXT,
	}
	for input, want := range cases {
		assert.Equal(t, want, columnKind(input), input)
	}
}
