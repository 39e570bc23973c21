package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ichaly/ideabase/gql/config"
	"github.com/ichaly/ideabase/gql/protocol"
)

const blogEntities = `
entities:
  - name: User
    fields:
      - {name: id, kind: identifier}
      - {name: name, kind: text}
  - name: Post
    description: 文章
    fields:
      - {name: id, kind: identifier}
      - {name: title, kind: text}
      - name: status
        kind: text
        choices:
          - {value: draft, label: 草稿}
          - {value: published, label: 已发布}
      - {name: publishedAt, kind: timestamp, nullable: true}
    relationships:
      - {name: author, target: User}
  - name: Tag
    fields:
      - {name: id, kind: identifier}
`

func writeApp(t *testing.T, entities string, docs map[string]string) string {
	root := t.TempDir()
	dir := filepath.Join(root, "blog", config.DIR_CONFIG)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "blog", FILE_ENTITIES), []byte(entities), 0o644))
	for name, content := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return root
}

func TestFileProvider(t *testing.T) {
	root := writeApp(t, blogEntities, nil)
	entities, err := NewFileProvider(root).Describe(context.Background(), "blog")
	require.NoError(t, err)
	require.Len(t, entities, 3)

	post := entities[1]
	assert.Equal(t, "Post", post.Name)
	assert.Equal(t, "文章", post.Description)
	assert.Equal(t, []string{"id", "title", "status", "publishedAt"}, []string{
		post.Fields[0].Name, post.Fields[1].Name, post.Fields[2].Name, post.Fields[3].Name,
	})
	assert.Equal(t, protocol.KIND_TIMESTAMP, post.Fields[3].Kind)
	assert.True(t, post.Fields[3].Nullable)
	assert.Equal(t, []string{"draft", "published"}, post.Fields[2].ChoiceValues())

	author, ok := post.GetRelationship("author")
	require.True(t, ok)
	assert.Equal(t, protocol.SINGLE, author.Cardinality)
	assert.Equal(t, protocol.FORWARD, author.Direction)

	t.Run("文件不存在", func(t *testing.T) {
		_, err := NewFileProvider(t.TempDir()).Describe(context.Background(), "blog")
		assert.Error(t, err)
	})

	t.Run("格式错误", func(t *testing.T) {
		root := writeApp(t, "entities: [", nil)
		_, err := NewFileProvider(root).Describe(context.Background(), "blog")
		var ce *protocol.ConfigError
		assert.True(t, errors.As(err, &ce))
	})
}

func TestInferReverse(t *testing.T) {
	input := []*protocol.Entity{
		{Name: "User", Fields: []*protocol.Field{{Name: "id"}, {Name: "posts"}}},
		{Name: "Post", Relationships: []*protocol.Relationship{
			{Name: "author", Target: "User", Cardinality: protocol.SINGLE, Direction: protocol.FORWARD},
		}},
	}
	out := InferReverse(input)

	assert.Empty(t, input[0].Relationships, "输入不应被修改")
	require.Len(t, out[0].Relationships, 1)
	r := out[0].Relationships[0]
	assert.Equal(t, "posts1", r.Name, "与字段重名时追加序号")
	assert.Equal(t, "Post", r.Target)
	assert.Equal(t, "author", r.Inverse)
	assert.True(t, r.IsReverse())
	assert.Equal(t, protocol.REVERSE_MULTI, r.Class())

	t.Run("已声明的反向关系不重复推断", func(t *testing.T) {
		again := InferReverse(out)
		assert.Len(t, again[0].Relationships, 1)
	})

	t.Run("自关联", func(t *testing.T) {
		out := InferReverse([]*protocol.Entity{{Name: "Category", Relationships: []*protocol.Relationship{
			{Name: "parent", Target: "Category", Direction: protocol.FORWARD, Nullable: true},
		}}})
		require.Len(t, out[0].Relationships, 2)
		assert.Equal(t, "categories", out[0].Relationships[1].Name)
	})
}

func TestCatalog(t *testing.T) {
	t.Run("排除没有配置的实体", func(t *testing.T) {
		root := writeApp(t, blogEntities, map[string]string{
			config.FILE_DEFAULTS: "defaults:\n  fields:\n    exclude: [secret]\n",
			config.FILE_MODELS:   "Post:\n  description: 博客文章\nUser: {}\n",
		})
		catalog := NewCatalog(config.NewLoader(root), NewFileProvider(root))
		entries, err := catalog.EntitiesFor(context.Background(), []string{"blog"})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "User", entries[0].Entity.Name)
		assert.Equal(t, "Post", entries[1].Entity.Name)
		assert.Equal(t, "博客文章", entries[1].Config.Description)
		assert.False(t, entries[1].Config.Fields.Selected("secret"))

		posts, ok := entries[0].Entity.GetRelationship("posts")
		require.True(t, ok, "反向关系应被推断")
		assert.Equal(t, "author", posts.Inverse)
	})

	t.Run("多个分组并行加载", func(t *testing.T) {
		root := writeApp(t, blogEntities, map[string]string{config.FILE_MODELS: "Tag: {}\n"})
		shop := filepath.Join(root, "shop")
		require.NoError(t, os.MkdirAll(filepath.Join(shop, config.DIR_CONFIG), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(shop, FILE_ENTITIES), []byte(`
entities:
  - name: Product
    fields:
      - {name: id, kind: identifier}
`), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(shop, config.DIR_CONFIG, config.FILE_MODELS), []byte("Product: {}\n"), 0o644))

		catalog := NewCatalog(config.NewLoader(root), NewFileProvider(root))
		entries, err := catalog.EntitiesFor(context.Background(), []string{"blog", "shop"})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "blog", entries[0].Grouping)
		assert.Equal(t, "Product", entries[1].Entity.Name)
	})

	t.Run("关系目标不存在", func(t *testing.T) {
		root := writeApp(t, `
entities:
  - name: Post
    fields:
      - {name: id, kind: identifier}
    relationships:
      - {name: author, target: Ghost}
`, map[string]string{config.FILE_MODELS: "Post: {}\n"})
		_, err := NewCatalog(config.NewLoader(root), NewFileProvider(root)).EntitiesFor(context.Background(), []string{"blog"})
		var ce *protocol.ConfigError
		assert.True(t, errors.As(err, &ce))
	})

	t.Run("配置目录缺失", func(t *testing.T) {
		_, err := NewCatalog(config.NewLoader(t.TempDir()), protocol.ProviderFunc(
			func(context.Context, string) ([]*protocol.Entity, error) { return nil, nil },
		)).EntitiesFor(context.Background(), []string{"blog"})
		var ce *protocol.ConfigError
		assert.True(t, errors.As(err, &ce))
	})
}
