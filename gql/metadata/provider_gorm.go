package metadata

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/iancoleman/strcase"
	"github.com/samber/lo"
	"gorm.io/gorm/schema"

	"github.com/ichaly/ideabase/gql/protocol"
)

// TAG_CHOICES 结构体标签,声明字段的可选值,如 `choices:"draft,published"`
const TAG_CHOICES = "choices"

// GormProvider 通过 gorm 的模型解析获得实体描述
// 模型按分组注册,解析顺序与字段声明顺序一致
type GormProvider struct {
	models map[string][]any
	cache  *sync.Map
	namer  schema.Namer
}

// NewGormProvider 创建gorm模型提供者
func NewGormProvider(models map[string][]any) *GormProvider {
	return &GormProvider{models: models, cache: &sync.Map{}, namer: schema.NamingStrategy{}}
}

func (my *GormProvider) Describe(_ context.Context, grouping string) ([]*protocol.Entity, error) {
	entities := make([]*protocol.Entity, 0, len(my.models[grouping]))
	for _, model := range my.models[grouping] {
		s, err := schema.Parse(model, my.cache, my.namer)
		if err != nil {
			return nil, fmt.Errorf("解析模型%T失败: %w", model, err)
		}
		entities = append(entities, my.entity(s))
	}
	return entities, nil
}

func (my *GormProvider) entity(s *schema.Schema) *protocol.Entity {
	e := &protocol.Entity{Name: s.Name}
	if pk := s.PrioritizedPrimaryField; pk != nil {
		e.Identity = strcase.ToLowerCamel(pk.Name)
	}

	// 外键字段由关系表达,不再作为普通字段
	foreign := map[string]bool{}
	for _, r := range s.Relationships.BelongsTo {
		for _, ref := range r.References {
			foreign[ref.ForeignKey.Name] = true
		}
	}

	for _, f := range s.Fields {
		if rel, ok := s.Relationships.Relations[f.Name]; ok {
			if r := my.relationship(s, rel); r != nil {
				e.Relationships = append(e.Relationships, r)
			}
			continue
		}
		if f.DBName == "" || f.DataType == "" || foreign[f.Name] {
			continue
		}
		e.Fields = append(e.Fields, &protocol.Field{
			Name:     strcase.ToLowerCamel(f.Name),
			Kind:     kindOf(f),
			Nullable: !f.PrimaryKey && !f.NotNull && f.FieldType.Kind() == reflect.Ptr,
			Choices:  choicesOf(f),
		})
	}
	return e
}

func (my *GormProvider) relationship(s *schema.Schema, rel *schema.Relationship) *protocol.Relationship {
	r := &protocol.Relationship{
		Name:   strcase.ToLowerCamel(rel.Name),
		Target: rel.FieldSchema.Name,
	}
	switch rel.Type {
	case schema.BelongsTo:
		r.Cardinality, r.Direction = protocol.SINGLE, protocol.FORWARD
		r.Nullable = lo.SomeBy(rel.References, func(ref *schema.Reference) bool {
			return ref.ForeignKey.FieldType.Kind() == reflect.Ptr
		})
	case schema.Many2Many:
		r.Cardinality, r.Direction, r.Nullable = protocol.MULTI, protocol.FORWARD, true
	case schema.HasOne:
		r.Cardinality, r.Direction, r.Nullable = protocol.SINGLE, protocol.REVERSE, true
		r.Inverse = inverseOf(s, rel)
	case schema.HasMany:
		r.Cardinality, r.Direction, r.Nullable = protocol.MULTI, protocol.REVERSE, true
		r.Inverse = inverseOf(s, rel)
	default:
		return nil
	}
	return r
}

// inverseOf 在目标模型上寻找指回当前模型的 BelongsTo 关系
func inverseOf(s *schema.Schema, rel *schema.Relationship) string {
	fks := lo.Map(rel.References, func(ref *schema.Reference, _ int) string { return ref.ForeignKey.Name })
	if back, ok := lo.Find(rel.FieldSchema.Relationships.BelongsTo, func(b *schema.Relationship) bool {
		return b.FieldSchema.Name == s.Name && lo.SomeBy(b.References, func(ref *schema.Reference) bool {
			return lo.Contains(fks, ref.ForeignKey.Name)
		})
	}); ok {
		return strcase.ToLowerCamel(back.Name)
	}
	// 目标模型只声明了外键字段,按 AuthorID -> author 推断
	if len(fks) > 0 {
		return strcase.ToLowerCamel(strings.TrimSuffix(fks[0], "ID"))
	}
	return strcase.ToLowerCamel(s.Name)
}

func kindOf(f *schema.Field) protocol.FieldKind {
	if f.PrimaryKey {
		return protocol.KIND_IDENTIFIER
	}
	switch f.DataType {
	case schema.Bool:
		return protocol.KIND_BOOLEAN
	case schema.Int, schema.Uint:
		return protocol.KIND_INTEGER
	case schema.Float:
		return protocol.KIND_FLOAT
	case schema.Time:
		return protocol.KIND_TIMESTAMP
	default:
		return protocol.KIND_TEXT
	}
}

func choicesOf(f *schema.Field) []protocol.Choice {
	tag, ok := f.Tag.Lookup(TAG_CHOICES)
	if !ok || tag == "" {
		return nil
	}
	return lo.Map(strings.Split(tag, ","), func(v string, _ int) protocol.Choice {
		v = strings.TrimSpace(v)
		return protocol.Choice{Value: v, Label: v}
	})
}
