package metadata

import (
	"strconv"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/protocol"
)

// InferReverse 为每个正向关系在目标实体上补充反向关系
// 已经声明了对应反向关系(Target 与 Inverse 一致)的不会重复创建
// 输入不会被修改,返回新的实体切片
func InferReverse(entities []*protocol.Entity) []*protocol.Entity {
	out := lo.Map(entities, func(e *protocol.Entity, _ int) *protocol.Entity {
		c := *e
		c.Relationships = append([]*protocol.Relationship(nil), e.Relationships...)
		return &c
	})
	index := lo.KeyBy(out, func(e *protocol.Entity) string { return e.Name })

	for _, source := range out {
		for _, r := range source.Relationships {
			if r.IsReverse() {
				continue
			}
			target, ok := index[r.Target]
			if !ok {
				continue
			}
			exists := lo.ContainsBy(target.Relationships, func(o *protocol.Relationship) bool {
				return o.IsReverse() && o.Target == source.Name && o.Inverse == r.Name
			})
			if exists {
				continue
			}
			// 用户 -> 文章: 文章.author 推断出 用户.posts
			name := uniqueName(target, strcase.ToLowerCamel(inflection.Plural(source.Name)))
			target.Relationships = append(target.Relationships, &protocol.Relationship{
				Name:        name,
				Target:      source.Name,
				Cardinality: protocol.MULTI,
				Direction:   protocol.REVERSE,
				Nullable:    true,
				Inverse:     r.Name,
			})
		}
	}
	return out
}

// uniqueName 关系名与已有字段或关系冲突时追加序号
func uniqueName(e *protocol.Entity, base string) string {
	taken := func(name string) bool {
		_, f := e.GetField(name)
		_, r := e.GetRelationship(name)
		return f || r
	}
	name := base
	for counter := 1; taken(name); counter++ {
		name = base + strconv.Itoa(counter)
	}
	return name
}
