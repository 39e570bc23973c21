package types

import (
	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/config"
	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/log"
)

// Plan 关系的表示方式
type Plan int

const (
	PLAN_OMIT Plan = iota
	PLAN_ID
	PLAN_NESTED
)

func (my Plan) String() string {
	switch my {
	case PLAN_OMIT:
		return "omit"
	case PLAN_ID:
		return "id"
	default:
		return "nested"
	}
}

type frame struct {
	entity string
	depth  int
}

// Resolver 关系解析器,维护当前的生成路径以截断循环引用
type Resolver struct {
	path []frame
}

// NewResolver 创建关系解析器
func NewResolver() *Resolver {
	return &Resolver{}
}

// Push 将实体压入生成路径,返回的函数负责出栈
func (my *Resolver) Push(entity string, depth int) func() {
	my.path = append(my.path, frame{entity: entity, depth: depth})
	size := len(my.path)
	return func() {
		my.path = my.path[:size-1]
	}
}

// OnPath 实体是否正在被展开
func (my *Resolver) OnPath(entity string) bool {
	return lo.ContainsBy(my.path, func(f frame) bool { return f.entity == entity })
}

// Depth 当前生成路径长度
func (my *Resolver) Depth() int {
	return len(my.path)
}

// Resolve 决定实体 owner 在深度 depth 生成 kind 类型时关系 r 的表示方式
// known 表示目标实体是否已编目,未编目的目标只能以标识引用
func (my *Resolver) Resolve(owner *protocol.Entity, r *protocol.Relationship, policy *config.Relation, kind Kind, depth int, known bool) Plan {
	if policy == nil || !policy.Include {
		return PLAN_OMIT
	}
	if kind.IsInput() && (r.IsReverse() || policy.ReadOnly) {
		return PLAN_OMIT
	}

	var nested bool
	switch kind {
	case KIND_OUTPUT:
		nested = policy.Nested
	case KIND_INPUT:
		nested = policy.NestedCreation.Enabled
	case KIND_UPDATE:
		nested = policy.NestedUpdates
	}
	if !nested || !known {
		return PLAN_ID
	}
	if depth >= policy.Depth() {
		return PLAN_ID
	}
	// 自关联由深度限制,其他实体重复出现即为循环
	if r.Target != owner.Name && my.OnPath(r.Target) {
		log.Debug().Str("entity", owner.Name).Str("relation", r.Name).Str("target", r.Target).
			Int("depth", depth).Msg("检测到循环引用,以标识表示")
		return PLAN_ID
	}
	return PLAN_NESTED
}
