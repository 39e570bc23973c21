package types

import (
	"fmt"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/config"
	"github.com/ichaly/ideabase/gql/metadata"
	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/log"
	"github.com/ichaly/ideabase/utl"
)

// Generator 类型生成器,单次生成过程使用,不支持并发调用
type Generator struct {
	registry *Registry
	resolver *Resolver
	entries  map[string]*metadata.Entry
}

// NewGenerator 基于已编目实体创建生成器,每次生成使用全新的注册表
func NewGenerator(entries []*metadata.Entry) *Generator {
	return &Generator{
		registry: NewRegistry(),
		resolver: NewResolver(),
		entries:  lo.KeyBy(entries, func(e *metadata.Entry) string { return e.Entity.Name }),
	}
}

// Registry 返回本次生成的注册表
func (my *Generator) Registry() *Registry {
	return my.registry
}

// request 一次类型生成请求
type request struct {
	entity *protocol.Entity
	kind   Kind
	depth  int
	cfg    *config.Model
	// owner/relation 非空时生成关系专属的嵌套输入
	owner    string
	relation string
	pk       []string
}

func (my request) key() Key {
	k := Key{Entity: my.entity.Name, Kind: my.kind, Depth: my.depth}
	if my.owner != "" {
		k.Variant = my.owner + "." + my.relation
	}
	return k
}

// Generate 生成实体在指定深度的类型描述,命中缓存时直接返回已有描述
func (my *Generator) Generate(entity *protocol.Entity, kind Kind, depth int, cfg *config.Model) (*Descriptor, error) {
	if kind == KIND_ENUM {
		return nil, fmt.Errorf("枚举类型请使用 Enum 生成")
	}
	if cfg == nil {
		cfg = &config.Model{}
	}
	return my.generate(request{entity: entity, kind: kind, depth: depth, cfg: cfg})
}

func (my *Generator) generate(req request) (*Descriptor, error) {
	key := req.key()
	if d, ok := my.registry.Lookup(key); ok {
		return d, nil
	}

	d := &Descriptor{
		Name:        TypeName(req.entity.Name, req.kind, req.depth, req.owner, req.relation),
		Kind:        req.kind,
		Depth:       req.depth,
		Description: lo.CoalesceOrEmpty(req.cfg.Description, req.entity.Description),
		Entity:      req.entity,
		Config:      req.cfg,
		PK:          req.pk,
	}
	// 先注册再展开,自引用与菱形引用在递归中命中缓存后终止
	if err := my.registry.Put(key, d); err != nil {
		log.Error().Err(err).Str("entity", req.entity.Name).Msg("类型名冲突")
		return nil, err
	}
	defer my.resolver.Push(req.entity.Name, req.depth)()

	if err := my.fields(req, d); err != nil {
		return nil, err
	}
	if err := my.relations(req, d); err != nil {
		return nil, err
	}
	log.Debug().Str("type", d.Name).Int("depth", req.depth).Int("fields", len(d.Fields)).Msg("类型已生成")
	return d, nil
}

func (my *Generator) fields(req request, d *Descriptor) error {
	identity := req.entity.IdentityName()
	policy := req.cfg.Fields

	for _, f := range req.entity.Fields {
		isKey := f.Name == identity
		var keep bool
		switch {
		case req.kind == KIND_OUTPUT:
			keep = policy.Readable(f.Name)
		case req.kind == KIND_UPDATE && isKey:
			keep = true
		case d.IsNestedInput() && lo.Contains(req.pk, f.Name):
			// 嵌套输入总是携带主键字段,用于关联已有记录
			keep = true
		case isKey:
			keep = false
		default:
			keep = policy.Writable(f.Name)
		}
		if !keep {
			continue
		}

		field := &Field{Name: f.Name, Type: Scalar(f.Kind), Source: f}
		if f.HasChoices() {
			enum, err := my.Enum(req.entity, f)
			if err != nil {
				return err
			}
			field.Type, field.Enum = enum.Name, enum
		}
		switch {
		case req.kind == KIND_OUTPUT:
			field.NonNull = isKey || !f.Nullable
		case req.kind == KIND_UPDATE:
			field.NonNull = isKey
		case req.depth == 0:
			field.NonNull = !f.Nullable
		}
		d.Fields = append(d.Fields, field)
	}
	return nil
}

func (my *Generator) relations(req request, d *Descriptor) error {
	for _, r := range req.entity.Relationships {
		policy := req.cfg.Relation(r.Name)
		target, known := my.entries[r.Target]
		plan := my.resolver.Resolve(req.entity, r, policy, req.kind, req.depth, known)
		if plan == PLAN_OMIT {
			continue
		}

		field := &Field{Name: r.Name, Type: SCALAR_ID, Relation: r, List: r.IsMulti()}
		if plan == PLAN_NESTED {
			nested, err := my.nested(req, r, policy, target)
			if err != nil {
				return err
			}
			field.Type, field.Nested = nested.Name, nested
		}
		field.ItemNonNull = field.List
		switch req.kind {
		case KIND_OUTPUT:
			field.NonNull = field.List || !r.Nullable
		case KIND_INPUT:
			field.NonNull = req.depth == 0 && !field.List && !r.Nullable
		}
		d.Fields = append(d.Fields, field)
	}
	return nil
}

// nested 生成关系目标在下一深度的类型
func (my *Generator) nested(req request, r *protocol.Relationship, policy *config.Relation, target *metadata.Entry) (*Descriptor, error) {
	if req.kind == KIND_OUTPUT {
		return my.generate(request{entity: target.Entity, kind: KIND_OUTPUT, depth: req.depth + 1, cfg: target.Config})
	}

	creation := policy.NestedCreation
	identity := []string{target.Entity.IdentityName()}
	next := request{
		entity: target.Entity,
		kind:   KIND_INPUT,
		depth:  req.depth + 1,
		cfg:    target.Config.Override(creation),
		pk:     slice.Unique(lo.Ternary(len(creation.PK) > 0, creation.PK, identity)),
	}
	// 自定义主键同样决定关联判断,需要关系专属的嵌套输入
	if creation.Overrides() || !slice.Equal(next.pk, identity) {
		next.owner, next.relation = req.entity.Name, r.Name
	}
	for _, k := range next.pk {
		if _, ok := target.Entity.GetField(k); !ok {
			return nil, protocol.NewConfigError(req.entity.Name+"."+r.Name, fmt.Sprintf("主键字段 %s 不存在于 %s", k, target.Entity.Name), nil)
		}
	}
	return my.generate(next)
}

// Enum 生成字段的枚举类型,同一实体字段只生成一次
func (my *Generator) Enum(entity *protocol.Entity, f *protocol.Field) (*Descriptor, error) {
	key := Key{Entity: entity.Name, Kind: KIND_ENUM, Variant: f.Name}
	if d, ok := my.registry.Lookup(key); ok {
		return d, nil
	}
	values := f.ChoiceValues()
	for _, v := range values {
		if !utl.IsName(v) {
			return nil, protocol.NewConfigError(entity.Name+"."+f.Name, fmt.Sprintf("可选值 %q 不是合法的枚举名", v), nil)
		}
	}
	if dup := lo.FindDuplicates(values); len(dup) > 0 {
		return nil, protocol.NewConfigError(entity.Name+"."+f.Name, fmt.Sprintf("可选值 %v 重复", dup), nil)
	}
	d := &Descriptor{
		Name:   EnumName(entity.Name, f.Name),
		Kind:   KIND_ENUM,
		Values: values,
		Entity: entity,
	}
	if err := my.registry.Put(key, d); err != nil {
		return nil, err
	}
	return d, nil
}
