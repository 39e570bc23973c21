package gql

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/gql/renderer"
	"github.com/ichaly/ideabase/gql/types"
	"github.com/ichaly/ideabase/log"
	"github.com/ichaly/ideabase/std"
	"github.com/ichaly/ideabase/utl"
)

// Mode 输入处理模式
type Mode int

const (
	MODE_CREATE Mode = iota
	MODE_UPDATE
	// MODE_NESTED 嵌套输入走创建分支
	MODE_NESTED
)

// mutation 单次变更的上下文,所有存储调用都在同一原子单元 tx 内
type mutation struct {
	executor *Executor
	tx       protocol.Store
	// update 嵌套关联已有记录时是否同时更新其字段
	update bool
}

// prepare 校验并转换提交数据,标量字段全部通过后再按声明顺序处理关系
func (my *mutation) prepare(ctx context.Context, d *types.Descriptor, input map[string]any, mode Mode) (protocol.Record, error) {
	if mode == MODE_UPDATE {
		my.update = true
	}
	entity := d.Entity
	verr := &protocol.ValidationError{Entity: entity.Name}

	for _, key := range utl.SortKeys(input) {
		if key == renderer.PLACEHOLDER {
			continue
		}
		if _, ok := d.Field(key); ok {
			continue
		}
		_, isField := entity.GetField(key)
		_, isRelation := entity.GetRelationship(key)
		if isField || isRelation {
			verr.Add(key, protocol.FIELD_READONLY, fmt.Sprintf("字段 %s 不可写", key))
		} else {
			verr.Add(key, protocol.FIELD_UNKNOWN, fmt.Sprintf("未知字段 %s", key))
		}
	}

	data := protocol.Record{}
	for _, f := range d.Fields {
		value, present := input[f.Name]
		if value == nil {
			if required(f, d, mode) || (present && !nullable(f)) {
				verr.Add(f.Name, protocol.FIELD_REQUIRED, fmt.Sprintf("字段 %s 不能为空", f.Name))
			} else if present {
				data[f.Name] = nil
			}
			continue
		}
		if f.IsRelation() {
			continue
		}
		v, code, message := my.executor.coerce(f, value)
		if code != "" {
			verr.Add(f.Name, code, message)
			continue
		}
		data[f.Name] = v
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	for _, f := range d.Fields {
		value := input[f.Name]
		if !f.IsRelation() || value == nil {
			continue
		}
		ref, err := my.reference(ctx, d, f, value)
		if err != nil {
			return nil, err
		}
		data[f.Name] = ref
	}
	return data, nil
}

// required 嵌套输入的类型里字段均可选,走创建分支时仍需满足底层非空约束
func required(f *types.Field, d *types.Descriptor, mode Mode) bool {
	if f.NonNull {
		return true
	}
	if mode != MODE_NESTED {
		return false
	}
	if f.Source != nil {
		return !f.Source.Nullable && f.Source.Name != d.Entity.IdentityName()
	}
	return !f.List && !f.Relation.Nullable
}

func nullable(f *types.Field) bool {
	if f.Source != nil {
		return f.Source.Nullable
	}
	return f.List || f.Relation.Nullable
}

// reference 将关系字段的值解析为存储层引用: 单值为主键,多值为主键列表
func (my *mutation) reference(ctx context.Context, d *types.Descriptor, f *types.Field, value any) (any, error) {
	if !f.List {
		return my.resolve(ctx, d, f, f.Name, value)
	}
	items, ok := asList(value)
	if !ok {
		return nil, invalid(d.Entity.Name, f.Name, protocol.FIELD_TYPE_MISMATCH, fmt.Sprintf("字段 %s 必须是列表", f.Name))
	}
	ids := make([]string, 0, len(items))
	for i, item := range items {
		id, err := my.resolve(ctx, d, f, fmt.Sprintf("%s.%d", f.Name, i), item)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return lo.Uniq(ids), nil
}

// resolve 对象值按主键判断关联已有记录或嵌套创建,标量值视为已有记录的主键
func (my *mutation) resolve(ctx context.Context, d *types.Descriptor, f *types.Field, path string, value any) (string, error) {
	if nested, ok := value.(map[string]any); ok {
		if !f.IsNested() {
			return "", invalid(d.Entity.Name, path, protocol.FIELD_TYPE_MISMATCH, fmt.Sprintf("字段 %s 只接受主键", path))
		}
		id, err := my.attachOrCreate(ctx, f.Nested, nested)
		return id, prefix(d.Entity.Name, path, err)
	}

	id, ok := idString(value)
	if !ok {
		return "", invalid(d.Entity.Name, path, protocol.FIELD_TYPE_MISMATCH, fmt.Sprintf("字段 %s 不是合法的主键", path))
	}
	target, known := my.executor.entries[f.Relation.Target]
	if !known {
		// 未编目的目标无法校验,原样保存引用
		return id, nil
	}
	rec, err := my.tx.FetchOne(ctx, target.Entity, id)
	if err != nil {
		return "", persistence(OP_GET, target.Entity, err)
	}
	if rec == nil {
		return "", invalid(d.Entity.Name, path, protocol.FIELD_INVALID_REFERENCE, fmt.Sprintf("%s(%s) 不存在", target.Entity.Name, id))
	}
	return id, nil
}

// attachOrCreate 主键字段全部提供时关联已有记录,全部缺失时嵌套创建
func (my *mutation) attachOrCreate(ctx context.Context, nd *types.Descriptor, data map[string]any) (string, error) {
	entity := nd.Entity
	identity := entity.IdentityName()
	present, missing := lo.FilterReject(nd.PK, func(k string, _ int) bool { return data[k] != nil })

	switch {
	case len(missing) == 0:
		rec, err := my.lookup(ctx, nd, data)
		if err != nil {
			return "", err
		}
		id, _ := idString(rec[identity])
		extra := lo.OmitByKeys(data, append(nd.PK, renderer.PLACEHOLDER))
		if my.update && len(extra) > 0 {
			patch, err := my.prepare(ctx, nd, extra, MODE_UPDATE)
			if err != nil {
				return "", err
			}
			if _, err := my.tx.Update(ctx, entity, id, patch); err != nil {
				return "", persistence(OP_UPDATE, entity, err)
			}
		} else if len(extra) > 0 {
			log.Debug().Str("entity", entity.Name).Strs("fields", lo.Keys(extra)).Msg("关联已有记录,忽略其余字段")
		}
		return id, nil
	case len(present) == 0:
		prepared, err := my.prepare(ctx, nd, data, MODE_NESTED)
		if err != nil {
			return "", err
		}
		rec, err := my.tx.Create(ctx, entity, prepared)
		if err != nil {
			return "", persistence(OP_CREATE, entity, err)
		}
		id, _ := idString(rec[identity])
		log.Debug().Str("entity", entity.Name).Str("id", id).Msg("嵌套创建记录")
		return id, nil
	default:
		verr := &protocol.ValidationError{Entity: entity.Name}
		for _, k := range missing {
			verr.Add(k, protocol.FIELD_REQUIRED, fmt.Sprintf("关联已有记录需要完整主键, 缺少 %s", k))
		}
		return "", verr
	}
}

// lookup 按主键字段查找已有记录,找不到时返回 NotFoundError
func (my *mutation) lookup(ctx context.Context, nd *types.Descriptor, data map[string]any) (protocol.Record, error) {
	entity := nd.Entity
	values := lo.Map(nd.PK, func(k string, _ int) string { return fmt.Sprint(data[k]) })
	missing := &protocol.NotFoundError{Entity: entity.Name, ID: strings.Join(values, ",")}

	if len(nd.PK) == 1 && nd.PK[0] == entity.IdentityName() {
		rec, err := my.tx.FetchOne(ctx, entity, values[0])
		if err != nil {
			return nil, persistence(OP_GET, entity, err)
		}
		if rec == nil {
			return nil, missing
		}
		return rec, nil
	}

	candidates, err := my.tx.FetchRelated(ctx, entity, nd.PK[0], values[0])
	if err != nil {
		return nil, persistence(OP_GET, entity, err)
	}
	rec, ok := lo.Find(candidates, func(r protocol.Record) bool {
		return lo.EveryBy(nd.PK, func(k string) bool { return fmt.Sprint(r[k]) == fmt.Sprint(data[k]) })
	})
	if !ok {
		return nil, missing
	}
	return rec, nil
}

// prefix 嵌套输入的字段错误加上关系路径
func prefix(entity, path string, err error) error {
	verr, ok := err.(*protocol.ValidationError)
	if !ok {
		return err
	}
	out := &protocol.ValidationError{Entity: entity}
	for _, f := range verr.Fields {
		out.Add(path+"."+f.Field, f.Code, f.Message)
	}
	return out
}

// coerce 按字段原始类型转换提交值,失败时返回字段错误码
func (my *Executor) coerce(f *types.Field, value any) (any, string, string) {
	mismatch := func(expect string) (any, string, string) {
		return nil, protocol.FIELD_TYPE_MISMATCH, fmt.Sprintf("字段 %s 需要 %s, 实际为 %T", f.Name, expect, value)
	}
	if f.Enum != nil {
		s, ok := value.(string)
		if !ok || !lo.Contains(f.Enum.Values, s) {
			return nil, protocol.FIELD_ENUM_INVALID, fmt.Sprintf("字段 %s 的取值 %v 不在 %v 中", f.Name, value, f.Enum.Values)
		}
		return s, "", ""
	}

	switch f.Source.Kind {
	case protocol.KIND_INTEGER:
		if n, ok := toInt(value); ok {
			return n, "", ""
		}
		return mismatch(types.SCALAR_INT)
	case protocol.KIND_FLOAT:
		if n, ok := toFloat(value); ok {
			return n, "", ""
		}
		return mismatch(types.SCALAR_FLOAT)
	case protocol.KIND_BOOLEAN:
		if b, ok := value.(bool); ok {
			return b, "", ""
		}
		return mismatch(types.SCALAR_BOOLEAN)
	case protocol.KIND_TIMESTAMP:
		t, err := std.ParseTime(value)
		if err != nil {
			return nil, protocol.FIELD_TYPE_MISMATCH, err.Error()
		}
		return t, "", ""
	case protocol.KIND_DATE:
		if s, ok := value.(string); ok && my.validator != nil {
			if err := my.validator.Var(s, "datetime="+std.LAYOUT_DATE); err != nil {
				return nil, protocol.FIELD_TYPE_MISMATCH, fmt.Sprintf("字段 %s: %v", f.Name, err)
			}
		}
		t, err := std.ParseDate(value)
		if err != nil {
			return nil, protocol.FIELD_TYPE_MISMATCH, err.Error()
		}
		return t, "", ""
	case protocol.KIND_IDENTIFIER:
		if id, ok := idString(value); ok {
			return id, "", ""
		}
		return mismatch(types.SCALAR_ID)
	default:
		if s, ok := value.(string); ok {
			return s, "", ""
		}
		return mismatch(types.SCALAR_STRING)
	}
}
