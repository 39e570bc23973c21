package gql

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/duke-git/lancet/v2/convertor"
	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/gql/types"
	"github.com/ichaly/ideabase/std"
)

// materialize 按输出类型塑造记录: 关系默认解引用为主键,配置了嵌套包含时递归填充
func (my *Executor) materialize(ctx context.Context, store protocol.Store, d *types.Descriptor, rec protocol.Record) (protocol.Record, error) {
	entity := d.Entity
	id, _ := idString(rec[entity.IdentityName()])
	out := make(protocol.Record, len(d.Fields))

	for _, f := range d.Fields {
		if !f.IsRelation() {
			out[f.Name] = present(f.Source, rec[f.Name])
			continue
		}

		r := f.Relation
		target, known := my.entries[r.Target]
		var related []protocol.Record
		var ids []string
		switch {
		case r.IsReverse() && known:
			list, err := store.FetchRelated(ctx, target.Entity, r.Inverse, id)
			if err != nil {
				return nil, persistence(OP_GET, target.Entity, err)
			}
			related = list
			ids = lo.FilterMap(list, func(item protocol.Record, _ int) (string, bool) {
				return idString(item[target.Entity.IdentityName()])
			})
		case r.IsReverse():
			ids = nil
		default:
			ids = idList(rec[r.Name])
		}

		var values []any
		if f.IsNested() && known {
			if related == nil {
				for _, rid := range ids {
					item, err := store.FetchOne(ctx, target.Entity, rid)
					if err != nil {
						return nil, persistence(OP_GET, target.Entity, err)
					}
					// 悬空引用跳过
					if item != nil {
						related = append(related, item)
					}
				}
			}
			for _, item := range related {
				m, err := my.materialize(ctx, store, f.Nested, item)
				if err != nil {
					return nil, err
				}
				values = append(values, m)
			}
		} else {
			values = lo.ToAnySlice(ids)
		}

		if f.List {
			out[f.Name] = lo.Ternary(values == nil, []any{}, values)
		} else if len(values) > 0 {
			out[f.Name] = values[0]
		} else {
			out[f.Name] = nil
		}
	}
	return out, nil
}

// present 存储值转换为输出值
func present(f *protocol.Field, v any) any {
	if p, ok := v.(*time.Time); ok {
		if p == nil {
			return nil
		}
		v = *p
	}
	switch value := v.(type) {
	case nil:
		return nil
	case time.Time:
		if f != nil && f.Kind == protocol.KIND_DATE {
			return std.FormatDate(value)
		}
		return std.FormatDateTime(value)
	case []byte:
		return string(value)
	}
	if f != nil && f.Kind == protocol.KIND_IDENTIFIER {
		if id, ok := idString(v); ok {
			return id
		}
	}
	return v
}

// idString 将主键值统一为字符串,浮点主键必须为整数
func idString(v any) (string, bool) {
	switch value := v.(type) {
	case fmt.Stringer:
		id := value.String()
		return id, id != ""
	case float32, float64:
		if _, ok := toInt(value); !ok {
			return "", false
		}
	case string, []byte, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
	default:
		return "", false
	}
	id := convertor.ToString(v)
	return id, id != ""
}

// idList 存储的多值引用转换为主键列表
func idList(v any) []string {
	if s, ok := v.([]string); ok {
		return s
	}
	items, ok := asList(v)
	if !ok {
		if id, ok := idString(v); ok {
			return []string{id}
		}
		return nil
	}
	return lo.FilterMap(items, func(item any, _ int) (string, bool) { return idString(item) })
}

func asList(v any) ([]any, bool) {
	switch value := v.(type) {
	case []any:
		return value, true
	case []string:
		return lo.ToAnySlice(value), true
	case []int64:
		return lo.ToAnySlice(value), true
	case []map[string]any:
		return lo.ToAnySlice(value), true
	}
	return nil, false
}

// toInt 整数取值,拒绝非整数浮点与超出 int64 范围的值
func toInt(v any) (int64, bool) {
	switch value := v.(type) {
	case nil, string, []byte, bool:
		return 0, false
	case interface{ Int64() (int64, error) }:
		n, err := value.Int64()
		return n, err == nil
	case float32, float64:
		f, _ := convertor.ToFloat(value)
		if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, false
		}
	case uint:
		if uint64(value) > math.MaxInt64 {
			return 0, false
		}
	case uint64:
		if value > math.MaxInt64 {
			return 0, false
		}
	}
	n, err := convertor.ToInt(v)
	return n, err == nil
}

func toFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case nil, string, []byte, bool:
		return 0, false
	case interface{ Float64() (float64, error) }:
		n, err := value.Float64()
		return n, err == nil
	}
	n, err := convertor.ToFloat(v)
	return n, err == nil
}
