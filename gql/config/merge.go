package config

import (
	"fmt"

	"github.com/huandu/go-clone"
)

// Merge 将 override 深度合并到 defaults 之上并返回新树
//
// 双方同一键均为 map 时递归合并,否则 override 的值整体替换(列表不拼接)。
// 两个入参均不会被修改。
func Merge(defaults, override map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(override))
	for key, value := range defaults {
		out[key] = normalize(clone.Clone(value))
	}
	if len(override) > 0 {
		mergeInto(out, normalize(clone.Clone(override)).(map[string]any))
	}
	return out
}

// mergeInto src 已是归一化的副本,可直接挂入 dst
func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		if sub, ok := value.(map[string]any); ok {
			if cur, ok := dst[key].(map[string]any); ok {
				mergeInto(cur, sub)
				continue
			}
		}
		dst[key] = value
	}
}

// normalize 将 yaml 解析出的 map[any]any 统一为 map[string]any
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			v[key] = normalize(item)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for key, item := range v {
			m[fmt.Sprint(key)] = normalize(item)
		}
		return m
	case []any:
		for i, item := range v {
			v[i] = normalize(item)
		}
		return v
	default:
		return value
	}
}

// asMap 取值为 map,会就地归一化,仅用于自有数据
func asMap(value any) (map[string]any, bool) {
	switch v := normalize(value).(type) {
	case map[string]any:
		return v, true
	default:
		return nil, false
	}
}
