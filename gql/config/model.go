package config

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/utl"
)

const (
	// ALL 表示全部字段
	ALL = "__all__"
	// DEFAULT_MAX_DEPTH 关系默认展开深度
	DEFAULT_MAX_DEPTH = 1
)

// Selector 字段选择器,取值为字段名列表或 "__all__"
type Selector struct {
	Defined bool
	All     bool
	Names   []string
}

// Matches 判断字段是否被选中
func (my Selector) Matches(name string) bool {
	return my.All || lo.Contains(my.Names, name)
}

// FieldPolicy 字段策略
type FieldPolicy struct {
	Include   Selector `mapstructure:"include"`
	Exclude   Selector `mapstructure:"exclude"`
	ReadOnly  Selector `mapstructure:"read_only"`
	WriteOnly Selector `mapstructure:"write_only"`
}

// Selected 字段是否出现在生成的类型中
func (my FieldPolicy) Selected(name string) bool {
	if my.Include.Defined && !my.Include.Matches(name) {
		return false
	}
	return !my.Exclude.Matches(name)
}

// Readable 字段是否出现在输出类型中
func (my FieldPolicy) Readable(name string) bool {
	return my.Selected(name) && !my.WriteOnly.Matches(name)
}

// Writable 字段是否出现在输入类型中
func (my FieldPolicy) Writable(name string) bool {
	return my.Selected(name) && !my.ReadOnly.Matches(name)
}

func (my FieldPolicy) validate(source string) error {
	if both := lo.Intersect(my.Include.Names, my.Exclude.Names); len(both) > 0 {
		return protocol.NewConfigError(source, fmt.Sprintf("字段 %v 同时出现在 include 和 exclude 中", both), nil)
	}
	return nil
}

// Nested 嵌套创建策略
type Nested struct {
	Enabled       bool                 `mapstructure:"enabled"`
	Fields        *FieldPolicy         `mapstructure:"fields"`
	Relationships map[string]*Relation `mapstructure:"relationships"`
	PK            []string             `mapstructure:"pk"`
}

// Overrides 是否覆盖了目标实体的字段或关系配置
func (my Nested) Overrides() bool {
	return my.Fields != nil || my.Relationships != nil
}

// Relation 关系策略
type Relation struct {
	Include        bool   `mapstructure:"include"`
	ReadOnly       bool   `mapstructure:"read_only"`
	Nested         bool   `mapstructure:"nested"`
	NestedCreation Nested `mapstructure:"nested_creation"`
	NestedUpdates  bool   `mapstructure:"nested_updates"`
	MaxDepth       *int   `mapstructure:"max_depth"`
}

// Depth 返回最大展开深度
func (my *Relation) Depth() int {
	if my == nil || my.MaxDepth == nil {
		return DEFAULT_MAX_DEPTH
	}
	return *my.MaxDepth
}

// Model 单个实体合并后的配置
type Model struct {
	Description   string               `mapstructure:"description"`
	Fields        FieldPolicy          `mapstructure:"fields"`
	Relationships map[string]*Relation `mapstructure:"relationships"`
	// Security 与 Cache 原样透传,引擎不解释
	Security map[string]any `mapstructure:"security"`
	Cache    map[string]any `mapstructure:"cache"`
}

// Relation 获取关系策略,未配置时返回 nil
func (my *Model) Relation(name string) *Relation {
	if my == nil {
		return nil
	}
	return my.Relationships[name]
}

// Override 应用嵌套创建策略中的覆盖项
func (my *Model) Override(n Nested) *Model {
	out := *my
	if n.Fields != nil {
		out.Fields = *n.Fields
	}
	if n.Relationships != nil {
		out.Relationships = n.Relationships
	}
	return &out
}

func (my *Model) validate(source string) error {
	if err := my.Fields.validate(source); err != nil {
		return err
	}
	for _, name := range utl.SortKeys(my.Relationships) {
		r := my.Relationships[name]
		if r == nil {
			continue
		}
		if r.MaxDepth != nil && *r.MaxDepth < 0 {
			return protocol.NewConfigError(source, fmt.Sprintf("关系 %s 的 max_depth 不能为负数", name), nil)
		}
		if r.NestedCreation.Fields != nil {
			if err := r.NestedCreation.Fields.validate(source + "." + name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Decode 将合并后的配置树解码为 Model
func Decode(source string, raw map[string]any) (*Model, error) {
	m := &Model{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(selectorHook, nestedHook),
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           m,
	})
	if err != nil {
		return nil, fmt.Errorf("创建配置解码器失败: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, protocol.NewConfigError(source, "解码配置失败", err)
	}
	if err := m.validate(source); err != nil {
		return nil, err
	}
	return m, nil
}

var (
	selectorType = reflect.TypeOf(Selector{})
	nestedType   = reflect.TypeOf(Nested{})
)

// selectorHook 支持 "__all__" 与字段名列表两种写法
func selectorHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != selectorType {
		return data, nil
	}
	switch v := data.(type) {
	case nil:
		return Selector{}, nil
	case Selector:
		return v, nil
	case string:
		if v == ALL {
			return Selector{Defined: true, All: true}, nil
		}
		return nil, fmt.Errorf("字段选择器只接受列表或 %q, 实际为 %q", ALL, v)
	case []string:
		return Selector{Defined: true, Names: v}, nil
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("字段名必须是字符串, 实际为 %v", item)
			}
			names = append(names, s)
		}
		return Selector{Defined: true, Names: names}, nil
	default:
		return nil, fmt.Errorf("无法解析字段选择器: %v", data)
	}
}

// nestedHook 支持 nested_creation 的布尔与对象两种写法,对象写法默认启用
func nestedHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != nestedType {
		return data, nil
	}
	switch v := data.(type) {
	case nil:
		return Nested{}, nil
	case bool:
		return Nested{Enabled: v}, nil
	case map[string]any:
		if _, ok := v["enabled"]; ok {
			return v, nil
		}
		out := make(map[string]any, len(v)+1)
		for key, item := range v {
			out[key] = item
		}
		out["enabled"] = true
		return out, nil
	default:
		return data, nil
	}
}
