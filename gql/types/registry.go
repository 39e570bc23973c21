package types

import (
	"errors"
	"fmt"

	"github.com/ichaly/ideabase/gql/protocol"
)

// Key 类型缓存键
// Variant 区分同一实体同一深度下的专属嵌套输入(如 "Post.author")或枚举字段
type Key struct {
	Entity  string
	Kind    Kind
	Depth   int
	Variant string
}

func (my Key) String() string {
	if my.Variant == "" {
		return fmt.Sprintf("%s/%s/%d", my.Entity, my.Kind, my.Depth)
	}
	return fmt.Sprintf("%s/%s/%d/%s", my.Entity, my.Kind, my.Depth, my.Variant)
}

// ErrFrozen 冻结后不允许再注册类型
var ErrFrozen = errors.New("类型注册表已冻结")

// Registry 单次生成过程独占的类型注册表
// 按注册顺序保存类型,保证多次生成结果一致
type Registry struct {
	byKey  map[Key]*Descriptor
	byName map[string]Key
	order  []*Descriptor
	frozen bool
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		byKey:  map[Key]*Descriptor{},
		byName: map[string]Key{},
	}
}

// Lookup 按缓存键查找
func (my *Registry) Lookup(key Key) (*Descriptor, bool) {
	d, ok := my.byKey[key]
	return d, ok
}

// Get 按类型名查找
func (my *Registry) Get(name string) (*Descriptor, bool) {
	key, ok := my.byName[name]
	if !ok {
		return nil, false
	}
	return my.byKey[key], true
}

// Put 注册类型,类型名已被其他键占用时返回 NameCollisionError
func (my *Registry) Put(key Key, d *Descriptor) error {
	if my.frozen {
		return ErrFrozen
	}
	if prev, ok := my.byName[d.Name]; ok && prev != key {
		return &protocol.NameCollisionError{Name: d.Name, First: prev.String(), Second: key.String()}
	}
	if _, ok := my.byKey[key]; !ok {
		my.order = append(my.order, d)
	}
	my.byKey[key] = d
	my.byName[d.Name] = key
	return nil
}

// Types 按注册顺序返回全部类型
func (my *Registry) Types() []*Descriptor {
	return append([]*Descriptor(nil), my.order...)
}

// Len 已注册类型数量
func (my *Registry) Len() int {
	return len(my.order)
}

// Freeze 冻结注册表,之后只读
func (my *Registry) Freeze() {
	my.frozen = true
}

// Frozen 是否已冻结
func (my *Registry) Frozen() bool {
	return my.frozen
}
