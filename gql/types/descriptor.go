package types

import (
	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/config"
	"github.com/ichaly/ideabase/gql/protocol"
)

// Kind 生成的类型种类
type Kind string

const (
	KIND_OUTPUT Kind = "output"
	KIND_INPUT  Kind = "input"
	KIND_UPDATE Kind = "update"
	KIND_ENUM   Kind = "enum"
)

// IsInput 是否为输入类型(创建或更新)
func (my Kind) IsInput() bool {
	return my == KIND_INPUT || my == KIND_UPDATE
}

// Field 生成类型中的字段
type Field struct {
	Name        string
	Type        string
	List        bool
	NonNull     bool
	ItemNonNull bool
	Description string

	// Source 与 Relation 二选一,标明字段来源
	Source   *protocol.Field
	Relation *protocol.Relationship
	// Nested 关系以嵌套类型表示时指向目标描述
	Nested *Descriptor
	// Enum 枚举字段指向枚举描述
	Enum *Descriptor
}

// IsRelation 是否来自关系
func (my *Field) IsRelation() bool {
	return my.Relation != nil
}

// IsNested 是否以嵌套类型表示
func (my *Field) IsNested() bool {
	return my.Nested != nil
}

// Descriptor 生成的类型描述,生成完成后只读
type Descriptor struct {
	Name        string
	Kind        Kind
	Depth       int
	Description string
	Fields      []*Field
	// Values 枚举的取值,均为底层可选值
	Values []string

	Entity *protocol.Entity
	Config *config.Model
	// PK 嵌套输入用于判断关联已有记录的主键字段
	PK []string
}

// Field 按名称查找字段
func (my *Descriptor) Field(name string) (*Field, bool) {
	return lo.Find(my.Fields, func(f *Field) bool { return f.Name == name })
}

// FieldNames 返回字段名列表
func (my *Descriptor) FieldNames() []string {
	return lo.Map(my.Fields, func(f *Field, _ int) string { return f.Name })
}

// IsNestedInput 是否为深度大于0的输入类型
func (my *Descriptor) IsNestedInput() bool {
	return my.Kind == KIND_INPUT && my.Depth > 0
}
