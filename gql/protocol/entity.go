package protocol

import "github.com/samber/lo"

// FieldKind 表示字段的原始类型
type FieldKind string

// 字段类型常量
const (
	KIND_TEXT       FieldKind = "text"
	KIND_INTEGER    FieldKind = "integer"
	KIND_FLOAT      FieldKind = "float"
	KIND_BOOLEAN    FieldKind = "boolean"
	KIND_TIMESTAMP  FieldKind = "timestamp"
	KIND_DATE       FieldKind = "date"
	KIND_IDENTIFIER FieldKind = "identifier"
)

// Parse 从字符串转换为字段类型,未知类型回退为文本
func (my FieldKind) Parse(kind string) FieldKind {
	switch FieldKind(kind) {
	case KIND_INTEGER, KIND_FLOAT, KIND_BOOLEAN, KIND_TIMESTAMP, KIND_DATE, KIND_IDENTIFIER:
		return FieldKind(kind)
	case "int", "bigint", "smallint":
		return KIND_INTEGER
	case "decimal", "double", "numeric":
		return KIND_FLOAT
	case "bool":
		return KIND_BOOLEAN
	case "datetime":
		return KIND_TIMESTAMP
	case "id", "uuid":
		return KIND_IDENTIFIER
	default:
		return KIND_TEXT
	}
}

// Choice 表示可选值(值,显示名)
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Field 表示实体的字段描述
type Field struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Nullable bool      `json:"nullable"`
	Choices  []Choice  `json:"choices,omitempty"`
}

// HasChoices 是否为枚举字段
func (my *Field) HasChoices() bool {
	return len(my.Choices) > 0
}

// ChoiceValues 返回所有可选值
func (my *Field) ChoiceValues() []string {
	return lo.Map(my.Choices, func(c Choice, _ int) string { return c.Value })
}

// Entity 表示一个实体的完整描述,生成过程中不可修改
type Entity struct {
	Name          string          `json:"name"`
	Identity      string          `json:"identity"`
	Description   string          `json:"description,omitempty"`
	Fields        []*Field        `json:"fields"`
	Relationships []*Relationship `json:"relationships"`
}

// IdentityName 返回主键字段名,默认为 id
func (my *Entity) IdentityName() string {
	if my.Identity == "" {
		return IDENTITY
	}
	return my.Identity
}

// GetField 按名称查找字段
func (my *Entity) GetField(name string) (*Field, bool) {
	return lo.Find(my.Fields, func(f *Field) bool { return f.Name == name })
}

// GetRelationship 按名称查找关系
func (my *Entity) GetRelationship(name string) (*Relationship, bool) {
	return lo.Find(my.Relationships, func(r *Relationship) bool { return r.Name == name })
}

// IDENTITY 默认主键字段名
const IDENTITY = "id"
