package protocol

// Cardinality 关系基数
type Cardinality string

const (
	SINGLE Cardinality = "single"
	MULTI  Cardinality = "multi"
)

// Direction 关系方向
type Direction string

const (
	FORWARD Direction = "forward" // 在所属实体上声明
	REVERSE Direction = "reverse" // 由目标实体的正向关系推断
)

// RelationClass 关系分类
type RelationClass string

const (
	DIRECT_SINGLE RelationClass = "direct_single"
	DIRECT_MULTI  RelationClass = "direct_multi" // 正向多值或反向单值
	REVERSE_MULTI RelationClass = "reverse_multi"
)

// Relationship 表示实体之间的关系描述
type Relationship struct {
	Name        string      `json:"name"`
	Target      string      `json:"target"`
	Cardinality Cardinality `json:"cardinality"`
	Direction   Direction   `json:"direction"`
	Nullable    bool        `json:"nullable"`
	// Inverse 对端关系名称,反向关系通过它定位存储引用的字段
	Inverse string `json:"inverse,omitempty"`
}

// IsMulti 是否为多值关系
func (my *Relationship) IsMulti() bool {
	return my.Cardinality == MULTI
}

// IsReverse 是否为推断出的反向关系
func (my *Relationship) IsReverse() bool {
	return my.Direction == REVERSE
}

// Class 返回关系分类
func (my *Relationship) Class() RelationClass {
	switch {
	case !my.IsReverse() && !my.IsMulti():
		return DIRECT_SINGLE
	case my.IsReverse() && my.IsMulti():
		return REVERSE_MULTI
	default:
		return DIRECT_MULTI
	}
}
