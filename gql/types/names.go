package types

import (
	"strconv"

	"github.com/iancoleman/strcase"

	"github.com/ichaly/ideabase/gql/protocol"
)

// 类型名后缀
const (
	SUFFIX_OUTPUT        = "Output"
	SUFFIX_INPUT         = "Input"
	SUFFIX_UPDATE_INPUT  = "UpdateInput"
	SUFFIX_NESTED_INPUT  = "NestedInput"
	SUFFIX_NESTED_OUTPUT = "NestedOutput"
	SUFFIX_ENUM          = "Enum"
)

// 标量类型
const (
	SCALAR_ID        = "ID"
	SCALAR_STRING    = "String"
	SCALAR_INT       = "Int"
	SCALAR_FLOAT     = "Float"
	SCALAR_BOOLEAN   = "Boolean"
	SCALAR_DATE_TIME = "DateTime"
	SCALAR_DATE      = "Date"
)

// CUSTOM_SCALARS 需要在schema中声明的自定义标量
var CUSTOM_SCALARS = []string{SCALAR_DATE_TIME, SCALAR_DATE}

// EntityName 实体在类型名中的形式,如 blog_post 转为 BlogPost
func EntityName(name string) string {
	return strcase.ToCamel(name)
}

// TypeName 根据实体、种类、深度推导类型名
// owner 与 relation 非空时表示某个关系专属的嵌套输入
func TypeName(entity string, kind Kind, depth int, owner, relation string) string {
	base := EntityName(entity)
	switch {
	case kind == KIND_UPDATE:
		return base + SUFFIX_UPDATE_INPUT
	case depth == 0 && kind == KIND_OUTPUT:
		return base + SUFFIX_OUTPUT
	case depth == 0:
		return base + SUFFIX_INPUT
	}

	suffix := SUFFIX_NESTED_OUTPUT
	if kind == KIND_INPUT {
		suffix = SUFFIX_NESTED_INPUT
		if owner != "" {
			base = EntityName(owner) + strcase.ToCamel(relation)
		}
	}
	if depth > 1 {
		suffix += strconv.Itoa(depth)
	}
	return base + suffix
}

// EnumName 枚举类型名,如 PostStatusEnum
func EnumName(entity, field string) string {
	return EntityName(entity) + strcase.ToCamel(field) + SUFFIX_ENUM
}

// Scalar 字段原始类型对应的标量
func Scalar(kind protocol.FieldKind) string {
	switch kind {
	case protocol.KIND_INTEGER:
		return SCALAR_INT
	case protocol.KIND_FLOAT:
		return SCALAR_FLOAT
	case protocol.KIND_BOOLEAN:
		return SCALAR_BOOLEAN
	case protocol.KIND_TIMESTAMP:
		return SCALAR_DATE_TIME
	case protocol.KIND_DATE:
		return SCALAR_DATE
	case protocol.KIND_IDENTIFIER:
		return SCALAR_ID
	default:
		return SCALAR_STRING
	}
}
