package renderer

import (
	"strings"
)

// Build 构建字段定义字符串
func Build(f *Field) string {
	var sb strings.Builder
	sb.Grow(estimateSize(f))

	sb.WriteString(strings.Repeat(" ", f.Indent))
	sb.WriteString(f.Name)

	if len(f.Args) > 0 {
		sb.WriteByte('(')
		for i, arg := range f.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.Name)
			sb.WriteString(": ")
			sb.WriteString(arg.Type)
			if arg.Default != "" {
				sb.WriteString(" = ")
				sb.WriteString(arg.Default)
			}
		}
		sb.WriteByte(')')
	}

	sb.WriteString(": ")
	writeType(&sb, f.Type)

	if f.Comment != "" {
		sb.WriteString("  # ")
		sb.WriteString(f.Comment)
	}
	return sb.String()
}

// TypeString 返回类型的SDL表示,如 [ID!]!
func TypeString(t Type) string {
	var sb strings.Builder
	writeType(&sb, t)
	return sb.String()
}

func writeType(sb *strings.Builder, t Type) {
	if t.IsList {
		sb.WriteByte('[')
		sb.WriteString(t.Name)
		if t.ListItemNonNull {
			sb.WriteByte('!')
		}
		sb.WriteByte(']')
	} else {
		sb.WriteString(t.Name)
	}
	if t.IsNonNull {
		sb.WriteByte('!')
	}
}

// 预估字段字符串长度
func estimateSize(f *Field) int {
	size := f.Indent + len(f.Name) + len(f.Type.Name) + 6
	if f.Comment != "" {
		size += len(f.Comment) + 4
	}
	for _, arg := range f.Args {
		size += len(arg.Name) + len(arg.Type) + len(arg.Default) + 7
	}
	return size
}

// MakeField 创建、构建并释放字段的便捷方法
func MakeField(name string, typeName string, options ...Option) string {
	f := New(name, typeName, options...)
	str := Build(f)
	Release(f)
	return str
}
