package utl

import (
	"strings"
)

// JoinString 连接多个字符串
func JoinString(elem ...string) string {
	size := 0
	for _, e := range elem {
		size += len(e)
	}
	b := strings.Builder{}
	b.Grow(size)
	for _, e := range elem {
		b.WriteString(e)
	}
	return b.String()
}

// IsName 判断字符串是否为合法的GraphQL名称 /[_A-Za-z][_0-9A-Za-z]*/
func IsName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
