package utl

import "sort"

// SortKeys 返回按字典序排列的键,用于保证遍历顺序稳定
func SortKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
