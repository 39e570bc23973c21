package renderer

import "sync"

var fields = sync.Pool{
	New: func() any {
		return &Field{Indent: DEFAULT_INDENT, Args: make([]Argument, 0, 2)}
	},
}

func acquire() *Field {
	return fields.Get().(*Field)
}

// Release 重置字段并放回对象池
func Release(f *Field) {
	f.reset()
	fields.Put(f)
}
