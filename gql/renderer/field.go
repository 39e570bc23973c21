package renderer

// DEFAULT_INDENT 类型内字段的缩进空格数
const DEFAULT_INDENT = 2

// Type SDL中的类型引用,如 [ID!]!
type Type struct {
	Name            string
	IsNonNull       bool
	IsList          bool
	ListItemNonNull bool
}

// Argument 字段参数,Default 非空时渲染默认值
type Argument struct {
	Name    string
	Type    string
	Default string
}

// Field 一行字段定义
type Field struct {
	Name    string
	Type    Type
	Comment string
	Args    []Argument
	Indent  int
}

func (my *Field) reset() {
	args := my.Args[:0]
	*my = Field{Indent: DEFAULT_INDENT, Args: args}
}

// Option 字段选项
type Option func(*Field)

func NonNull() Option {
	return func(f *Field) { f.Type.IsNonNull = true }
}

// ListOf 标记为列表,itemNonNull 控制元素是否非空
func ListOf(itemNonNull bool) Option {
	return func(f *Field) {
		f.Type.IsList = true
		f.Type.ListItemNonNull = itemNonNull
	}
}

// When 条件成立时才应用 opt
func When(ok bool, opt Option) Option {
	if !ok {
		return func(*Field) {}
	}
	return opt
}

func Comment(text string) Option {
	return func(f *Field) { f.Comment = text }
}

func Indent(spaces int) Option {
	return func(f *Field) { f.Indent = spaces }
}

func Args(args ...Argument) Option {
	return func(f *Field) { f.Args = append(f.Args, args...) }
}

// New 从对象池取出字段并应用选项,用完后调用 Release
func New(name, typeName string, options ...Option) *Field {
	f := acquire()
	f.Name, f.Type.Name = name, typeName
	for _, opt := range options {
		opt(f)
	}
	return f
}
