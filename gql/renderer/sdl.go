package renderer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/types"
	"github.com/ichaly/ideabase/log"
)

const (
	DESC_SCHEMA_TITLE = "IdeaBase GraphQL Schema"
	DESC_SCALAR_TYPES = "自定义标量类型"
	DESC_DATE_TIME    = "RFC3339 时间"
	DESC_DATE         = "日期 yyyy-MM-dd"

	// PLACEHOLDER 没有任何字段的类型使用占位字段,保证SDL合法
	PLACEHOLDER = "_"
)

// Operation 根类型上的字段
type Operation struct {
	Name    string
	Args    []Argument
	Type    Type
	Comment string
}

// Root 根类型,如 Query、Mutation
type Root struct {
	Name       string
	Operations []Operation
}

// Renderer 将注册表中的类型和根操作渲染为SDL
type Renderer struct {
	registry *types.Registry
	roots    []Root
	sb       *strings.Builder
}

// Render 渲染完整的SDL文档
func Render(registry *types.Registry, roots ...Root) (string, error) {
	return (&Renderer{registry: registry, roots: roots, sb: &strings.Builder{}}).Generate()
}

// Generate 生成SDL
func (my *Renderer) Generate() (string, error) {
	my.sb.Reset()
	my.writeLine("# ", DESC_SCHEMA_TITLE, "\n")

	renderFuncs := []struct {
		name string
		fn   func() error
	}{
		{"标量类型", my.renderScalars},
		{"枚举类型", my.renderEnums},
		{"输出类型", my.renderKind(types.KIND_OUTPUT, "type")},
		{"输入类型", my.renderKind(types.KIND_INPUT, "input")},
		{"更新类型", my.renderKind(types.KIND_UPDATE, "input")},
		{"根类型", my.renderRoots},
	}
	for _, rf := range renderFuncs {
		if err := rf.fn(); err != nil {
			return "", fmt.Errorf("渲染%s失败: %w", rf.name, err)
		}
	}
	return my.sb.String(), nil
}

func (my *Renderer) writeLine(parts ...string) {
	my.write(parts...)
	my.write("\n")
}

func (my *Renderer) write(parts ...string) {
	for _, part := range parts {
		my.sb.WriteString(part)
	}
}

func (my *Renderer) renderScalars() error {
	my.writeLine("# ", DESC_SCALAR_TYPES)
	my.writeLine("scalar ", types.SCALAR_DATE_TIME, "  # ", DESC_DATE_TIME)
	my.writeLine("scalar ", types.SCALAR_DATE, "  # ", DESC_DATE)
	my.writeLine()
	return nil
}

func (my *Renderer) renderEnums() error {
	for _, d := range my.descriptors(types.KIND_ENUM) {
		if len(d.Values) == 0 {
			return fmt.Errorf("枚举 %s 没有可选值", d.Name)
		}
		my.writeLine("enum ", d.Name, " {")
		for _, v := range d.Values {
			my.writeLine("  ", v)
		}
		my.writeLine("}")
		my.writeLine()
	}
	return nil
}

func (my *Renderer) renderKind(kind types.Kind, keyword string) func() error {
	return func() error {
		for _, d := range my.descriptors(kind) {
			if d.Description != "" {
				my.writeLine("# ", d.Description)
			}
			my.writeLine(keyword, " ", d.Name, " {")
			if len(d.Fields) == 0 {
				my.writeLine(MakeField(PLACEHOLDER, types.SCALAR_BOOLEAN))
			}
			for _, f := range d.Fields {
				if f.Type == "" {
					return fmt.Errorf("字段 %s.%s 缺少类型", d.Name, f.Name)
				}
				my.writeLine(MakeField(f.Name, f.Type,
					When(f.List || f.ItemNonNull, ListOf(f.ItemNonNull)),
					When(f.NonNull, NonNull()),
					Comment(f.Description),
				))
			}
			my.writeLine("}")
			my.writeLine()
		}
		return nil
	}
}

func (my *Renderer) renderRoots() error {
	for _, root := range my.roots {
		if len(root.Operations) == 0 {
			return fmt.Errorf("根类型 %s 没有字段", root.Name)
		}
		my.writeLine("type ", root.Name, " {")
		for _, op := range root.Operations {
			f := New(op.Name, op.Type.Name, Args(op.Args...), Comment(op.Comment))
			f.Type = op.Type
			my.writeLine(Build(f))
			Release(f)
		}
		my.writeLine("}")
		my.writeLine()
	}
	return nil
}

func (my *Renderer) descriptors(kind types.Kind) []*types.Descriptor {
	return lo.Filter(my.registry.Types(), func(d *types.Descriptor, _ int) bool { return d.Kind == kind })
}

// Save 将SDL写入文件,目录不存在时自动创建
func Save(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建schema目录失败: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("写入schema文件失败: %w", err)
	}
	log.Info().Str("path", path).Msg("Schema文件已生成")
	return nil
}
