package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/log"
)

// FILE_ENTITIES 实体描述文件名
const FILE_ENTITIES = "entities.yml"

type fieldDoc struct {
	Name     string            `yaml:"name"`
	Kind     string            `yaml:"kind"`
	Nullable bool              `yaml:"nullable"`
	Choices  []protocol.Choice `yaml:"choices"`
}

type relationDoc struct {
	Name        string `yaml:"name"`
	Target      string `yaml:"target"`
	Cardinality string `yaml:"cardinality"`
	Direction   string `yaml:"direction"`
	Nullable    bool   `yaml:"nullable"`
	Inverse     string `yaml:"inverse"`
}

type entityDoc struct {
	Name          string        `yaml:"name"`
	Identity      string        `yaml:"identity"`
	Description   string        `yaml:"description"`
	Fields        []fieldDoc    `yaml:"fields"`
	Relationships []relationDoc `yaml:"relationships"`
}

// FileProvider 从 <root>/<grouping>/entities.yml 读取实体描述
type FileProvider struct {
	root string
}

// NewFileProvider 创建文件数据模型提供者
func NewFileProvider(root string) *FileProvider {
	return &FileProvider{root: root}
}

func (my *FileProvider) Describe(_ context.Context, grouping string) ([]*protocol.Entity, error) {
	path := filepath.Join(my.root, grouping, FILE_ENTITIES)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取实体描述文件失败: %w", err)
	}

	var doc struct {
		Entities []entityDoc `yaml:"entities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, protocol.NewConfigError(path, "解析实体描述失败", err)
	}

	entities := make([]*protocol.Entity, 0, len(doc.Entities))
	for _, d := range doc.Entities {
		if d.Name == "" {
			return nil, protocol.NewConfigError(path, "实体缺少 name", nil)
		}
		entities = append(entities, d.entity())
	}
	log.Debug().Str("grouping", grouping).Int("entities", len(entities)).Msg("实体描述文件已加载")
	return entities, nil
}

func (my entityDoc) entity() *protocol.Entity {
	var kind protocol.FieldKind
	return &protocol.Entity{
		Name:        my.Name,
		Identity:    my.Identity,
		Description: my.Description,
		Fields: lo.Map(my.Fields, func(f fieldDoc, _ int) *protocol.Field {
			return &protocol.Field{Name: f.Name, Kind: kind.Parse(f.Kind), Nullable: f.Nullable, Choices: f.Choices}
		}),
		Relationships: lo.Map(my.Relationships, func(r relationDoc, _ int) *protocol.Relationship {
			return &protocol.Relationship{
				Name:        r.Name,
				Target:      r.Target,
				Cardinality: lo.Ternary(r.Cardinality == string(protocol.MULTI), protocol.MULTI, protocol.SINGLE),
				Direction:   lo.Ternary(r.Direction == string(protocol.REVERSE), protocol.REVERSE, protocol.FORWARD),
				Nullable:    r.Nullable,
				Inverse:     r.Inverse,
			}
		}),
	}
}
