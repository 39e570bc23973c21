package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/log"
	"github.com/ichaly/ideabase/utl"
)

// 配置文档约定
const (
	DIR_CONFIG    = "gql_config"
	FILE_DEFAULTS = "defaults.yml"
	FILE_MODELS   = "models.yml"
	KEY_DEFAULTS  = "defaults"
	KEY_MODELS    = "models"
	KEY_MODEL     = "model"
)

// Tree 单个分组加载后的原始配置
type Tree struct {
	Grouping string
	Defaults map[string]any
	Models   map[string]map[string]any
}

// Has 实体是否存在专属配置
func (my *Tree) Has(name string) bool {
	_, ok := my.Models[name]
	return ok
}

// Names 返回所有已配置实体名(有序)
func (my *Tree) Names() []string {
	return utl.SortKeys(my.Models)
}

// Resolve 合并默认配置并解码实体配置
func (my *Tree) Resolve(name string) (*Model, error) {
	override, ok := my.Models[name]
	if !ok {
		return nil, protocol.NewConfigError(my.Grouping, fmt.Sprintf("实体 %s 没有配置", name), nil)
	}
	return Decode(my.Grouping+"."+name, Merge(my.Defaults, override))
}

// Loader 从 <root>/<grouping>/gql_config 加载配置文档
type Loader struct {
	root string
}

// NewLoader 创建配置加载器
func NewLoader(root string) *Loader {
	return &Loader{root: root}
}

// Dir 返回分组的配置目录
func (my *Loader) Dir(grouping string) string {
	return filepath.Join(my.root, grouping, DIR_CONFIG)
}

// Load 加载分组下的全部配置文档
func (my *Loader) Load(grouping string) (*Tree, error) {
	dir := my.Dir(grouping)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, protocol.NewConfigError(dir, "读取配置目录失败", err)
	}

	tree := &Tree{
		Grouping: grouping,
		Defaults: map[string]any{},
		Models:   map[string]map[string]any{},
	}

	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		return e.Name(), !e.IsDir() && (ext == ".yml" || ext == ".yaml")
	})
	sort.Strings(files)
	// 合并文件优先加载,单模型文件后加载并覆盖同名实体
	sort.SliceStable(files, func(i, j int) bool {
		return rank(files[i]) < rank(files[j])
	})

	for _, name := range files {
		path := filepath.Join(dir, name)
		raw, err := parse(path)
		if err != nil {
			return nil, err
		}
		switch stem(name) {
		case stem(FILE_DEFAULTS):
			defaults, ok := asMap(raw[KEY_DEFAULTS])
			if raw[KEY_DEFAULTS] != nil && !ok {
				return nil, protocol.NewConfigError(path, "defaults 必须是对象", nil)
			}
			if ok {
				tree.Defaults = defaults
			}
		case stem(FILE_MODELS):
			models := raw
			if nested, ok := asMap(raw[KEY_MODELS]); ok {
				models = nested
			}
			for _, entity := range utl.SortKeys(models) {
				m, ok := asMap(models[entity])
				if !ok {
					return nil, protocol.NewConfigError(path, fmt.Sprintf("实体 %s 的配置必须是对象", entity), nil)
				}
				tree.Models[entity] = m
			}
		default:
			entity, ok := raw[KEY_MODEL].(string)
			if !ok || entity == "" {
				return nil, protocol.NewConfigError(path, "单模型配置文件缺少 model 键", nil)
			}
			delete(raw, KEY_MODEL)
			if _, exists := tree.Models[entity]; exists {
				log.Debug().Str("entity", entity).Str("file", path).Msg("单模型配置覆盖合并配置")
			}
			tree.Models[entity] = raw
		}
	}

	log.Debug().Str("grouping", grouping).Int("models", len(tree.Models)).Msg("配置文档已加载")
	return tree, nil
}

func rank(name string) int {
	switch stem(name) {
	case stem(FILE_DEFAULTS):
		return 0
	case stem(FILE_MODELS):
		return 1
	default:
		return 2
	}
}

// stem 去掉扩展名的文件名,.yml 与 .yaml 等价
func stem(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
}

// parse 使用koanf解析单个yaml文档
func parse(path string) (map[string]any, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, protocol.NewConfigError(path, "解析配置文档失败", err)
	}
	raw, _ := normalize(k.Raw()).(map[string]any)
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}
