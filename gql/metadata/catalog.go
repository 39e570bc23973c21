package metadata

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/ichaly/ideabase/gql/config"
	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/log"
)

// Entry 实体描述与其合并后的配置
type Entry struct {
	Grouping string
	Entity   *protocol.Entity
	Config   *config.Model
}

// Catalog 实体目录,将数据模型提供者的描述与分组配置配对
type Catalog struct {
	loader   *config.Loader
	provider protocol.Provider
}

// NewCatalog 创建实体目录
func NewCatalog(loader *config.Loader, provider protocol.Provider) *Catalog {
	return &Catalog{loader: loader, provider: provider}
}

// EntitiesFor 返回所有分组中有配置的实体,顺序为分组顺序加描述顺序
// 有描述但没有配置的实体被排除,只记录日志
func (my *Catalog) EntitiesFor(ctx context.Context, groupings []string) ([]*Entry, error) {
	results := make([][]*Entry, len(groupings))
	g, ctx := errgroup.WithContext(ctx)
	for i, grouping := range groupings {
		g.Go(func() error {
			entries, err := my.entries(ctx, grouping)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*Entry
	for _, entries := range results {
		out = append(out, entries...)
	}
	return out, nil
}

func (my *Catalog) entries(ctx context.Context, grouping string) ([]*Entry, error) {
	tree, err := my.loader.Load(grouping)
	if err != nil {
		return nil, err
	}
	described, err := my.provider.Describe(ctx, grouping)
	if err != nil {
		return nil, fmt.Errorf("获取分组%s的实体描述失败: %w", grouping, err)
	}
	entities := InferReverse(described)
	if err := check(grouping, entities); err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(entities))
	for _, e := range entities {
		if !tree.Has(e.Name) {
			log.Info().Str("grouping", grouping).Str("entity", e.Name).Msg("实体没有配置,已排除")
			continue
		}
		m, err := tree.Resolve(e.Name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &Entry{Grouping: grouping, Entity: e, Config: m})
	}
	for _, name := range tree.Names() {
		if _, ok := find(entities, name); !ok {
			log.Warn().Str("grouping", grouping).Str("entity", name).Msg("配置的实体没有描述")
		}
	}
	return entries, nil
}

// check 校验关系目标存在且主键字段已声明
func check(grouping string, entities []*protocol.Entity) error {
	for _, e := range entities {
		if _, ok := e.GetField(e.IdentityName()); !ok {
			return protocol.NewConfigError(grouping+"."+e.Name, fmt.Sprintf("缺少标识字段 %s", e.IdentityName()), nil)
		}
		for _, r := range e.Relationships {
			if _, ok := find(entities, r.Target); !ok {
				return protocol.NewConfigError(grouping+"."+e.Name, fmt.Sprintf("关系 %s 的目标实体 %s 不存在", r.Name, r.Target), nil)
			}
		}
	}
	return nil
}

func find(entities []*protocol.Entity, name string) (*protocol.Entity, bool) {
	return lo.Find(entities, func(e *protocol.Entity) bool { return e.Name == name })
}
