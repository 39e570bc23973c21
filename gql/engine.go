package gql

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/config"
	"github.com/ichaly/ideabase/gql/metadata"
	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/gql/renderer"
	"github.com/ichaly/ideabase/log"
	"github.com/ichaly/ideabase/std"
)

// WATCH_DEBOUNCE 配置变更的防抖时间
const WATCH_DEBOUNCE = 300 * time.Millisecond

// ErrNotReady schema尚未生成
var ErrNotReady = errors.New("schema尚未生成")

type state struct {
	schema     *Schema
	executor   *Executor
	dispatcher *Dispatcher
}

// Engine 负责生成schema并对外提供请求分发,重新生成成功后原子替换
type Engine struct {
	cfg       std.GqlConfig
	loader    *config.Loader
	catalog   *metadata.Catalog
	store     protocol.Store
	validator *std.Validator

	mu    sync.Mutex
	state atomic.Pointer[state]
}

// NewEngine 创建引擎
func NewEngine(c *std.Config, l *config.Loader, catalog *metadata.Catalog, store protocol.Store, v *std.Validator) *Engine {
	return &Engine{cfg: c.Gql, loader: l, catalog: catalog, store: store, validator: v}
}

// Groupings 返回参与生成的分组,未配置时扫描根目录下含配置目录的子目录
func (my *Engine) Groupings() ([]string, error) {
	if len(my.cfg.Apps) > 0 {
		return my.cfg.Apps, nil
	}
	entries, err := os.ReadDir(my.cfg.Root)
	if err != nil {
		return nil, protocol.NewConfigError(my.cfg.Root, "读取配置根目录失败", err)
	}
	apps := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if !e.IsDir() {
			return "", false
		}
		info, err := os.Stat(my.loader.Dir(e.Name()))
		return e.Name(), err == nil && info.IsDir()
	})
	sort.Strings(apps)
	return apps, nil
}

// Build 执行一次完整的生成过程,失败时保留当前schema
func (my *Engine) Build(ctx context.Context) (*Schema, error) {
	my.mu.Lock()
	defer my.mu.Unlock()

	apps, err := my.Groupings()
	if err != nil {
		return nil, err
	}
	entries, err := my.catalog.EntitiesFor(ctx, apps)
	if err != nil {
		return nil, fmt.Errorf("加载实体目录失败: %w", err)
	}
	schema, err := Assemble(entries, my.cfg.Limit)
	if err != nil {
		return nil, err
	}
	if m, ok := my.store.(protocol.Migrator); ok {
		entities := lo.Map(entries, func(e *metadata.Entry, _ int) *protocol.Entity { return e.Entity })
		if err := m.Migrate(ctx, entities); err != nil {
			return nil, fmt.Errorf("迁移存储结构失败: %w", err)
		}
	}
	if my.cfg.SchemaFile != "" {
		if err := renderer.Save(my.cfg.SchemaFile, schema.SDL); err != nil {
			return nil, err
		}
	}

	executor := NewExecutor(schema, my.store, my.validator, my.cfg.Limit)
	my.state.Store(&state{schema: schema, executor: executor, dispatcher: NewDispatcher(schema, executor)})
	log.Info().Strs("apps", apps).Msg("schema已就绪")
	return schema, nil
}

// Schema 返回当前服务的schema
func (my *Engine) Schema() *Schema {
	if s := my.state.Load(); s != nil {
		return s.schema
	}
	return nil
}

// Executor 返回当前schema绑定的执行器
func (my *Engine) Executor() *Executor {
	if s := my.state.Load(); s != nil {
		return s.executor
	}
	return nil
}

// Do 在当前schema上执行请求
func (my *Engine) Do(ctx context.Context, req Request) *std.Result {
	s := my.state.Load()
	if s == nil {
		return failure(CODE_BAD_REQUEST, ErrNotReady.Error())
	}
	return s.dispatcher.Do(ctx, req)
}

// Watch 配置文档变更时重新生成,直到 ctx 结束
func (my *Engine) Watch(ctx context.Context) error {
	apps, err := my.Groupings()
	if err != nil {
		return err
	}
	dirs := lo.Map(apps, func(app string, _ int) string { return my.loader.Dir(app) })
	return config.Watch(ctx, dirs, WATCH_DEBOUNCE, func() {
		if _, err := my.Build(ctx); err != nil {
			log.Error().Err(err).Msg("重新生成schema失败,继续使用旧schema")
		}
	})
}

// Start 首次生成并按配置启动监听
func (my *Engine) Start(ctx context.Context) error {
	if _, err := my.Build(ctx); err != nil {
		return err
	}
	if my.cfg.Watch {
		return my.Watch(ctx)
	}
	return nil
}
