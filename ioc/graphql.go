package ioc

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/ichaly/ideabase/gql"
	"github.com/ichaly/ideabase/gql/config"
	"github.com/ichaly/ideabase/gql/metadata"
	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/gql/store/gormstore"
	"github.com/ichaly/ideabase/gql/store/memory"
	"github.com/ichaly/ideabase/log"
	"github.com/ichaly/ideabase/std"
)

// 提供者与存储的可选值
const (
	PROVIDER_FILE     = "file"
	PROVIDER_DATABASE = "database"
	STORE_MEMORY      = "memory"
	STORE_GORM        = "gorm"
)

func init() {
	Add(Module("graphql",
		Provide(
			std.NewHealth,
			newLoader,
			newProvider,
			newStore,
			metadata.NewCatalog,
			gql.NewEngine,
		),
	))
	Serve(Module("graphql-server",
		Provide(
			Annotate(
				gql.NewHandler,
				As(new(std.Plugin)),
				ResultTags(`group:"plugin"`),
			),
		),
		// 先于 Bootstrap 注册,保证开始监听前 schema 已就绪
		Invoke(startEngine),
	))
}

func newLoader(c *std.Config) *config.Loader {
	return config.NewLoader(c.Gql.Root)
}

func newProvider(c *std.Config, db Database) (protocol.Provider, error) {
	switch c.Gql.Provider {
	case PROVIDER_DATABASE:
		conn, err := db()
		if err != nil {
			return nil, fmt.Errorf("连接数据库失败: %w", err)
		}
		return metadata.NewDatabaseProvider(conn, c.Gql.Schemas), nil
	default:
		return metadata.NewFileProvider(c.Gql.Root), nil
	}
}

func newStore(c *std.Config, db Database, h *std.Health) (protocol.Store, error) {
	switch c.Gql.Store {
	case STORE_GORM:
		conn, err := db()
		if err != nil {
			return nil, fmt.Errorf("连接数据库失败: %w", err)
		}
		h.Register("database", func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
		return gormstore.New(conn), nil
	default:
		log.Warn().Msg("使用内存存储,重启后数据丢失")
		return memory.New(), nil
	}
}

// startEngine 启动时生成schema并按配置监听配置变更,停止时结束监听
func startEngine(l fx.Lifecycle, e *gql.Engine, h *std.Health) {
	h.Register("schema", func(context.Context) error {
		if e.Schema() == nil {
			return gql.ErrNotReady
		}
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	l.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return e.Start(ctx)
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
