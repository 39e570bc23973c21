package std

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"github.com/ichaly/ideabase/log"
)

var (
	// Version 当前版本号
	Version = "V0.0.0"
	// GitCommit Git提交哈希
	GitCommit = "Unknown"
	// BuildTime 构建时间
	BuildTime = ""

	reg = regexp.MustCompile(`/+`)
)

// Plugin 插件接口
type Plugin interface {
	// Base 插件基础路径
	Base() string
	// Init 初始化插件
	Init(fiber.Router)
}

// PluginGroup 插件组
type PluginGroup struct {
	fx.In
	Plugins     []Plugin `group:"plugin"`
	Middlewares []Plugin `group:"middleware"`
}

// Mount 按基础路径挂载插件,相同路径共用一个路由组,中间件先于插件挂载
func Mount(a *fiber.App, g PluginGroup) {
	routers := map[string]fiber.Router{"/": a}
	router := func(base string) fiber.Router {
		// 合并连续斜杠并统一以斜杠结尾
		base = strings.TrimRight(reg.ReplaceAllString(base, "/"), "/") + "/"
		if r, ok := routers[base]; ok {
			return r
		}
		r := a.Group(base)
		routers[base] = r
		return r
	}
	for _, p := range append(append([]Plugin{}, g.Middlewares...), g.Plugins...) {
		p.Init(router(p.Base()))
		log.Debug().Str("base", p.Base()).Msg("插件已挂载")
	}
}

// Bootstrap 挂载插件并在生命周期内启停服务
func Bootstrap(l fx.Lifecycle, c *Config, a *fiber.App, g PluginGroup) {
	if BuildTime == "" {
		BuildTime = time.Now().Format("2006-01-02 15:04:05")
	}
	Mount(a, g)

	l.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := net.JoinHostPort(c.Host, c.Port)
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("%s 监听 %s 失败: %w", c.Name, addr, err)
			}
			go func() {
				if err := a.Listener(ln); err != nil {
					log.Error().Err(err).Str("app", c.Name).Msg("服务异常退出")
				}
			}()
			log.Info().Str("app", c.Name).Str("addr", addr).
				Str("version", Version).Str("commit", GitCommit).Str("build", BuildTime).
				Msg("服务已启动")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := a.ShutdownWithContext(ctx)
			log.Info().Str("app", c.Name).Msg("服务已关闭")
			return err
		},
	})
}
