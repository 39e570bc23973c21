package ioc

import (
	"github.com/ichaly/ideabase/std"
)

var (
	modules []Option
	servers []Option
)

// Add 注册核心模块,命令行工具与服务共用
func Add(args ...Option) {
	modules = append(modules, args...)
}

// Serve 注册只在启动HTTP服务时需要的模块
func Serve(args ...Option) {
	servers = append(servers, args...)
}

// Core 返回核心模块
func Core() Option {
	return Options(modules...)
}

// Get 返回完整的服务模块,Bootstrap 最后调用以便其它启动钩子先于监听执行
func Get() Option {
	return Options(Core(), Options(servers...), Invoke(std.Bootstrap))
}

func init() {
	Serve(
		Provide(
			std.NewFiber,
			Annotate(
				func(h *std.Health) std.Plugin { return h },
				ResultTags(`group:"plugin"`),
			),
		),
	)
}
