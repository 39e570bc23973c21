package ioc

import (
	"os"

	"github.com/ichaly/ideabase/log"
	"github.com/ichaly/ideabase/std"
)

// 日志轮转参数
const (
	LOG_MAX_SIZE    = 100
	LOG_MAX_AGE     = 30
	LOG_MAX_BACKUPS = 7
)

// 配置模块
func init() {
	Add(Module("config",
		Provide(
			// 配置文件路径由调用方通过 Supply 提供
			Annotate(
				std.WithFilePath,
				ResultTags(`group:"konfigOptions"`),
			),
			Annotate(
				std.NewKonfig,
				ParamTags(`group:"konfigOptions"`),
			),
			std.NewValidator,
			std.NewConfig,
			newLogger,
		),
		Invoke(func(*log.Logger) {}),
	))
}

// newLogger 按配置创建日志并设为全局默认
func newLogger(c *std.Config) *log.Logger {
	opts := []log.Option{log.WithLevel(log.ParseLevel(c.Log.Level)), log.WithField("app", c.Name)}
	switch {
	case c.Log.File != "":
		opts = append(opts, log.WithRotate(c.Log.File, LOG_MAX_SIZE, LOG_MAX_AGE, LOG_MAX_BACKUPS))
	case !c.IsDebug():
		opts = append(opts, log.WithOutput(os.Stdout))
	}
	l := log.NewLogger(opts...)
	log.SetDefault(l)
	return l
}
