package log

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/ichaly/ideabase/log/internal"
)

// Option 日志配置项
type Option func(zerolog.Logger) zerolog.Logger

// WithOutput 以JSON格式输出到指定writer
func WithOutput(w io.Writer) Option {
	return func(l zerolog.Logger) zerolog.Logger {
		return l.Output(w)
	}
}

// WithConsole 以控制台格式输出到指定writer
func WithConsole(w io.Writer) Option {
	return func(l zerolog.Logger) zerolog.Logger {
		return l.Output(console(w))
	}
}

// WithLevel 设置日志级别
func WithLevel(level Level) Option {
	return func(l zerolog.Logger) zerolog.Logger {
		return l.Level(level)
	}
}

// WithRotate 输出到按大小轮转的日志文件
func WithRotate(filename string, maxSize, maxAge, maxBackups int) Option {
	return func(l zerolog.Logger) zerolog.Logger {
		return l.Output(internal.NewRotateWriter(filename, maxSize, maxAge, maxBackups))
	}
}

// WithField 为所有日志附加固定字段
func WithField(key, value string) Option {
	return func(l zerolog.Logger) zerolog.Logger {
		return l.With().Str(key, value).Logger()
	}
}
