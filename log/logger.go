package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Level = zerolog.Level

const (
	TraceLevel = zerolog.TraceLevel
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
	Disabled   = zerolog.Disabled
)

// Logger 日志记录器
type Logger struct {
	l zerolog.Logger
}

// NewLogger 创建新的日志记录器,默认输出到控制台
func NewLogger(ops ...Option) *Logger {
	zerolog.TimeFieldFormat = time.DateTime
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.TimestampFieldName = "time"

	l := zerolog.New(console(os.Stdout)).With().Timestamp().Logger()
	for _, o := range ops {
		l = o(l)
	}
	return &Logger{l: l}
}

func console(out io.Writer) zerolog.ConsoleWriter {
	w := zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	w.FormatTimestamp = func(i interface{}) string {
		return fmt.Sprintf("[%s] ", i)
	}
	w.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	w.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf(" %s=", i)
	}
	return w
}

// SetLevel 设置日志级别
func (my *Logger) SetLevel(level Level) {
	my.l = my.l.Level(level)
}

// With 返回带有上下文字段的构建器
func (my *Logger) With() zerolog.Context {
	return my.l.With()
}

func (my *Logger) Trace() *zerolog.Event { return my.l.Trace() }
func (my *Logger) Debug() *zerolog.Event { return my.l.Debug() }
func (my *Logger) Info() *zerolog.Event  { return my.l.Info() }
func (my *Logger) Warn() *zerolog.Event  { return my.l.Warn() }
func (my *Logger) Error() *zerolog.Event { return my.l.Error() }
func (my *Logger) Fatal() *zerolog.Event { return my.l.Fatal() }

// 全局默认logger实例
var std = NewLogger(WithOutput(os.Stderr), WithLevel(InfoLevel))

// Default 返回默认logger实例
func Default() *Logger { return std }

// SetDefault 设置默认logger实例
func SetDefault(l *Logger) { std = l }

// SetLevel 设置默认logger的日志级别
func SetLevel(level Level) { std.SetLevel(level) }

// ParseLevel 解析级别字符串,无法识别时返回 InfoLevel
func ParseLevel(s string) Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return InfoLevel
	}
	return level
}

func Trace() *zerolog.Event { return std.Trace() }
func Debug() *zerolog.Event { return std.Debug() }
func Info() *zerolog.Event  { return std.Info() }
func Warn() *zerolog.Event  { return std.Warn() }
func Error() *zerolog.Event { return std.Error() }
func Fatal() *zerolog.Event { return std.Fatal() }
