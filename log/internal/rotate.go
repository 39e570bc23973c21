package internal

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 轮转参数缺省值
const (
	ROTATE_MAX_SIZE    = 100
	ROTATE_MAX_AGE     = 7
	ROTATE_MAX_BACKUPS = 3
)

// NewRotateWriter 按大小轮转的日志文件,size 单位MB,age 单位天,非正数时取缺省值
func NewRotateWriter(filename string, size, age, backups int) io.Writer {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    positive(size, ROTATE_MAX_SIZE),
		MaxAge:     positive(age, ROTATE_MAX_AGE),
		MaxBackups: positive(backups, ROTATE_MAX_BACKUPS),
		LocalTime:  true,
	}
}

func positive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
