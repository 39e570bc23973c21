package ioc

import (
	"sync"

	"gorm.io/gorm"

	"github.com/ichaly/ideabase/std"
)

// Database 按需建立的数据库连接,只有 gorm 存储或 database 提供者会触发连接
type Database func() (*gorm.DB, error)

// 数据库模块
func init() {
	Add(Module("database",
		Provide(newDatabase),
	))
}

func newDatabase(c *std.Config) Database {
	return sync.OnceValues(func() (*gorm.DB, error) {
		return std.NewConnect(c)
	})
}
