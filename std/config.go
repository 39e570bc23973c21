package std

import (
	"fmt"
	"path/filepath"

	"github.com/ichaly/ideabase/std/internal"
)

type (
	DataSource = internal.DataSource
	GqlConfig  = internal.GqlConfig
	LogConfig  = internal.LogConfig
)

// Config 表示标准配置
type Config struct {
	internal.AppConfig `mapstructure:"app"`
	Mode               string              `mapstructure:"mode"`
	Database           internal.DataSource `mapstructure:"database"`
	Log                internal.LogConfig  `mapstructure:"log"`
	Gql                internal.GqlConfig  `mapstructure:"gql"`
}

func NewConfig(k *Konfig, v *Validator) (*Config, error) {
	c := &Config{}
	if err := k.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if c.Gql.Root == "" {
		c.Gql.Root = c.Root
	}
	if c.Gql.SchemaFile != "" && !filepath.IsAbs(c.Gql.SchemaFile) {
		c.Gql.SchemaFile = filepath.Join(c.Root, c.Gql.SchemaFile)
	}
	if err := v.Check(c); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return c, nil
}

// IsDebug 判断是否为开发模式
func (my *Config) IsDebug() bool {
	return my.Mode == "development" || my.Mode == "dev"
}
