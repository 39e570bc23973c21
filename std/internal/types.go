package internal

type AppConfig struct {
	Name string `mapstructure:"name" validate:"required"`
	Port string `mapstructure:"port" validate:"required,numeric"`
	Host string `mapstructure:"host"`
	Root string `mapstructure:"root"`
}

type DataSource struct {
	Dialect  string `mapstructure:"dialect" validate:"omitempty,oneof=postgres mysql"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`
	File  string `mapstructure:"file"`
}

// GqlConfig 引擎配置
type GqlConfig struct {
	// Root 配置文档根目录,每个分组位于 <root>/<app>/gql_config
	Root string `mapstructure:"root"`
	// Apps 参与生成的分组
	Apps       []string `mapstructure:"apps"`
	Limit      int      `mapstructure:"limit" validate:"gte=1"`
	Store      string   `mapstructure:"store" validate:"oneof=memory gorm"`
	Provider   string   `mapstructure:"provider" validate:"oneof=file database"`
	SchemaFile string   `mapstructure:"schema-file"`
	Watch      bool     `mapstructure:"watch"`
	// Schemas 分组对应的数据库schema,仅 database 提供者使用
	Schemas map[string]string `mapstructure:"schemas"`
}
