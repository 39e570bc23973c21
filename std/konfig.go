package std

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"

	"github.com/ichaly/ideabase/log"
	"github.com/ichaly/ideabase/utl"
)

const (
	DEFAULT_ENV_PREFIX = "APP"
	DEFAULT_DELIM      = "."
)

// Konfig 应用配置,包装 koanf 并支持 profile 合并与环境变量覆盖
type Konfig struct {
	k       atomic.Pointer[koanf.Koanf]
	options *konfigOptions
}

// KonfigOption 配置选项
type KonfigOption func(*konfigOptions)

type konfigOptions struct {
	filePath  string
	envPrefix string
	envFile   string
	delim     string
	defaults  map[string]any
}

// WithFilePath 设置配置文件路径,目前只支持 yaml
func WithFilePath(path string) KonfigOption {
	return func(o *konfigOptions) {
		o.filePath = path
	}
}

// WithEnvPrefix 设置环境变量前缀
func WithEnvPrefix(prefix string) KonfigOption {
	return func(o *konfigOptions) {
		o.envPrefix = prefix
	}
}

// WithEnvFile 设置 .env 文件路径
func WithEnvFile(path string) KonfigOption {
	return func(o *konfigOptions) {
		o.envFile = path
	}
}

// WithDefaults 追加默认值,优先级低于文件与环境变量
func WithDefaults(defaults map[string]any) KonfigOption {
	return func(o *konfigOptions) {
		for k, v := range defaults {
			o.defaults[k] = v
		}
	}
}

// NewKonfig 按 默认值 < 配置文件 < profile 文件 < 环境变量 的顺序加载配置
func NewKonfig(opts ...KonfigOption) (*Konfig, error) {
	options := &konfigOptions{
		envPrefix: DEFAULT_ENV_PREFIX,
		envFile:   filepath.Join(utl.Root(), ".env"),
		delim:     DEFAULT_DELIM,
		defaults: map[string]any{
			"mode":            "dev",
			"profiles.active": "",
			"app.name":        "ideabase",
			"app.port":        "8080",
			"app.root":        utl.Root(),
			"log.level":       "info",
			"gql.limit":       10,
			"gql.store":       "memory",
			"gql.provider":    "file",
			"gql.apps":        []string{},
		},
	}
	for _, opt := range opts {
		opt(options)
	}

	my := &Konfig{options: options}
	k, err := my.load()
	if err != nil {
		return nil, err
	}
	my.k.Store(k)
	return my, nil
}

func (my *Konfig) load() (*koanf.Koanf, error) {
	o := my.options
	k := koanf.New(o.delim)

	if err := k.Load(confmap.Provider(o.defaults, o.delim), nil); err != nil {
		return nil, fmt.Errorf("加载默认配置失败: %w", err)
	}
	if err := loadEnvFile(o.envFile); err != nil {
		return nil, err
	}
	if o.filePath != "" {
		if err := loadFile(k, o.filePath); err != nil {
			return nil, err
		}
		if err := mergeProfiles(k, o.filePath); err != nil {
			return nil, err
		}
	}

	prefix := o.envPrefix + "_"
	err := k.Load(env.Provider(prefix, o.delim, func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "_", o.delim)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("加载环境变量失败: %w", err)
	}
	return k, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("加载.env文件失败: %w", err)
	}
	return nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "yaml" && ext != "yml" {
		return fmt.Errorf("不支持的配置文件类型: %s", ext)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("加载配置文件失败: %w", err)
	}
	log.Info().Str("file", path).Msg("配置文件已加载")
	return nil
}

// mergeProfiles 合并 <name>-<profile>.<ext>,profile 来自 profiles.active 与 mode
func mergeProfiles(k *koanf.Koanf, path string) error {
	dir, ext := filepath.Dir(path), filepath.Ext(path)
	name := strings.TrimSuffix(filepath.Base(path), ext)

	profiles := lo.FilterMap(strings.Split(k.String("profiles.active"), ","), func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
	profiles = lo.Uniq(append(profiles, k.String("mode")))

	for _, profile := range lo.Compact(profiles) {
		candidate := filepath.Join(dir, utl.JoinString(name, "-", profile, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			log.Debug().Str("profile", profile).Str("file", candidate).Msg("配置文件不存在,跳过")
			continue
		}
		if err := k.Load(file.Provider(candidate), yaml.Parser()); err != nil {
			return fmt.Errorf("合并profile配置文件失败: %w", err)
		}
		log.Info().Str("profile", profile).Str("file", candidate).Msg("配置文件已合并")
	}
	return nil
}

// Reload 重新加载配置,失败时保留旧配置
func (my *Konfig) Reload() error {
	k, err := my.load()
	if err != nil {
		return err
	}
	my.k.Store(k)
	return nil
}

// GetKoanf 获取底层koanf实例
func (my *Konfig) GetKoanf() *koanf.Koanf {
	return my.k.Load()
}

func (my *Konfig) Get(path string) any {
	return my.k.Load().Get(path)
}

func (my *Konfig) Set(path string, value any) {
	_ = my.k.Load().Set(path, value)
}

func (my *Konfig) IsSet(path string) bool {
	return my.k.Load().Exists(path)
}

func (my *Konfig) GetString(path string) string {
	return my.k.Load().String(path)
}

func (my *Konfig) GetBool(path string) bool {
	return my.k.Load().Bool(path)
}

func (my *Konfig) GetInt(path string) int {
	return my.k.Load().Int(path)
}

func (my *Konfig) GetStringSlice(path string) []string {
	return my.k.Load().Strings(path)
}

// Unmarshal 将配置解析到结构体
func (my *Konfig) Unmarshal(val any) error {
	return my.UnmarshalKey("", val)
}

// UnmarshalKey 将配置键解析到结构体
func (my *Konfig) UnmarshalKey(path string, val any) error {
	err := my.k.Load().UnmarshalWithConf(path, val, koanf.UnmarshalConf{Tag: "mapstructure"})
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("配置解析失败")
	}
	return err
}
