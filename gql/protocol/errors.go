package protocol

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// 错误码,用于响应扩展信息
const (
	CODE_CONFIG      = "CONFIG_ERROR"
	CODE_COLLISION   = "NAME_COLLISION"
	CODE_NOT_FOUND   = "NOT_FOUND"
	CODE_VALIDATION  = "VALIDATION_ERROR"
	CODE_PERSISTENCE = "PERSISTENCE_ERROR"
)

// 字段级校验错误码
const (
	FIELD_REQUIRED          = "required"
	FIELD_TYPE_MISMATCH     = "type_mismatch"
	FIELD_ENUM_INVALID      = "enum_invalid"
	FIELD_READONLY          = "readonly_field"
	FIELD_UNKNOWN           = "unknown_field"
	FIELD_INVALID_REFERENCE = "invalid_reference"
)

// ConfigError 配置文档缺失或格式错误,启动期致命
type ConfigError struct {
	Source string
	Reason string
	Err    error
}

func (my *ConfigError) Error() string {
	msg := utlJoin("配置错误", my.Source, my.Reason)
	if my.Err != nil {
		return fmt.Sprintf("%s: %v", msg, my.Err)
	}
	return msg
}

func (my *ConfigError) Unwrap() error { return my.Err }

func (my *ConfigError) Extensions() map[string]any {
	return map[string]any{"code": CODE_CONFIG, "source": my.Source}
}

// NewConfigError 创建配置错误
func NewConfigError(source, reason string, err error) *ConfigError {
	return &ConfigError{Source: source, Reason: reason, Err: err}
}

// NameCollisionError 两个实体推导出相同的类型或操作名
type NameCollisionError struct {
	Name   string
	First  string
	Second string
}

func (my *NameCollisionError) Error() string {
	return fmt.Sprintf("名称冲突: %s 同时由 %s 和 %s 生成", my.Name, my.First, my.Second)
}

func (my *NameCollisionError) Extensions() map[string]any {
	return map[string]any{"code": CODE_COLLISION, "name": my.Name}
}

// NotFoundError 记录不存在
type NotFoundError struct {
	Entity string
	ID     string
}

func (my *NotFoundError) Error() string {
	return fmt.Sprintf("%s(%s) 不存在", my.Entity, my.ID)
}

func (my *NotFoundError) Extensions() map[string]any {
	return map[string]any{"code": CODE_NOT_FOUND, "entity": my.Entity, "id": my.ID}
}

// FieldError 字段级错误
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError 提交数据未通过字段约束,按字段报告
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (my *ValidationError) Error() string {
	parts := lo.Map(my.Fields, func(f FieldError, _ int) string {
		return fmt.Sprintf("%s(%s)", f.Field, f.Code)
	})
	return fmt.Sprintf("%s 参数校验失败: %s", my.Entity, strings.Join(parts, ", "))
}

func (my *ValidationError) Extensions() map[string]any {
	return map[string]any{"code": CODE_VALIDATION, "entity": my.Entity, "fields": my.Fields}
}

// Add 追加字段错误
func (my *ValidationError) Add(field, code, message string) {
	my.Fields = append(my.Fields, FieldError{Field: field, Code: code, Message: message})
}

// Has 是否包含指定字段的错误码
func (my *ValidationError) Has(field, code string) bool {
	return lo.ContainsBy(my.Fields, func(f FieldError) bool { return f.Field == field && f.Code == code })
}

// OrNil 没有字段错误时返回 nil
func (my *ValidationError) OrNil() error {
	if my == nil || len(my.Fields) == 0 {
		return nil
	}
	return my
}

// PersistenceError 存储调用失败
type PersistenceError struct {
	Op     string
	Entity string
	Err    error
}

func (my *PersistenceError) Error() string {
	return fmt.Sprintf("持久化 %s %s 失败: %v", my.Op, my.Entity, my.Err)
}

func (my *PersistenceError) Unwrap() error { return my.Err }

func (my *PersistenceError) Extensions() map[string]any {
	return map[string]any{"code": CODE_PERSISTENCE, "op": my.Op, "entity": my.Entity}
}

func utlJoin(parts ...string) string {
	return strings.Join(lo.Compact(parts), " ")
}
