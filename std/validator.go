package std

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
)

const (
	LOCALE_EN = "en"
	LOCALE_ZH = "zh"

	CODE_INVALID = "INVALID_ARGUMENT"
)

// FieldError 字段级错误信息
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationError 翻译后的校验错误
type ValidationError struct {
	fields []FieldError
	err    error
}

func (my *ValidationError) Error() string {
	if len(my.fields) == 0 {
		if my.err != nil {
			return my.err.Error()
		}
		return "参数校验失败"
	}
	parts := make([]string, 0, len(my.fields))
	for _, f := range my.fields {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

func (my *ValidationError) Unwrap() error { return my.err }

// Fields 返回字段错误
func (my *ValidationError) Fields() []FieldError {
	return my.fields
}

func (my *ValidationError) Extensions() Extension {
	ext := Extension{"code": CODE_INVALID}
	for _, f := range my.fields {
		ext[f.Field] = f.Message
	}
	return ext
}

// Validator 封装 go-playground/validator 并支持多语言翻译
type Validator struct {
	validate   *validator.Validate
	universal  *ut.UniversalTranslator
	locale     string
	registered map[string]struct{}
	mutex      sync.RWMutex
}

// NewValidator 创建默认语言为简体中文的校验器
func NewValidator() (*Validator, error) {
	enLocale, zhLocale := en.New(), zh.New()
	v := &Validator{
		validate:   validator.New(),
		universal:  ut.New(enLocale, enLocale, zhLocale),
		locale:     LOCALE_ZH,
		registered: make(map[string]struct{}),
	}
	if err := v.RegisterTranslation(enLocale, enTranslations.RegisterDefaultTranslations); err != nil {
		return nil, err
	}
	if err := v.RegisterTranslation(zhLocale, zhTranslations.RegisterDefaultTranslations); err != nil {
		return nil, err
	}

	// 错误信息使用配置键名而不是Go字段名
	v.validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		if label := strings.TrimSpace(field.Tag.Get("label")); label != "" {
			return label
		}
		if name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ","); name != "" && name != "-" {
			return name
		}
		return field.Name
	})
	return v, nil
}

// RegisterValidation 注册自定义校验
func (my *Validator) RegisterValidation(tag string, fn validator.Func, callValidationEvenIfNull ...bool) error {
	return my.validate.RegisterValidation(tag, fn, callValidationEvenIfNull...)
}

// RegisterTranslation 注册指定语言的翻译
func (my *Validator) RegisterTranslation(trans locales.Translator, register func(*validator.Validate, ut.Translator) error) error {
	if trans == nil || register == nil {
		return fmt.Errorf("validator: translator 与 register 不能为空")
	}
	locale := strings.TrimSpace(trans.Locale())

	my.mutex.Lock()
	defer my.mutex.Unlock()
	if _, ok := my.registered[locale]; ok {
		return nil
	}
	if err := my.universal.AddTranslator(trans, true); err != nil {
		return err
	}
	translator, found := my.universal.GetTranslator(locale)
	if !found {
		return fmt.Errorf("validator: 未支持的语言代码 %q", locale)
	}
	if err := register(my.validate, translator); err != nil {
		return err
	}
	my.registered[locale] = struct{}{}
	return nil
}

// SetDefaultLocale 设置默认语言
func (my *Validator) SetDefaultLocale(locale string) error {
	if _, found := my.universal.GetTranslator(locale); !found {
		return fmt.Errorf("validator: 未支持的语言代码 %q", locale)
	}
	my.mutex.Lock()
	defer my.mutex.Unlock()
	my.locale = locale
	return nil
}

// Check 校验结构体,失败时返回 *ValidationError
func (my *Validator) Check(payload any) error {
	err := my.validate.Struct(payload)
	if err == nil {
		return nil
	}
	return my.translate(err)
}

// Var 按标签校验单个值,失败时返回 *ValidationError
func (my *Validator) Var(field any, tag string) error {
	err := my.validate.Var(field, tag)
	if err == nil {
		return nil
	}
	return my.translate(err)
}

func (my *Validator) translate(raw error) error {
	var errs validator.ValidationErrors
	if !errors.As(raw, &errs) {
		return &ValidationError{err: raw}
	}
	my.mutex.RLock()
	translator, _ := my.universal.GetTranslator(my.locale)
	my.mutex.RUnlock()

	fields := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		message := e.Error()
		if translator != nil {
			if translated := e.Translate(translator); translated != "" {
				message = translated
			}
		}
		fields = append(fields, FieldError{Field: e.Namespace(), Tag: e.Tag(), Message: message})
	}
	return &ValidationError{fields: fields, err: raw}
}
