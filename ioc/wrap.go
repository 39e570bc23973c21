package ioc

import "go.uber.org/fx"

// 对 fx 的轻量封装,模块声明只依赖本包

type Option = fx.Option
type Annotation = fx.Annotation

func Options(opts ...Option) Option { return fx.Options(opts...) }

func Module(name string, opts ...Option) Option { return fx.Module(name, opts...) }

func Provide(constructors ...any) Option { return fx.Provide(constructors...) }

func Supply(values ...any) Option { return fx.Supply(values...) }

func Invoke(funcs ...any) Option { return fx.Invoke(funcs...) }

func Annotate(target any, anns ...Annotation) any { return fx.Annotate(target, anns...) }

func As(i any) Annotation { return fx.As(i) }

func ResultTags(tags ...string) Annotation { return fx.ResultTags(tags...) }

func ParamTags(tags ...string) Annotation { return fx.ParamTags(tags...) }
