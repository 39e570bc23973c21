package gql

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/validator"

	"github.com/ichaly/ideabase/gql/internal/intro"
	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/std"
)

const (
	CODE_GRAPHQL_PARSE = "GRAPHQL_VALIDATION_FAILED"
	CODE_BAD_REQUEST   = "BAD_REQUEST"
)

// Request GraphQL请求
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Dispatcher 将请求的根字段分发到执行器,并按选择集裁剪结果
type Dispatcher struct {
	schema   *Schema
	executor *Executor
	intro    *intro.Handler
}

// NewDispatcher 创建分发器
func NewDispatcher(s *Schema, e *Executor) *Dispatcher {
	return &Dispatcher{schema: s, executor: e, intro: intro.New(s.AST)}
}

// Do 执行请求,单个根字段失败不影响其余字段
func (my *Dispatcher) Do(ctx context.Context, req Request) *std.Result {
	doc, errs := gqlparser.LoadQuery(my.schema.AST, req.Query)
	if len(errs) > 0 {
		return &std.Result{Errors: lo.Map(errs, func(e *gqlerror.Error, _ int) *std.Exception { return exception(e) })}
	}
	op := doc.Operations.ForName(req.OperationName)
	if op == nil {
		return failure(CODE_BAD_REQUEST, "找不到要执行的操作: "+req.OperationName)
	}
	if op.Operation == ast.Subscription {
		return failure(CODE_BAD_REQUEST, "不支持订阅操作")
	}
	vars, err := validator.VariableValues(my.schema.AST, op, req.Variables)
	if err != nil {
		var gerr *gqlerror.Error
		if errors.As(err, &gerr) {
			return &std.Result{Errors: []*std.Exception{exception(gerr)}}
		}
		return failure(CODE_BAD_REQUEST, err.Error())
	}

	root := lo.Ternary(op.Operation == ast.Mutation, ROOT_MUTATION, ROOT_QUERY)
	data := map[string]any{}
	var exceptions []*std.Exception
	// 变更根字段按顺序串行执行
	for _, f := range collect(op.SelectionSet, vars) {
		alias := lo.CoalesceOrEmpty(f.Alias, f.Name)
		switch {
		case f.Name == intro.FIELD_TYPENAME:
			data[alias] = root
		case intro.Is(f.Name):
			data[alias] = project(my.intro.Resolve(f.Name, f.ArgumentMap(vars)), f.SelectionSet, vars)
		case f.Name == FIELD_HEALTH_CHECK:
			data[alias] = HEALTH_OK
		case f.Name == FIELD_NOOP:
			data[alias] = true
		default:
			operation, ok := my.schema.Operation(root, f.Name)
			if !ok {
				data[alias] = nil
				exceptions = append(exceptions, located(std.NewException(fiber.StatusBadRequest).WithMessage("未知操作: "+f.Name), f, alias))
				continue
			}
			value, err := my.executor.Execute(ctx, operation, f.ArgumentMap(vars))
			if err != nil {
				data[alias] = nil
				exceptions = append(exceptions, located(std.NewException(status(err)).WithError(err), f, alias))
				continue
			}
			data[alias] = project(value, f.SelectionSet, vars)
		}
	}
	return &std.Result{Data: data, Errors: exceptions}
}

// collect 展开片段并应用 @skip/@include
func collect(set ast.SelectionSet, vars map[string]any) []*ast.Field {
	var fields []*ast.Field
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if included(s.Directives, vars) {
				fields = append(fields, s)
			}
		case *ast.InlineFragment:
			if included(s.Directives, vars) {
				fields = append(fields, collect(s.SelectionSet, vars)...)
			}
		case *ast.FragmentSpread:
			if included(s.Directives, vars) && s.Definition != nil {
				fields = append(fields, collect(s.Definition.SelectionSet, vars)...)
			}
		}
	}
	return fields
}

func included(directives ast.DirectiveList, vars map[string]any) bool {
	if d := directives.ForName("skip"); d != nil && d.ArgumentMap(vars)["if"] == true {
		return false
	}
	if d := directives.ForName("include"); d != nil && d.ArgumentMap(vars)["if"] == false {
		return false
	}
	return true
}

// project 按选择集裁剪值,支持别名与 __typename
func project(value any, set ast.SelectionSet, vars map[string]any) any {
	if len(set) == 0 || value == nil {
		return value
	}
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(set))
		for _, f := range collect(set, vars) {
			alias := lo.CoalesceOrEmpty(f.Alias, f.Name)
			if f.Name == intro.FIELD_TYPENAME {
				if f.ObjectDefinition != nil {
					out[alias] = f.ObjectDefinition.Name
				}
				continue
			}
			out[alias] = project(v[f.Name], f.SelectionSet, vars)
		}
		return out
	case []protocol.Record:
		return lo.Map(v, func(item protocol.Record, _ int) any { return project(item, set, vars) })
	case []any:
		return lo.Map(v, func(item any, _ int) any { return project(item, set, vars) })
	}
	return value
}

// status 按错误分类返回建议的HTTP状态码,仅记录在异常内部
func status(err error) int {
	var (
		notFound   *protocol.NotFoundError
		validation *protocol.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func located(ex *std.Exception, f *ast.Field, alias string) *std.Exception {
	ex.WithPath(alias)
	if f.Position != nil {
		ex.Locations = []std.Location{{Line: f.Position.Line, Column: f.Position.Column}}
	}
	return ex
}

func exception(e *gqlerror.Error) *std.Exception {
	ex := std.NewException(fiber.StatusBadRequest).WithMessage(e.Message).With("code", CODE_GRAPHQL_PARSE)
	for k, v := range e.Extensions {
		ex.With(k, v)
	}
	for _, l := range e.Locations {
		ex.Locations = append(ex.Locations, std.Location{Line: l.Line, Column: l.Column})
	}
	if len(e.Path) > 0 {
		ex.Path = lo.Map(e.Path, func(p ast.PathElement, _ int) any { return p })
	}
	return ex
}

func failure(code, message string) *std.Result {
	return &std.Result{Errors: []*std.Exception{std.NewException(fiber.StatusBadRequest).WithMessage(message).With("code", code)}}
}
