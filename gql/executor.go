package gql

import (
	"context"
	"errors"

	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/metadata"
	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/log"
	"github.com/ichaly/ideabase/std"
)

// Executor 操作执行器,在冻结的schema上处理并发请求
type Executor struct {
	store     protocol.Store
	validator *std.Validator
	entries   map[string]*metadata.Entry
	limit     int
}

// NewExecutor 创建执行器,limit 为列表操作的默认条数
func NewExecutor(s *Schema, store protocol.Store, v *std.Validator, limit int) *Executor {
	return &Executor{
		store:     store,
		validator: v,
		entries:   lo.KeyBy(s.Entries, func(e *metadata.Entry) string { return e.Entity.Name }),
		limit:     lo.Ternary(limit > 0, limit, DEFAULT_LIMIT),
	}
}

// Execute 按操作种类分发参数,返回输出实例、输出列表或布尔值
func (my *Executor) Execute(ctx context.Context, op *Operation, args map[string]any) (any, error) {
	result, err := my.execute(ctx, op, args)
	if err != nil {
		log.Warn().Err(err).Str("operation", op.Name).Msg("操作执行失败")
		return nil, err
	}
	return result, nil
}

func (my *Executor) execute(ctx context.Context, op *Operation, args map[string]any) (any, error) {
	entity := op.Entry.Entity.Name
	switch op.Kind {
	case OP_LIST:
		limit := my.limit
		if v, ok := args[ARG_LIMIT]; ok && v != nil {
			n, ok := toInt(v)
			if !ok || n < 1 {
				return nil, invalid(entity, ARG_LIMIT, protocol.FIELD_TYPE_MISMATCH, "limit 必须是正整数")
			}
			limit = int(n)
		}
		return my.List(ctx, op, limit)
	case OP_GET, OP_DELETE:
		id, ok := idString(args[ARG_ID])
		if !ok {
			return nil, invalid(entity, ARG_ID, protocol.FIELD_REQUIRED, "id 不能为空")
		}
		if op.Kind == OP_GET {
			rec, err := my.Get(ctx, op, id)
			if rec == nil || err != nil {
				return nil, err
			}
			return rec, nil
		}
		return my.Delete(ctx, op, id)
	case OP_CREATE, OP_UPDATE:
		input, ok := args[ARG_INPUT].(map[string]any)
		if !ok {
			return nil, invalid(entity, ARG_INPUT, protocol.FIELD_REQUIRED, "input 必须是对象")
		}
		if op.Kind == OP_CREATE {
			return my.Create(ctx, op, input)
		}
		return my.Update(ctx, op, input)
	}
	return nil, errors.New("未知的操作种类: " + string(op.Kind))
}

// List 获取至多 limit 条记录
func (my *Executor) List(ctx context.Context, op *Operation, limit int) ([]protocol.Record, error) {
	entity := op.Entry.Entity
	records, err := my.store.FetchMany(ctx, entity, limit)
	if err != nil {
		return nil, persistence(OP_LIST, entity, err)
	}
	out := make([]protocol.Record, 0, len(records))
	for _, rec := range records {
		m, err := my.materialize(ctx, my.store, op.Output, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Get 按主键获取记录,不存在时返回 nil 而不是错误
func (my *Executor) Get(ctx context.Context, op *Operation, id string) (protocol.Record, error) {
	entity := op.Entry.Entity
	rec, err := my.store.FetchOne(ctx, entity, id)
	if err != nil {
		return nil, persistence(OP_GET, entity, err)
	}
	if rec == nil {
		return nil, nil
	}
	return my.materialize(ctx, my.store, op.Output, rec)
}

// Create 创建记录,嵌套关系在同一原子单元内按声明顺序先行处理
func (my *Executor) Create(ctx context.Context, op *Operation, input map[string]any) (protocol.Record, error) {
	entity := op.Entry.Entity
	var out protocol.Record
	err := my.store.Atomic(ctx, func(ctx context.Context, tx protocol.Store) error {
		m := &mutation{executor: my, tx: tx}
		data, err := m.prepare(ctx, op.Input, input, MODE_CREATE)
		if err != nil {
			return err
		}
		rec, err := tx.Create(ctx, entity, data)
		if err != nil {
			return persistence(OP_CREATE, entity, err)
		}
		out, err = my.materialize(ctx, tx, op.Output, rec)
		return err
	})
	if err != nil {
		return nil, persistence(OP_CREATE, entity, err)
	}
	return out, nil
}

// Update 局部更新,只应用提交的字段
func (my *Executor) Update(ctx context.Context, op *Operation, input map[string]any) (protocol.Record, error) {
	entity := op.Entry.Entity
	identity := entity.IdentityName()
	var out protocol.Record
	err := my.store.Atomic(ctx, func(ctx context.Context, tx protocol.Store) error {
		m := &mutation{executor: my, tx: tx}
		data, err := m.prepare(ctx, op.Input, input, MODE_UPDATE)
		if err != nil {
			return err
		}
		id, _ := idString(data[identity])
		delete(data, identity)
		rec, err := tx.Update(ctx, entity, id, data)
		if err != nil {
			return persistence(OP_UPDATE, entity, err)
		}
		out, err = my.materialize(ctx, tx, op.Output, rec)
		return err
	})
	if err != nil {
		return nil, persistence(OP_UPDATE, entity, err)
	}
	return out, nil
}

// Delete 删除记录,返回记录是否存在
func (my *Executor) Delete(ctx context.Context, op *Operation, id string) (bool, error) {
	entity := op.Entry.Entity
	ok, err := my.store.Delete(ctx, entity, id)
	if err != nil {
		return false, persistence(OP_DELETE, entity, err)
	}
	return ok, nil
}

// persistence 非分类错误统一包装为 PersistenceError
func persistence(op OperationKind, entity *protocol.Entity, err error) error {
	var (
		notFound   *protocol.NotFoundError
		validation *protocol.ValidationError
		config     *protocol.ConfigError
		stored     *protocol.PersistenceError
	)
	if errors.As(err, &notFound) || errors.As(err, &validation) || errors.As(err, &config) || errors.As(err, &stored) {
		return err
	}
	return &protocol.PersistenceError{Op: string(op), Entity: entity.Name, Err: err}
}

func invalid(entity, field, code, message string) error {
	e := &protocol.ValidationError{Entity: entity}
	e.Add(field, code, message)
	return e
}
