package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/huandu/go-clone"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"

	"github.com/ichaly/ideabase/gql/protocol"
)

type table struct {
	order []string
	rows  map[string]protocol.Record
}

// Store 内存存储,用于开发与测试
// 写操作串行执行,Atomic 在快照上运行并在成功后整体提交
type Store struct {
	writer sync.Mutex
	mu     sync.RWMutex
	tables map[string]*table
}

var _ protocol.Store = (*Store)(nil)

func New() *Store {
	return &Store{tables: map[string]*table{}}
}

func (my *Store) table(name string) *table {
	t, ok := my.tables[name]
	if !ok {
		t = &table{rows: map[string]protocol.Record{}}
		my.tables[name] = t
	}
	return t
}

func (my *Store) FetchOne(ctx context.Context, e *protocol.Entity, id string) (protocol.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	my.mu.RLock()
	defer my.mu.RUnlock()
	t, ok := my.tables[e.Name]
	if !ok {
		return nil, nil
	}
	rec, ok := t.rows[id]
	if !ok {
		return nil, nil
	}
	return clone.Clone(rec).(protocol.Record), nil
}

func (my *Store) FetchMany(ctx context.Context, e *protocol.Entity, limit int) ([]protocol.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	my.mu.RLock()
	defer my.mu.RUnlock()
	t, ok := my.tables[e.Name]
	if !ok {
		return []protocol.Record{}, nil
	}
	ids := t.order
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return lo.Map(ids, func(id string, _ int) protocol.Record {
		return clone.Clone(t.rows[id]).(protocol.Record)
	}), nil
}

func (my *Store) FetchRelated(ctx context.Context, e *protocol.Entity, field string, id string) ([]protocol.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	my.mu.RLock()
	defer my.mu.RUnlock()
	out := []protocol.Record{}
	t, ok := my.tables[e.Name]
	if !ok {
		return out, nil
	}
	for _, key := range t.order {
		rec := t.rows[key]
		if matches(rec[field], id) {
			out = append(out, clone.Clone(rec).(protocol.Record))
		}
	}
	return out, nil
}

// matches 单值相等或多值包含
func matches(value any, id string) bool {
	switch v := value.(type) {
	case nil:
		return false
	case []string:
		return lo.Contains(v, id)
	case []any:
		return lo.ContainsBy(v, func(item any) bool { return fmt.Sprint(item) == id })
	}
	return fmt.Sprint(value) == id
}

func (my *Store) Create(ctx context.Context, e *protocol.Entity, data protocol.Record) (protocol.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	my.writer.Lock()
	defer my.writer.Unlock()
	return my.create(e, data)
}

func (my *Store) create(e *protocol.Entity, data protocol.Record) (protocol.Record, error) {
	identity := e.IdentityName()
	rec := clone.Clone(data).(protocol.Record)
	if rec == nil {
		rec = protocol.Record{}
	}
	id, _ := rec[identity].(string)
	if id == "" {
		id = ulid.Make().String()
		rec[identity] = id
	}

	my.mu.Lock()
	defer my.mu.Unlock()
	t := my.table(e.Name)
	if _, exists := t.rows[id]; exists {
		return nil, fmt.Errorf("%s(%s) 已存在", e.Name, id)
	}
	t.rows[id] = rec
	t.order = append(t.order, id)
	return clone.Clone(rec).(protocol.Record), nil
}

func (my *Store) Update(ctx context.Context, e *protocol.Entity, id string, data protocol.Record) (protocol.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	my.writer.Lock()
	defer my.writer.Unlock()

	my.mu.Lock()
	defer my.mu.Unlock()
	t := my.table(e.Name)
	rec, ok := t.rows[id]
	if !ok {
		return nil, &protocol.NotFoundError{Entity: e.Name, ID: id}
	}
	identity := e.IdentityName()
	for k, v := range clone.Clone(data).(protocol.Record) {
		if k != identity {
			rec[k] = v
		}
	}
	return clone.Clone(rec).(protocol.Record), nil
}

func (my *Store) Delete(ctx context.Context, e *protocol.Entity, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	my.writer.Lock()
	defer my.writer.Unlock()

	my.mu.Lock()
	defer my.mu.Unlock()
	t, ok := my.tables[e.Name]
	if !ok {
		return false, nil
	}
	if _, ok := t.rows[id]; !ok {
		return false, nil
	}
	delete(t.rows, id)
	t.order = lo.Without(t.order, id)
	return true, nil
}

// Atomic 在数据快照上执行 fn,成功后替换全部数据,失败时丢弃快照
func (my *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx protocol.Store) error) error {
	my.writer.Lock()
	defer my.writer.Unlock()

	my.mu.RLock()
	tx := &Store{tables: clone.Clone(my.tables).(map[string]*table)}
	my.mu.RUnlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	my.mu.Lock()
	my.tables = tx.tables
	my.mu.Unlock()
	return nil
}
