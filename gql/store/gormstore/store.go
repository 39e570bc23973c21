package gormstore

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/log"
	"github.com/ichaly/ideabase/utl"
)

var json = utl.JSON()

// Store 基于 gorm 的持久层,表结构由实体描述推导
type Store struct {
	db *gorm.DB
}

var (
	_ protocol.Store    = (*Store)(nil)
	_ protocol.Migrator = (*Store)(nil)
)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (my *Store) table(e *protocol.Entity) *table {
	return tableOf(e)
}

// Migrate 按实体描述创建或补齐数据表
func (my *Store) Migrate(ctx context.Context, entities []*protocol.Entity) error {
	for _, e := range entities {
		t := my.table(e)
		if err := my.db.WithContext(ctx).Table(t.name).AutoMigrate(t.model()); err != nil {
			return fmt.Errorf("迁移数据表 %s 失败: %w", t.name, err)
		}
		log.Debug().Str("entity", e.Name).Str("table", t.name).Msg("数据表已迁移")
	}
	return nil
}

func (my *Store) find(ctx context.Context, t *table, limit int, conds ...clause.Expression) ([]protocol.Record, error) {
	var rows []map[string]any
	q := my.db.WithContext(ctx).Table(t.name).Clauses(conds...).Order(clause.OrderByColumn{Column: clause.Column{Name: t.identity}})
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]protocol.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := t.record(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (my *Store) FetchOne(ctx context.Context, e *protocol.Entity, id string) (protocol.Record, error) {
	t := my.table(e)
	list, err := my.find(ctx, t, 1, clause.Where{Exprs: []clause.Expression{clause.Eq{Column: clause.Column{Name: t.identity}, Value: id}}})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (my *Store) FetchMany(ctx context.Context, e *protocol.Entity, limit int) ([]protocol.Record, error) {
	return my.find(ctx, my.table(e), limit)
}

// FetchRelated 单值列按相等匹配,多值引用列按 JSON 数组包含匹配
func (my *Store) FetchRelated(ctx context.Context, e *protocol.Entity, field string, id string) ([]protocol.Record, error) {
	t := my.table(e)
	c, ok := t.byKey[field]
	if !ok {
		return nil, fmt.Errorf("%s 没有可查询的字段 %s", e.Name, field)
	}
	var cond clause.Expression = clause.Eq{Column: clause.Column{Name: c.name}, Value: id}
	if c.shape == SHAPE_REFS {
		raw, _ := json.Marshal([]string{id})
		switch my.db.Dialector.Name() {
		case "postgres":
			cond = clause.Expr{SQL: "? @> ?::jsonb", Vars: []any{clause.Column{Name: c.name}, string(raw)}}
		default:
			cond = clause.Expr{SQL: "JSON_CONTAINS(?, ?)", Vars: []any{clause.Column{Name: c.name}, string(raw)}}
		}
	}
	return my.find(ctx, t, 0, clause.Where{Exprs: []clause.Expression{cond}})
}

func (my *Store) Create(ctx context.Context, e *protocol.Entity, data protocol.Record) (protocol.Record, error) {
	t := my.table(e)
	row, err := t.row(data)
	if err != nil {
		return nil, err
	}
	id, _ := row[t.identity].(string)
	if id == "" {
		id = ulid.Make().String()
		row[t.identity] = id
	}
	if err := my.db.WithContext(ctx).Table(t.name).Create(row).Error; err != nil {
		return nil, fmt.Errorf("写入 %s 失败: %w", t.name, err)
	}
	return my.FetchOne(ctx, e, id)
}

func (my *Store) Update(ctx context.Context, e *protocol.Entity, id string, data protocol.Record) (protocol.Record, error) {
	t := my.table(e)
	current, err := my.FetchOne(ctx, e, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, &protocol.NotFoundError{Entity: e.Name, ID: id}
	}
	row, err := t.row(lo.OmitByKeys(data, []string{e.IdentityName()}))
	if err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return current, nil
	}
	err = my.db.WithContext(ctx).Table(t.name).
		Where(clause.Eq{Column: clause.Column{Name: t.identity}, Value: id}).
		Updates(row).Error
	if err != nil {
		return nil, fmt.Errorf("更新 %s 失败: %w", t.name, err)
	}
	return my.FetchOne(ctx, e, id)
}

func (my *Store) Delete(ctx context.Context, e *protocol.Entity, id string) (bool, error) {
	t := my.table(e)
	result := my.db.WithContext(ctx).Exec("DELETE FROM ? WHERE ? = ?", clause.Table{Name: t.name}, clause.Column{Name: t.identity}, id)
	if result.Error != nil {
		return false, fmt.Errorf("删除 %s 失败: %w", t.name, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Atomic 在数据库事务中执行 fn
func (my *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx protocol.Store) error) error {
	return my.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx})
	})
}
