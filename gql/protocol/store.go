package protocol

import "context"

// Record 存储层记录,键为字段名或关系名
type Record = map[string]any

// Store 持久层契约
//
// 正向单值关系以目标主键保存在关系名下,正向多值关系保存为主键列表,
// 反向关系不落库,通过 FetchRelated 按对端引用字段查询。
type Store interface {
	// FetchOne 按主键获取记录,不存在时返回 nil, nil
	FetchOne(ctx context.Context, e *Entity, id string) (Record, error)
	// FetchMany 按存储顺序获取至多 limit 条记录
	FetchMany(ctx context.Context, e *Entity, limit int) ([]Record, error)
	// FetchRelated 获取 field 引用(或包含)id 的记录
	FetchRelated(ctx context.Context, e *Entity, field string, id string) ([]Record, error)
	// Create 创建记录,未提供主键时由存储层分配
	Create(ctx context.Context, e *Entity, data Record) (Record, error)
	// Update 局部更新,记录不存在时返回 *NotFoundError
	Update(ctx context.Context, e *Entity, id string, data Record) (Record, error)
	// Delete 删除记录,返回记录是否存在
	Delete(ctx context.Context, e *Entity, id string) (bool, error)
	// Atomic 在单个原子单元内执行 fn,fn 返回错误时整体回滚
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Migrator 需要按实体描述准备存储结构的存储层实现该接口
type Migrator interface {
	Migrate(ctx context.Context, entities []*Entity) error
}
