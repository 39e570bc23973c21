package metadata

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/ichaly/ideabase/gql/protocol"
	"github.com/ichaly/ideabase/log"
	"github.com/ichaly/ideabase/utl"
)

// DatabaseProvider 通过 information_schema 反查数据库表结构获得实体描述
// 表名单数化后作为实体名,外键列 xxx_id 作为指向目标表的单值关系
// 仅由两个外键组成的中间表不作为实体,转为第一个目标表上的多值关系
type DatabaseProvider struct {
	db      *gorm.DB
	schemas map[string]string
}

// NewDatabaseProvider 创建数据库提供者,schemas 为分组到数据库 schema 的映射
// 未映射的分组直接使用分组名作为 schema
func NewDatabaseProvider(db *gorm.DB, schemas map[string]string) *DatabaseProvider {
	return &DatabaseProvider{db: db, schemas: schemas}
}

func (my *DatabaseProvider) Describe(ctx context.Context, grouping string) ([]*protocol.Entity, error) {
	schema := lo.ValueOr(my.schemas, grouping, grouping)
	query, args, err := my.metaQuery(schema)
	if err != nil {
		return nil, err
	}

	var data []byte
	if err := my.db.WithContext(ctx).Raw(query, args...).Row().Scan(&data); err != nil {
		return nil, fmt.Errorf("执行元数据SQL失败: %w", err)
	}
	var m meta
	if len(data) > 0 {
		if err := utl.UnmarshalJSON(data, &m); err != nil {
			return nil, fmt.Errorf("解析元数据JSON失败: %w", err)
		}
	}

	entities := m.entities()
	log.Debug().Str("grouping", grouping).Str("schema", schema).Int("entities", len(entities)).Msg("数据库元数据已加载")
	return entities, nil
}

func (my *DatabaseProvider) metaQuery(schema string) (string, []any, error) {
	switch name := my.db.Dialector.Name(); name {
	case "postgres":
		return pgsqlMetaSQL, []any{schema}, nil
	case "mysql":
		return mysqlMetaSQL, []any{schema, schema, schema, schema}, nil
	default:
		return "", nil, fmt.Errorf("不支持的数据库方言: %s", name)
	}
}

type tableInfo struct {
	TableName        string `json:"table_name"`
	TableDescription string `json:"table_description"`
}

type columnInfo struct {
	TableName  string   `json:"table_name"`
	ColumnName string   `json:"column_name"`
	DataType   string   `json:"data_type"`
	IsNullable Nullable `json:"is_nullable"`
	Position   int      `json:"position"`
}

type keyInfo struct {
	TableName  string `json:"table_name"`
	ColumnName string `json:"column_name"`
}

type foreignKeyInfo struct {
	SourceTable  string `json:"source_table"`
	SourceColumn string `json:"source_column"`
	TargetTable  string `json:"target_table"`
	TargetColumn string `json:"target_column"`
}

type meta struct {
	Tables      []tableInfo      `json:"tables"`
	Columns     []columnInfo     `json:"columns"`
	PrimaryKeys []keyInfo        `json:"primaryKeys"`
	ForeignKeys []foreignKeyInfo `json:"foreignKeys"`
}

// Nullable 兼容 MySQL 返回 0/1 与 PostgreSQL 返回 bool 的可空标记
type Nullable bool

func (my *Nullable) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true", "1", "YES":
		*my = true
	case "false", "0", "NO", "null":
		*my = false
	default:
		return fmt.Errorf("无法识别的可空标记: %s", data)
	}
	return nil
}

func (my meta) entities() []*protocol.Entity {
	pks := lo.GroupBy(my.PrimaryKeys, func(k keyInfo) string { return k.TableName })
	fks := lo.GroupBy(my.ForeignKeys, func(k foreignKeyInfo) string { return k.SourceTable })
	columns := lo.GroupBy(my.Columns, func(c columnInfo) string { return c.TableName })
	tables := lo.KeyBy(my.Tables, func(t tableInfo) string { return t.TableName })

	through := map[string]bool{}
	for table, keys := range fks {
		if isThrough(table, keys, pks[table]) {
			through[table] = true
		}
	}

	names := lo.Filter(utl.SortKeys(tables), func(t string, _ int) bool { return !through[t] })
	index := make(map[string]*protocol.Entity, len(names))
	for _, table := range names {
		cols := columns[table]
		sort.SliceStable(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })
		index[table] = toEntity(tables[table], cols, pks[table], fks[table])
	}

	// 中间表转为多对多的正向多值关系,挂在第一个目标表上
	for _, table := range utl.SortKeys(through) {
		keys := fks[table]
		sort.Slice(keys, func(i, j int) bool { return keys[i].SourceColumn < keys[j].SourceColumn })
		owner, target := index[keys[0].TargetTable], index[keys[1].TargetTable]
		if owner == nil || target == nil {
			continue
		}
		owner.Relationships = append(owner.Relationships, &protocol.Relationship{
			Name:        uniqueName(owner, strcase.ToLowerCamel(inflection.Plural(target.Name))),
			Target:      target.Name,
			Cardinality: protocol.MULTI,
			Direction:   protocol.FORWARD,
			Nullable:    true,
		})
	}

	return lo.Map(names, func(t string, _ int) *protocol.Entity { return index[t] })
}

func toEntity(t tableInfo, cols []columnInfo, pks []keyInfo, fks []foreignKeyInfo) *protocol.Entity {
	e := &protocol.Entity{Name: entityName(t.TableName), Description: t.TableDescription}
	keys := lo.Map(pks, func(k keyInfo, _ int) string { return k.ColumnName })
	if len(keys) > 0 {
		if len(keys) > 1 {
			log.Warn().Str("table", t.TableName).Strs("keys", keys).Msg("复合主键仅使用第一列作为标识")
		}
		e.Identity = strcase.ToLowerCamel(keys[0])
	}
	refs := lo.KeyBy(fks, func(k foreignKeyInfo) string { return k.SourceColumn })

	for _, c := range cols {
		if fk, ok := refs[c.ColumnName]; ok {
			e.Relationships = append(e.Relationships, &protocol.Relationship{
				Name:        strcase.ToLowerCamel(strings.TrimSuffix(c.ColumnName, "_id")),
				Target:      entityName(fk.TargetTable),
				Cardinality: protocol.SINGLE,
				Direction:   protocol.FORWARD,
				Nullable:    bool(c.IsNullable),
			})
			continue
		}
		kind := columnKind(c.DataType)
		if lo.Contains(keys, c.ColumnName) {
			kind = protocol.KIND_IDENTIFIER
		}
		e.Fields = append(e.Fields, &protocol.Field{
			Name:     strcase.ToLowerCamel(c.ColumnName),
			Kind:     kind,
			Nullable: bool(c.IsNullable),
		})
	}
	return e
}

// isThrough 仅有两个外键,且主键正好是这两列或表名为两张目标表名的组合
func isThrough(table string, fks []foreignKeyInfo, pks []keyInfo) bool {
	if len(fks) != 2 {
		return false
	}
	cols := []string{fks[0].SourceColumn, fks[1].SourceColumn}
	keys := lo.Map(pks, func(k keyInfo, _ int) string { return k.ColumnName })
	if len(keys) == 2 && lo.Every(cols, keys) {
		return true
	}
	a, b := fks[0].TargetTable, fks[1].TargetTable
	return table == a+"_"+b || table == b+"_"+a
}

func entityName(table string) string {
	return strcase.ToCamel(inflection.Singular(table))
}

func columnKind(dataType string) protocol.FieldKind {
	t := strings.ToLower(dataType)
	switch {
	case t == "boolean" || t == "bool":
		return protocol.KIND_BOOLEAN
	case lo.Contains([]string{"int", "integer", "smallint", "bigint", "tinyint", "mediumint", "serial", "bigserial"}, t):
		return protocol.KIND_INTEGER
	case t == "numeric" || t == "decimal" || t == "real" || t == "float" || strings.HasPrefix(t, "double"):
		return protocol.KIND_FLOAT
	case strings.HasPrefix(t, "timestamp") || t == "datetime":
		return protocol.KIND_TIMESTAMP
	case t == "date":
		return protocol.KIND_DATE
	case t == "uuid":
		return protocol.KIND_IDENTIFIER
	default:
		return protocol.KIND_TEXT
	}
}

// PostgreSQL 元数据查询,一次返回表、列、主键、外键
const pgsqlMetaSQL = `
WITH
  t AS (
    SELECT table_name, obj_description(format('%I.%I', table_schema, table_name)::regclass, 'pg_class') AS table_description
    FROM information_schema.tables
    WHERE table_schema = $1 AND table_type = 'BASE TABLE'
  ),
  c AS (
    SELECT table_name, column_name, data_type, is_nullable = 'YES' AS is_nullable, ordinal_position AS position
    FROM information_schema.columns
    WHERE table_schema = $1
  ),
  pk AS (
    SELECT kcu.table_name, kcu.column_name
    FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
    WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = $1
  ),
  fk AS (
    SELECT kcu.table_name AS source_table, kcu.column_name AS source_column,
           ccu.table_name AS target_table, ccu.column_name AS target_column
    FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
    JOIN information_schema.constraint_column_usage ccu ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
    WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1
  )
SELECT json_build_object(
  'tables', COALESCE((SELECT json_agg(t) FROM t), '[]'),
  'columns', COALESCE((SELECT json_agg(c) FROM c), '[]'),
  'primaryKeys', COALESCE((SELECT json_agg(pk) FROM pk), '[]'),
  'foreignKeys', COALESCE((SELECT json_agg(fk) FROM fk), '[]')
)::text AS metadata
`

// MySQL 元数据查询,外键来自 key_column_usage 的 referenced_* 列
const mysqlMetaSQL = `
SELECT JSON_OBJECT(
  'tables', IFNULL((SELECT JSON_ARRAYAGG(JSON_OBJECT('table_name', table_name, 'table_description', table_comment))
    FROM information_schema.tables WHERE table_schema = ? AND table_type = 'BASE TABLE'), JSON_ARRAY()),
  'columns', IFNULL((SELECT JSON_ARRAYAGG(JSON_OBJECT('table_name', table_name, 'column_name', column_name,
      'data_type', data_type, 'is_nullable', is_nullable = 'YES', 'position', ordinal_position))
    FROM information_schema.columns WHERE table_schema = ?), JSON_ARRAY()),
  'primaryKeys', IFNULL((SELECT JSON_ARRAYAGG(JSON_OBJECT('table_name', table_name, 'column_name', column_name))
    FROM information_schema.key_column_usage WHERE table_schema = ? AND constraint_name = 'PRIMARY'), JSON_ARRAY()),
  'foreignKeys', IFNULL((SELECT JSON_ARRAYAGG(JSON_OBJECT('source_table', table_name, 'source_column', column_name,
      'target_table', referenced_table_name, 'target_column', referenced_column_name))
    FROM information_schema.key_column_usage WHERE constraint_schema = ? AND referenced_table_name IS NOT NULL), JSON_ARRAY())
) AS metadata
`
