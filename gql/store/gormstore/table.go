package gormstore

import (
	"fmt"
	"reflect"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
	"github.com/samber/lo"
	"gorm.io/datatypes"

	"github.com/ichaly/ideabase/gql/protocol"
)

// 列的存储形态
const (
	SHAPE_SCALAR = iota
	SHAPE_REF
	SHAPE_REFS
)

// SIZE_ID 主键与引用列长度,足够容纳ULID
const SIZE_ID = 64

type column struct {
	key   string
	name  string
	shape int
	field *protocol.Field
}

// table 实体到表结构的映射: 表名为复数蛇形,单值引用列为 <rel>_id,多值引用列为 <rel>_ids(JSON)
type table struct {
	name     string
	identity string
	columns  []column
	byKey    map[string]column
}

func tableOf(e *protocol.Entity) *table {
	t := &table{name: inflection.Plural(strcase.ToSnake(e.Name)), byKey: map[string]column{}}
	identity := e.IdentityName()
	for _, f := range e.Fields {
		c := column{key: f.Name, name: strcase.ToSnake(f.Name), shape: SHAPE_SCALAR, field: f}
		if f.Name == identity {
			t.identity = c.name
		}
		t.add(c)
	}
	if t.identity == "" {
		t.identity = strcase.ToSnake(identity)
		t.add(column{key: identity, name: t.identity, field: &protocol.Field{Name: identity, Kind: protocol.KIND_IDENTIFIER}})
	}
	for _, r := range e.Relationships {
		if r.IsReverse() {
			continue
		}
		if r.IsMulti() {
			t.add(column{key: r.Name, name: strcase.ToSnake(r.Name) + "_ids", shape: SHAPE_REFS})
		} else {
			t.add(column{key: r.Name, name: strcase.ToSnake(r.Name) + "_id", shape: SHAPE_REF})
		}
	}
	return t
}

func (my *table) add(c column) {
	if _, ok := my.byKey[c.key]; ok {
		return
	}
	my.columns = append(my.columns, c)
	my.byKey[c.key] = c
}

// row 记录转换为列值,未映射的键被忽略
func (my *table) row(data protocol.Record) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for _, key := range lo.Keys(data) {
		c, ok := my.byKey[key]
		if !ok {
			continue
		}
		value := data[key]
		if c.shape == SHAPE_REFS && value != nil {
			raw, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("序列化引用列表 %s 失败: %w", key, err)
			}
			value = datatypes.JSON(raw)
		}
		out[c.name] = value
	}
	return out, nil
}

// record 列值转换回记录
func (my *table) record(row map[string]any) (protocol.Record, error) {
	out := make(protocol.Record, len(my.columns))
	for _, c := range my.columns {
		value := row[c.name]
		switch c.shape {
		case SHAPE_REFS:
			ids, err := decodeIDs(value)
			if err != nil {
				return nil, fmt.Errorf("解析引用列表 %s 失败: %w", c.name, err)
			}
			out[c.key] = ids
		case SHAPE_REF:
			out[c.key] = text(value)
		default:
			out[c.key] = scalar(c.field, value)
		}
	}
	return out, nil
}

func decodeIDs(v any) ([]string, error) {
	var raw []byte
	switch value := v.(type) {
	case nil:
		return []string{}, nil
	case []byte:
		raw = value
	case string:
		raw = []byte(value)
	case datatypes.JSON:
		raw = value
	case []string:
		return value, nil
	case []any:
		return lo.Map(value, func(item any, _ int) string { return fmt.Sprint(item) }), nil
	default:
		return nil, fmt.Errorf("不支持的类型 %T", v)
	}
	if len(raw) == 0 {
		return []string{}, nil
	}
	ids := []string{}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func text(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// scalar 抹平驱动差异: MySQL 的布尔为整数,文本可能为字节
func scalar(f *protocol.Field, v any) any {
	v = text(v)
	if f == nil || v == nil {
		return v
	}
	if f.Kind == protocol.KIND_BOOLEAN {
		switch n := v.(type) {
		case int64:
			return n != 0
		case string:
			return n == "1" || n == "true"
		}
	}
	return v
}

var (
	typeString = reflect.TypeOf("")
	typeInt    = reflect.TypeOf(int64(0))
	typeFloat  = reflect.TypeOf(float64(0))
	typeBool   = reflect.TypeOf(false)
	typeTime   = reflect.TypeOf(time.Time{})
	typeJSON   = reflect.TypeOf(datatypes.JSON{})
)

// model 按表结构构造一个匿名结构体类型,交给 gorm 的迁移器建表
func (my *table) model() any {
	fields := make([]reflect.StructField, 0, len(my.columns))
	for i, c := range my.columns {
		typ, tag := typeString, fmt.Sprintf("column:%s", c.name)
		switch {
		case c.name == my.identity:
			tag += fmt.Sprintf(";primaryKey;size:%d", SIZE_ID)
		case c.shape == SHAPE_REF:
			typ, tag = reflect.PointerTo(typeString), tag+fmt.Sprintf(";size:%d;index", SIZE_ID)
		case c.shape == SHAPE_REFS:
			typ = typeJSON
		default:
			// 非空约束由执行器校验,列本身允许为空以兼容只读字段
			typ, tag = scalarType(c.field, tag)
			typ = reflect.PointerTo(typ)
		}
		fields = append(fields, reflect.StructField{
			Name: fmt.Sprintf("F%d", i),
			Type: typ,
			Tag:  reflect.StructTag(fmt.Sprintf(`gorm:"%s"`, tag)),
		})
	}
	return reflect.New(reflect.StructOf(fields)).Interface()
}

func scalarType(f *protocol.Field, tag string) (reflect.Type, string) {
	switch f.Kind {
	case protocol.KIND_INTEGER:
		return typeInt, tag
	case protocol.KIND_FLOAT:
		return typeFloat, tag
	case protocol.KIND_BOOLEAN:
		return typeBool, tag
	case protocol.KIND_TIMESTAMP:
		return typeTime, tag
	case protocol.KIND_DATE:
		return typeTime, tag + ";type:date"
	case protocol.KIND_IDENTIFIER:
		return typeString, tag + fmt.Sprintf(";size:%d", SIZE_ID)
	default:
		return typeString, tag + ";type:text"
	}
}
