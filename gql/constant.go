package gql

import (
	"github.com/ichaly/ideabase/utl"
)

// 全局JSON处理实例
var json = utl.JSON()

// OperationKind 操作种类
type OperationKind string

const (
	OP_LIST   OperationKind = "list"
	OP_GET    OperationKind = "get"
	OP_CREATE OperationKind = "create"
	OP_UPDATE OperationKind = "update"
	OP_DELETE OperationKind = "delete"
)

// IsMutation 是否为变更操作
func (my OperationKind) IsMutation() bool {
	return my == OP_CREATE || my == OP_UPDATE || my == OP_DELETE
}

// 根类型与内置字段
const (
	ROOT_QUERY    = "Query"
	ROOT_MUTATION = "Mutation"

	FIELD_HEALTH_CHECK = "healthCheck"
	FIELD_NOOP         = "noop"
	HEALTH_OK          = "ok"
)

// 参数名称
const (
	ARG_ID    = "id"
	ARG_INPUT = "input"
	ARG_LIMIT = "limit"

	DEFAULT_LIMIT = 10
)
