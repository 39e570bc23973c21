package protocol

import "context"

// Provider 数据模型提供者,为分组返回稳定的实体描述
type Provider interface {
	Describe(ctx context.Context, grouping string) ([]*Entity, error)
}

// ProviderFunc 函数适配器
type ProviderFunc func(ctx context.Context, grouping string) ([]*Entity, error)

func (my ProviderFunc) Describe(ctx context.Context, grouping string) ([]*Entity, error) {
	return my(ctx, grouping)
}
