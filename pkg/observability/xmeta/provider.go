package xmeta

// =============================================================================
// 外部协作接口
// =============================================================================

// Provider 当前上下文元数据的提供方。
//
// 返回值是快照，调用方得到的是独立副本。没有元数据时返回 Null。
type Provider interface {
	Current() Metadata
}

// ProviderFunc 函数适配器。
type ProviderFunc func() Metadata

// Current 实现 Provider。
func (f ProviderFunc) Current() Metadata { return f() }

// FromProvider 从 p 读取当前元数据。p 为 nil 时返回 Null。
func FromProvider(p Provider) Metadata {
	if p == nil {
		return Null
	}
	return p.Current()
}

// Carrier 携带元数据的事件。
type Carrier interface {
	TraceMetadata() Metadata
}

// EventCreator 以元数据为上下文创建事件。实现方收到的是值的副本。
type EventCreator interface {
	CreateEvent(md Metadata) Carrier
}

// EventCreatorFunc 函数适配器。
type EventCreatorFunc func(md Metadata) Carrier

// CreateEvent 实现 EventCreator。
func (f EventCreatorFunc) CreateEvent(md Metadata) Carrier { return f(md) }

// CreateEvent 校验 md 后交给 c 创建事件。
//
// md 无效时返回 Validate 的错误，不会调用 c。
func CreateEvent(c EventCreator, md Metadata) (Carrier, error) {
	if c == nil {
		return nil, ErrNilCreator
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return c.CreateEvent(md), nil
}
