package xmeta

// Source 元数据来源：值、事件或文本。
//
// 封闭接口，只有本包定义的 ValueSource、EventSource、TextSource 实现它，
// 调用方通过 Resolve 统一取值，不再依赖运行时类型判断。
type Source interface {
	isSource()
}

// ValueSource 直接持有元数据值。
type ValueSource struct {
	Metadata Metadata
}

// EventSource 从事件中读取元数据。
type EventSource struct {
	Event Carrier
}

// TextSource 待解析的文本形式（连续或冒号形式）。
type TextSource string

func (ValueSource) isSource() {}
func (EventSource) isSource() {}
func (TextSource) isSource()  {}

// Resolve 从来源中取出元数据。
//
// ValueSource 原样返回；EventSource 读取事件携带的值，事件为 nil 时返回 ErrNilSource；
// TextSource 按 Parse 规则解析。src 为 nil 时返回 ErrNilSource。
func Resolve(src Source) (Metadata, error) {
	switch s := src.(type) {
	case ValueSource:
		return s.Metadata, nil
	case EventSource:
		if s.Event == nil {
			return Null, ErrNilSource
		}
		return s.Event.TraceMetadata(), nil
	case TextSource:
		return Parse(string(s))
	default:
		return Null, ErrNilSource
	}
}

// SampledOf 返回来源的 sampled 位。来源无法解析时 ok 为 false。
func SampledOf(src Source) (sampled, ok bool) {
	m, err := Resolve(src)
	if err != nil {
		return false, false
	}
	return m.IsSampled(), true
}
