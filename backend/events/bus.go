package events

import "sync"

// Handler 事件处理器
type Handler func(event Event)

// Bus 存储事件总线
//
// Storage operations publish synchronously; metrics and logging subscribe.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{handlers: make(map[EventType][]Handler)}
}

// Subscribe 订阅指定类型的事件
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// SubscribeAll 订阅所有事件
func (b *Bus) SubscribeAll(handler Handler) {
	b.Subscribe(EventAll, handler)
}

// PublishSync runs every matching handler on the caller's goroutine.
func (b *Bus) PublishSync(event Event) {
	for _, h := range b.snapshot(event.Type()) {
		h(event)
	}
}

// snapshot copies the handler list so user code never runs under the lock.
func (b *Bus) snapshot(eventType EventType) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Handler, 0, len(b.handlers[eventType])+len(b.handlers[EventAll]))
	out = append(out, b.handlers[eventType]...)
	if eventType != EventAll {
		out = append(out, b.handlers[EventAll]...)
	}
	return out
}
