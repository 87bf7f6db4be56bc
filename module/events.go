package module

// EventKind identifies a ScriptModule notification.
type EventKind int

const (
	// EventSourceChanged fires after the source text changed and the
	// compiled state was dropped.
	EventSourceChanged EventKind = iota

	// EventCompiled fires after a successful compile.
	EventCompiled

	// EventCleared fires after Clear reset the module.
	EventCleared
)

func (k EventKind) String() string {
	switch k {
	case EventSourceChanged:
		return "source-changed"
	case EventCompiled:
		return "compiled"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event is delivered to listeners registered with ScriptModule.Subscribe.
type Event struct {
	Kind   EventKind
	Module *ScriptModule
}

// Listener receives module events. Listeners run synchronously on the
// goroutine that caused the event, after the module lock is released.
type Listener func(Event)

// Subscribe registers l and returns a func that removes it.
func (m *ScriptModule) Subscribe(l Listener) (unsubscribe func()) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()

	id := m.nextListener
	m.nextListener++
	if m.listeners == nil {
		m.listeners = make(map[int]Listener)
	}
	m.listeners[id] = l

	return func() {
		m.listenersMu.Lock()
		defer m.listenersMu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *ScriptModule) emit(kind EventKind) {
	m.listenersMu.Lock()
	ls := make([]Listener, 0, len(m.listeners))
	for id := 0; id < m.nextListener; id++ {
		if l, ok := m.listeners[id]; ok {
			ls = append(ls, l)
		}
	}
	m.listenersMu.Unlock()

	ev := Event{Kind: kind, Module: m}
	for _, l := range ls {
		l(ev)
	}
}
