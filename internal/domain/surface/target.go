package surface

import "github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// Target is a plain EventTarget; surfaces embed one and the presenter
// exposes one for document-level input.
type Target struct {
	next      ListenerID
	listeners map[string][]listenerEntry
}

// NewTarget creates an empty target
func NewTarget() *Target {
	return &Target{listeners: make(map[string][]listenerEntry)}
}

// AddEventListener implements EventTarget
func (t *Target) AddEventListener(event string, fn Listener) ListenerID {
	t.next++
	t.listeners[event] = append(t.listeners[event], listenerEntry{id: t.next, fn: fn})
	return t.next
}

// RemoveEventListener implements EventTarget
func (t *Target) RemoveEventListener(event string, id ListenerID) {
	entries := t.listeners[event]
	for i, e := range entries {
		if e.id == id {
			t.listeners[event] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(t.listeners[event]) == 0 {
		delete(t.listeners, event)
	}
}

// Dispatch delivers ev to the listeners of ev.Type and returns how many ran.
// A listener removed by an earlier one in the same dispatch is skipped.
func (t *Target) Dispatch(ev types.InputEvent) int {
	snapshot := append([]listenerEntry(nil), t.listeners[ev.Type]...)
	delivered := 0
	for _, e := range snapshot {
		if !t.has(ev.Type, e.id) {
			continue
		}
		e.fn(ev)
		delivered++
	}
	return delivered
}

// Count returns the number of listeners registered for event
func (t *Target) Count(event string) int {
	return len(t.listeners[event])
}

func (t *Target) has(event string, id ListenerID) bool {
	for _, e := range t.listeners[event] {
		if e.id == id {
			return true
		}
	}
	return false
}

func (t *Target) clear() {
	t.listeners = make(map[string][]listenerEntry)
}
