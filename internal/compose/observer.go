package compose

// Event is a notable step taken by the Composer.
type Event uint8

const (
	EventTone Event = iota
	EventToneRemoval
	EventModifier
	EventStroke
	EventRevert
	EventForeign
	EventCommit
	EventAutoRestore
	EventEscRestore
	EventShortcut
	EventHistoryRestore
)

var eventNames = [...]string{
	"tone", "tone_removal", "modifier", "stroke", "revert", "foreign",
	"commit", "auto_restore", "esc_restore", "shortcut", "history_restore",
}

func (e Event) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// Events lists every event in order.
func Events() []Event {
	out := make([]Event, len(eventNames))
	for i := range out {
		out[i] = Event(i)
	}
	return out
}

// Observer receives events synchronously from the Composer. It must not
// call back into the Composer.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f.
func (f ObserverFunc) Observe(e Event) { f(e) }
