package scene

// EventKind is the type of a surface event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	PointerLeave
	Wheel
	Resize
)

var eventNames = [...]string{"pointerdown", "pointermove", "pointerup", "pointerleave", "wheel", "resize"}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// ParseEventKind maps a DOM-style event name to its kind.
func ParseEventKind(name string) (EventKind, bool) {
	for i, n := range eventNames {
		if n == name {
			return EventKind(i), true
		}
	}
	return 0, false
}

// Event is a pointer or surface event in surface pixel coordinates.
type Event struct {
	Kind   EventKind `json:"-"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	DeltaY float64   `json:"deltaY,omitempty"`
	Shift  bool      `json:"shift,omitempty"`
	Width  int       `json:"width,omitempty"`
	Height int       `json:"height,omitempty"`
}

// Listener handles one surface event.
type Listener func(Event)

// ListenerID identifies a registered listener.
type ListenerID uint64

type registration struct {
	id   ListenerID
	kind EventKind
	fn   Listener
}

// Surface is the render target: it has a pixel size and dispatches pointer
// events to registered listeners in registration order.
type Surface struct {
	width, height int
	next          ListenerID
	regs          []registration
}

// NewSurface creates a surface of the given size.
func NewSurface(width, height int) *Surface {
	return &Surface{width: width, height: height}
}

// Size returns the surface size in pixels.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// AddListener registers fn for events of kind.
func (s *Surface) AddListener(kind EventKind, fn Listener) ListenerID {
	s.next++
	s.regs = append(s.regs, registration{id: s.next, kind: kind, fn: fn})
	return s.next
}

// RemoveListener unregisters a listener. Unknown ids are ignored.
func (s *Surface) RemoveListener(id ListenerID) {
	for i, r := range s.regs {
		if r.id == id {
			s.regs = append(s.regs[:i], s.regs[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of registered listeners.
func (s *Surface) ListenerCount() int { return len(s.regs) }

// Dispatch delivers ev. Resize events update the surface size before any
// listener runs.
func (s *Surface) Dispatch(ev Event) {
	if ev.Kind == Resize && ev.Width > 0 && ev.Height > 0 {
		s.width, s.height = ev.Width, ev.Height
	}
	// Listeners may unregister themselves while running.
	regs := make([]registration, len(s.regs))
	copy(regs, s.regs)
	for _, r := range regs {
		if r.kind == ev.Kind {
			r.fn(ev)
		}
	}
}

// Listeners tracks the ids one component registered so it can remove all of
// them on teardown.
type Listeners struct {
	surface *Surface
	ids     []ListenerID
}

// On registers fn and remembers its id.
func (l *Listeners) On(s *Surface, kind EventKind, fn Listener) {
	l.surface = s
	l.ids = append(l.ids, s.AddListener(kind, fn))
}

// RemoveAll unregisters every listener added through On.
func (l *Listeners) RemoveAll() {
	if l.surface == nil {
		return
	}
	for _, id := range l.ids {
		l.surface.RemoveListener(id)
	}
	l.ids = nil
}

// Len returns the number of listeners currently held.
func (l *Listeners) Len() int { return len(l.ids) }
