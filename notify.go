package rescache

import "strings"

// EventType indicates the nature of a notification event. It also can be
// used to mask which events should cause a notification.
type EventType int

const (

	// Hit events are sent when a cached payload was hit.
	Hit EventType = 1 << iota

	// Miss events are sent when a key was missed.
	Miss

	// Set events are sent when a payload was stored.
	Set

	// Delete events are sent when a payload was removed for any reason,
	// always together with the reason flag.
	Delete

	// Expire events are sent when a payload was detected to be expired,
	// either on access or during a sweep.
	Expire

	// Evict events are sent when a payload was evicted to keep the
	// store within its size budget.
	Evict

	// Pressure events are sent when a payload was dropped by a memory
	// pressure eviction. Always together with Evict.
	Pressure

	// Normal mask for receiving a moderate level of notifications.
	Normal = Evict | Pressure

	// Verbose mask for receiving verbose notifications.
	Verbose = Miss | Expire | Normal

	// All mask for receiving all possible notifications.
	All = Hit | Set | Delete | Verbose
)

// Event objects describe the cause of a notification.
type Event struct {
	Type EventType
	Key  string

	// SizeChange contains the net change of the resident bytes caused
	// by the event.
	SizeChange int
}

type notify struct {
	mask     EventType
	listener chan<- *Event
}

func (et EventType) String() string {
	switch et {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case Set:
		return "set"
	case Delete:
		return "delete"
	case Expire:
		return "expire"
	case Evict:
		return "evict"
	case Pressure:
		return "pressure"
	default:
		var (
			s []string
			p uint
		)

		et &= All
		for et > 0 {
			if et%2 == 1 {
				s = append(s, EventType(1<<p).String())
			}

			et >>= 1
			p++
		}

		return strings.Join(s, "|")
	}
}

// Is checks if one or more EventType flags are set.
func (et EventType) Is(test EventType) bool {
	return et&test != 0
}

func newNotify(listener chan<- *Event, mask EventType) *notify {
	return &notify{
		listener: listener,
		mask:     mask,
	}
}

// forwards an event if it matches the mask. Sending is synchronous, the
// listener channel should be buffered or actively received.
func (n *notify) send(e *Event) {
	if n == nil || n.mask&e.Type == 0 {
		return
	}

	n.listener <- e
}
