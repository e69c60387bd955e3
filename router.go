package lirc

import (
	"context"
	"path"
)

// RemoteHandlers maps remote control names to their button handlers. Keys may
// be glob patterns as understood by [path.Match], such as "*".
type RemoteHandlers map[string]ButtonHandlers

// ButtonHandlers maps button names, or glob patterns of them, to handlers.
type ButtonHandlers map[string]ButtonHandler

// ButtonHandler handles a single button press.
type ButtonHandler func(ButtonPress)

// Dispatch calls the handlers matching the event and returns how many were
// called. An exact match on both names wins; otherwise every handler whose
// remote and button patterns match is called.
func (handlers RemoteHandlers) Dispatch(event ButtonPress) int {
	// Check for exact match
	if h := handlers[event.RemoteControlName][event.ButtonName]; h != nil {
		h(event)
		return 1
	}

	// Check for pattern matches
	var n int
	for remote, buttonHandlers := range handlers {
		if ok, _ := path.Match(remote, event.RemoteControlName); !ok {
			continue
		}

		for button, h := range buttonHandlers {
			if ok, _ := path.Match(button, event.ButtonName); !ok {
				continue
			}
			h(event)
			n++
		}
	}
	return n
}

// RouteEvents routes events to the appropriate handler until ctx is canceled.
func RouteEvents(ctx context.Context, events <-chan ButtonPress, handlers RemoteHandlers) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event := <-events:
			handlers.Dispatch(event)
		}
	}
}
