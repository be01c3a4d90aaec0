package kiosk

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/PatrickAmbrosso/kiosk/core"
)

const (
	// NodeUpdatedEvent is broadcast to displays when admin edits change
	// a node, so screens showing it can refresh.
	NodeUpdatedEvent = "node_updated"
	// ViewingEvent is sent by a display to report which node it is
	// currently showing.
	ViewingEvent = "viewing"
)

type NodeUpdatedEventPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ViewingEventPayload struct {
	NodeID int64 `json:"node_id"`
}

// DisplayStatus is one connected display and the node it reports showing.
// NodeID is zero until the display sends its first viewing event.
type DisplayStatus struct {
	ID     int
	NodeID int64
}

// DisplayTracker records the self-reported state of connected displays
// for the admin dashboard.
type DisplayTracker struct {
	viewing *core.SyncMap[int, int64]
}

func NewDisplayTracker() *DisplayTracker {
	return &DisplayTracker{viewing: core.NewSyncMap[int, int64]()}
}

func (t *DisplayTracker) Statuses() []DisplayStatus {
	statuses := make([]DisplayStatus, 0, t.viewing.Len())
	t.viewing.RRange(func(id int, nodeID int64) bool {
		statuses = append(statuses, DisplayStatus{ID: id, NodeID: nodeID})
		return true
	})
	slices.SortFunc(statuses, func(a, b DisplayStatus) int {
		return a.ID - b.ID
	})
	return statuses
}

func (t *DisplayTracker) Count() int {
	return t.viewing.Len()
}

func (app *App) onDisplayConnected(id int) {
	app.tracker.viewing.Store(id, 0)
	app.logger.Info(fmt.Sprintf("display %d connected", id))
}

func (app *App) onDisplayDisconnected(id int) {
	app.tracker.viewing.Delete(id)
	app.logger.Info(fmt.Sprintf("display %d disconnected", id))
}

func (app *App) ViewingEventHandler(ctx context.Context, e *core.Event) error {
	var payload ViewingEventPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal viewing event payload: %w", err)
	}

	app.tracker.viewing.Store(e.Display, payload.NodeID)
	return nil
}
