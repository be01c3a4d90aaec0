package kiosk

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/PatrickAmbrosso/kiosk/core"
	"github.com/PatrickAmbrosso/kiosk/pkg/router"
	"github.com/PatrickAmbrosso/kiosk/pkg/template"
)

type NodeHandler struct {
	nodes     core.NodeStore
	templates *template.Store
	events    *core.EventRouter
	tracker   *DisplayTracker
}

func NewNodeHandler(nodes core.NodeStore, templates *template.Store, events *core.EventRouter, tracker *DisplayTracker) *NodeHandler {
	return &NodeHandler{nodes: nodes, templates: templates, events: events, tracker: tracker}
}

var errNotFound = router.NewHTTPError(http.StatusNotFound, "node not found")

func nodeIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "nodeID"), 10, 64)
	if err != nil {
		return 0, errNotFound
	}
	return id, nil
}

type overviewData struct {
	Nodes []core.Node
}

func (h *NodeHandler) OverviewHandler(w http.ResponseWriter, r *http.Request) error {
	nodes, err := h.nodes.GetNodes(r.Context())
	if err != nil {
		return fmt.Errorf("GetNodes: %w", err)
	}
	return h.templates.Render(w, "overview", overviewData{Nodes: nodes})
}

type nodePageData struct {
	Node *core.Node
}

func (h *NodeHandler) NodeContentHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := nodeIDParam(r)
	if err != nil {
		return err
	}

	node, err := h.nodes.GetNodeByID(r.Context(), id)
	if err != nil {
		return fmt.Errorf("GetNodeByID: %w", err)
	}
	if node == nil {
		return errNotFound
	}

	return h.templates.Render(w, "node", nodePageData{Node: node})
}

type dashboardData struct {
	User     core.Identity
	Nodes    []core.Node
	Displays []DisplayStatus
}

func (h *NodeHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) error {
	identity := core.IdentityFromRequest(r)

	nodes, err := h.nodes.GetNodes(r.Context())
	if err != nil {
		return fmt.Errorf("GetNodes: %w", err)
	}

	return h.templates.Render(w, "admin_dashboard", dashboardData{
		User:     identity,
		Nodes:    nodes,
		Displays: h.tracker.Statuses(),
	})
}

type nodeConfigData struct {
	User core.Identity
	Node *core.Node
}

func (h *NodeHandler) NodeConfigHandler(w http.ResponseWriter, r *http.Request) error {
	identity := core.IdentityFromRequest(r)

	id, err := nodeIDParam(r)
	if err != nil {
		return err
	}

	node, err := h.nodes.GetNodeByID(r.Context(), id)
	if err != nil {
		return fmt.Errorf("GetNodeByID: %w", err)
	}
	if node == nil {
		return errNotFound
	}

	return h.templates.Render(w, "node_config", nodeConfigData{User: identity, Node: node})
}

type nodeForm struct {
	Name    string `validate:"required"`
	Content string `validate:"required"`
}

func (h *NodeHandler) UpdateNodeHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := nodeIDParam(r)
	if err != nil {
		return err
	}

	if err := r.ParseForm(); err != nil {
		return router.NewHTTPError(http.StatusBadRequest, "bad request")
	}

	form := nodeForm{
		Name:    r.PostFormValue("name"),
		Content: r.PostFormValue("content"),
	}
	if err := validate.Struct(form); err != nil {
		return router.NewHTTPError(http.StatusBadRequest, "name and content are required")
	}

	node, err := h.nodes.UpdateNode(r.Context(), id, form.Name, form.Content)
	if err != nil {
		return err
	}

	if err := h.events.Emit(NodeUpdatedEvent, NodeUpdatedEventPayload{ID: node.ID, Name: node.Name}); err != nil {
		return fmt.Errorf("emitting node update: %w", err)
	}

	return router.SeeOther(fmt.Sprintf("/admin/%d", node.ID))
}
