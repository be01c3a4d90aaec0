package core

import (
	"context"
	"errors"
)

// Node is a unit of kiosk content: a named block rendered on the public
// surface and edited on the admin surface.
type Node struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

var (
	ErrNodeNotFound = errors.New("node not found")
)

type NodeStore interface {
	CreateNode(ctx context.Context, name, content string) (int64, error)

	// GetNodeByID returns nil, nil when no such node exists.
	GetNodeByID(ctx context.Context, id int64) (*Node, error)

	GetNodes(ctx context.Context) ([]Node, error)

	// UpdateNode replaces the node's name and content and returns the
	// updated record. ErrNodeNotFound when the node does not exist.
	UpdateNode(ctx context.Context, id int64, name, content string) (*Node, error)
}
