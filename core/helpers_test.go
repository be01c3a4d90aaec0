package core

import (
	"context"
	"testing"
)

func seedUsers(ctx context.Context, t *testing.T, userStore UserStore, users ...User) {
	for _, u := range users {
		if err := userStore.CreateUser(ctx, u); err != nil {
			t.Fatal(err)
		}
	}
}

func seedNodes(ctx context.Context, t *testing.T, nodeStore NodeStore, names ...string) []Node {
	if len(names) == 0 {
		names = append(names, "Welcome")
	}

	nodes := make([]Node, 0, len(names))
	for _, name := range names {
		id, err := nodeStore.CreateNode(ctx, name, "content of "+name)
		if err != nil {
			t.Fatal(err)
		}
		nodes = append(nodes, Node{ID: id, Name: name, Content: "content of " + name})
	}
	return nodes
}
