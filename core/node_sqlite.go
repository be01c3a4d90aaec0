package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type SQLiteNodeStore struct {
	db *sql.DB
}

func NewSQLiteNodeStore(db *sql.DB) *SQLiteNodeStore {
	return &SQLiteNodeStore{
		db: db,
	}
}

func (s *SQLiteNodeStore) CreateNode(ctx context.Context, name, content string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO kiosk_nodes (name, content) VALUES (@name, @content)",
		sql.Named("name", name), sql.Named("content", content))
	if err != nil {
		return 0, fmt.Errorf("creating node: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading node id: %w", err)
	}

	return id, nil
}

func (s *SQLiteNodeStore) GetNodeByID(ctx context.Context, id int64) (*Node, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, content FROM kiosk_nodes WHERE id = ? LIMIT 1", id)

	node := new(Node)

	if err := row.Scan(&node.ID, &node.Name, &node.Content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning node: %w", err)
	}

	return node, nil
}

func (s *SQLiteNodeStore) GetNodes(ctx context.Context) ([]Node, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, content FROM kiosk_nodes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	nodes := []Node{}

	for rows.Next() {
		var node Node
		if err := rows.Scan(&node.ID, &node.Name, &node.Content); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}

	return nodes, nil
}

func (s *SQLiteNodeStore) UpdateNode(ctx context.Context, id int64, name, content string) (*Node, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE kiosk_nodes SET name = @name, content = @content WHERE id = @id",
		sql.Named("name", name), sql.Named("content", content), sql.Named("id", id))
	if err != nil {
		return nil, fmt.Errorf("updating node: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("reading affected rows: %w", err)
	}

	if affected == 0 {
		return nil, ErrNodeNotFound
	}

	return &Node{ID: id, Name: name, Content: content}, nil
}
