package store

import (
	"context"
	"fmt"
)

// Link creates a symmetric friendship: both directed rows are inserted in
// one transaction. Self-links and duplicate links are conflicts.
func (s *Store) Link(ctx context.Context, id, friendID string) error {
	if id == friendID {
		return fmt.Errorf("%w: cannot link user to self", ErrConflict)
	}
	if err := s.ensureExists(ctx, id); err != nil {
		return err
	}
	if err := s.ensureExists(ctx, friendID); err != nil {
		return err
	}

	linked, err := s.areFriends(ctx, id, friendID)
	if err != nil {
		return err
	}
	if linked {
		return fmt.Errorf("%w: users are already friends", ErrConflict)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT INTO friendships (person_id, friend_id) VALUES (?, ?), (?, ?)", id, friendID, friendID, id); err != nil {
		return fmt.Errorf("failed to insert friendship: %w", err)
	}
	return tx.Commit()
}

// Unlink removes a symmetric friendship. Unlinking strangers is a conflict,
// so retrying a completed unlink is a visible no-op error, not corruption.
func (s *Store) Unlink(ctx context.Context, id, friendID string) error {
	if err := s.ensureExists(ctx, id); err != nil {
		return err
	}
	if err := s.ensureExists(ctx, friendID); err != nil {
		return err
	}

	linked, err := s.areFriends(ctx, id, friendID)
	if err != nil {
		return err
	}
	if !linked {
		return fmt.Errorf("%w: users are not friends", ErrConflict)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM friendships WHERE (person_id = ? AND friend_id = ?) OR (person_id = ? AND friend_id = ?)", id, friendID, friendID, id); err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	return tx.Commit()
}

// GraphData assembles the canonical snapshot: every person as a scored node
// and every friendship once per direction.
func (s *Store) GraphData(ctx context.Context) (GraphData, error) {
	persons, err := s.ListPersons(ctx)
	if err != nil {
		return GraphData{}, err
	}

	data := GraphData{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	for _, p := range persons {
		data.Nodes = append(data.Nodes, GraphNode{
			ID:              p.ID,
			Username:        p.Username,
			Age:             p.Age,
			PopularityScore: p.PopularityScore,
		})
		for _, friendID := range p.FriendIDs {
			data.Edges = append(data.Edges, GraphEdge{Source: p.ID, Target: friendID})
		}
	}
	return data, nil
}

func (s *Store) ensureExists(ctx context.Context, id string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM persons WHERE id = ?", id).Scan(&count); err != nil {
		return fmt.Errorf("failed to check person: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) areFriends(ctx context.Context, id, friendID string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM friendships WHERE person_id = ? AND friend_id = ?", id, friendID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return count > 0, nil
}
