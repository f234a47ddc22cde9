package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// CreatePerson inserts a new person with a generated id. Usernames are
// unique; a duplicate yields ErrConflict.
func (s *Store) CreatePerson(ctx context.Context, fields PersonFields) (Person, error) {
	username := strings.TrimSpace(fields.Username)
	if username == "" {
		return Person{}, fmt.Errorf("%w: username cannot be empty", ErrConflict)
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM persons WHERE username = ?", username).Scan(&exists); err != nil {
		return Person{}, fmt.Errorf("failed to check username: %w", err)
	}
	if exists > 0 {
		return Person{}, fmt.Errorf("%w: username already exists", ErrConflict)
	}

	id := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Person{}, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT INTO persons (id, username, age) VALUES (?, ?, ?)", id, username, fields.Age); err != nil {
		return Person{}, fmt.Errorf("failed to insert person: %w", err)
	}
	if err := replaceHobbiesTx(ctx, tx, id, fields.Hobbies); err != nil {
		return Person{}, err
	}
	if err := tx.Commit(); err != nil {
		return Person{}, fmt.Errorf("failed to commit: %w", err)
	}

	return s.GetPerson(ctx, id)
}

// UpdatePerson replaces a person's username, age and hobby set.
func (s *Store) UpdatePerson(ctx context.Context, id string, fields PersonFields) (Person, error) {
	username := strings.TrimSpace(fields.Username)
	if username == "" {
		return Person{}, fmt.Errorf("%w: username cannot be empty", ErrConflict)
	}

	var taken int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM persons WHERE username = ? AND id != ?", username, id).Scan(&taken); err != nil {
		return Person{}, fmt.Errorf("failed to check username: %w", err)
	}
	if taken > 0 {
		return Person{}, fmt.Errorf("%w: username already exists", ErrConflict)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Person{}, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE persons SET username = ?, age = ? WHERE id = ?", username, fields.Age, id)
	if err != nil {
		return Person{}, fmt.Errorf("failed to update person: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Person{}, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return Person{}, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM hobbies WHERE person_id = ?", id); err != nil {
		return Person{}, fmt.Errorf("failed to clear hobbies: %w", err)
	}
	if err := replaceHobbiesTx(ctx, tx, id, fields.Hobbies); err != nil {
		return Person{}, err
	}
	if err := tx.Commit(); err != nil {
		return Person{}, fmt.Errorf("failed to commit: %w", err)
	}

	return s.GetPerson(ctx, id)
}

// DeletePerson removes a person. Deletion is rejected while friendships
// remain; the caller unlinks first.
func (s *Store) DeletePerson(ctx context.Context, id string) error {
	friends, err := s.friendIDs(ctx, id)
	if err != nil {
		return err
	}
	if len(friends) > 0 {
		return fmt.Errorf("%w: unlink user from friends before deletion", ErrConflict)
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM persons WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPerson loads a single person with hobbies, friends and a freshly
// computed popularity score.
func (s *Store) GetPerson(ctx context.Context, id string) (Person, error) {
	var p Person
	err := s.db.QueryRowContext(ctx, "SELECT id, username, age FROM persons WHERE id = ?", id).
		Scan(&p.ID, &p.Username, &p.Age)
	if errors.Is(err, sql.ErrNoRows) {
		return Person{}, ErrNotFound
	}
	if err != nil {
		return Person{}, fmt.Errorf("failed to load person: %w", err)
	}

	if p.Hobbies, err = s.hobbiesFor(ctx, id); err != nil {
		return Person{}, err
	}
	if p.FriendIDs, err = s.friendIDs(ctx, id); err != nil {
		return Person{}, err
	}
	if p.PopularityScore, err = s.popularityScore(ctx, id, p.Hobbies, p.FriendIDs); err != nil {
		return Person{}, err
	}
	return p, nil
}

// ListPersons loads every person, scored.
func (s *Store) ListPersons(ctx context.Context) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, username, age FROM persons ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	var persons []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Username, &p.Age); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}

	for i := range persons {
		p := &persons[i]
		if p.Hobbies, err = s.hobbiesFor(ctx, p.ID); err != nil {
			return nil, err
		}
		if p.FriendIDs, err = s.friendIDs(ctx, p.ID); err != nil {
			return nil, err
		}
		if p.PopularityScore, err = s.popularityScore(ctx, p.ID, p.Hobbies, p.FriendIDs); err != nil {
			return nil, err
		}
	}
	return persons, nil
}

// popularityScore computes friends + 0.5 × sharedHobbies, where
// sharedHobbies counts, over all friends, hobbies the two have in common.
func (s *Store) popularityScore(ctx context.Context, id string, hobbies, friends []string) (float64, error) {
	own := make(map[string]struct{}, len(hobbies))
	for _, h := range hobbies {
		own[h] = struct{}{}
	}

	shared := 0
	for _, friendID := range friends {
		friendHobbies, err := s.hobbiesFor(ctx, friendID)
		if err != nil {
			return 0, err
		}
		for _, h := range friendHobbies {
			if _, ok := own[h]; ok {
				shared++
			}
		}
	}
	return float64(len(friends)) + float64(shared)*0.5, nil
}

func (s *Store) hobbiesFor(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT hobby FROM hobbies WHERE person_id = ? ORDER BY hobby", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load hobbies: %w", err)
	}
	defer rows.Close()

	hobbies := []string{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan hobby: %w", err)
		}
		hobbies = append(hobbies, h)
	}
	return hobbies, rows.Err()
}

func (s *Store) friendIDs(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT friend_id FROM friendships WHERE person_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load friends: %w", err)
	}
	defer rows.Close()

	friends := []string{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, f)
	}
	sort.Strings(friends)
	return friends, rows.Err()
}

// replaceHobbiesTx inserts the hobby set, deduplicating as it goes. The
// primary key would reject duplicates anyway; filtering keeps inserts clean.
func replaceHobbiesTx(ctx context.Context, tx *sql.Tx, id string, hobbies []string) error {
	seen := make(map[string]struct{}, len(hobbies))
	for _, hobby := range hobbies {
		hobby = strings.TrimSpace(hobby)
		if hobby == "" {
			continue
		}
		if _, dup := seen[hobby]; dup {
			continue
		}
		seen[hobby] = struct{}{}
		if _, err := tx.ExecContext(ctx, "INSERT INTO hobbies (person_id, hobby) VALUES (?, ?)", id, hobby); err != nil {
			return fmt.Errorf("failed to insert hobby: %w", err)
		}
	}
	return nil
}
