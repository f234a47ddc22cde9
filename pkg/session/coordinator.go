package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/hobnob-dev/hobnob/pkg/client"
	"github.com/hobnob-dev/hobnob/pkg/graph"
)

// Store is the subset of the REST client the coordinator needs. *client.Client
// satisfies it; tests substitute fakes.
type Store interface {
	ListPersons(ctx context.Context) ([]client.Person, error)
	GetPerson(ctx context.Context, id string) (client.Person, error)
	CreatePerson(ctx context.Context, fields client.PersonFields) (client.Person, error)
	UpdatePerson(ctx context.Context, id string, fields client.PersonFields) (client.Person, error)
	DeletePerson(ctx context.Context, id string) error
	LinkPersons(ctx context.Context, id, friendID string) error
	UnlinkPersons(ctx context.Context, id, friendID string) error
	FetchGraph(ctx context.Context) (graph.CanonicalGraph, error)
}

// Coordinator executes mutation intents against the store and keeps the
// cached canonical/visual snapshot reconciled.
//
// The flow is confirm-then-apply: the mutation call resolves first, then a
// full canonical refresh, and only the refreshed snapshot is ever rendered.
// A failed mutation leaves the snapshot exactly as it was. A per-target
// pending guard rejects conflicting intents instead of queueing them;
// unrelated intents may overlap, and the last refresh to resolve wins.
type Coordinator struct {
	store Store

	mu       sync.Mutex
	pending  map[string]struct{}
	persons  map[string]client.Person
	visual   graph.VisualGraph
	hasGraph bool
}

// NewCoordinator creates a coordinator over the given store.
func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{
		store:   store,
		pending: make(map[string]struct{}),
		persons: make(map[string]client.Person),
	}
}

// Snapshot returns the last successfully reconciled visual graph. ok is
// false until the first refresh lands.
func (c *Coordinator) Snapshot() (graph.VisualGraph, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visual, c.hasGraph
}

// Person returns the cached person record for an id.
func (c *Coordinator) Person(id string) (client.Person, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.persons[id]
	return p, ok
}

// Persons returns all cached person records.
func (c *Coordinator) Persons() []client.Person {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]client.Person, 0, len(c.persons))
	for _, p := range c.persons {
		out = append(out, p)
	}
	return out
}

// Refresh re-fetches the canonical state and rebuilds the visual snapshot,
// carrying over established node positions. Concurrent refreshes are
// last-write-wins on the cached snapshot.
func (c *Coordinator) Refresh(ctx context.Context) error {
	persons, err := c.store.ListPersons(ctx)
	if err != nil {
		return fmt.Errorf("refresh persons: %w", err)
	}
	canonical, err := c.store.FetchGraph(ctx)
	if err != nil {
		return fmt.Errorf("refresh graph: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prior := c.visual.Positions()
	c.visual = graph.Transform(canonical, prior)
	c.hasGraph = true

	c.persons = make(map[string]client.Person, len(persons))
	for _, p := range persons {
		c.persons[p.ID] = p
	}
	refreshTotal.Inc()
	return nil
}

// Execute runs a single mutation intent to completion: pending guard, store
// call, refresh. It blocks until the intent resolves and never leaves the
// snapshot in a speculative intermediate state.
func (c *Coordinator) Execute(ctx context.Context, intent MutationIntent) Outcome {
	target := intent.TargetKey()

	c.mu.Lock()
	if _, busy := c.pending[target]; busy {
		c.mu.Unlock()
		mutationTotal.WithLabelValues(string(intent.Kind), string(OutcomeConflict)).Inc()
		return Outcome{
			Kind:    OutcomeConflict,
			Intent:  intent,
			Message: "another change to the same target is still in flight",
		}
	}
	c.pending[target] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, target)
		c.mu.Unlock()
	}()

	if err := c.apply(ctx, intent); err != nil {
		mutationTotal.WithLabelValues(string(intent.Kind), string(OutcomeStoreError)).Inc()
		return Outcome{Kind: OutcomeStoreError, Intent: intent, Message: err.Error()}
	}

	// The mutation landed; reconcile before reporting success so the caller
	// only ever observes the store's view of the result.
	if err := c.Refresh(ctx); err != nil {
		mutationTotal.WithLabelValues(string(intent.Kind), string(OutcomeStoreError)).Inc()
		return Outcome{Kind: OutcomeStoreError, Intent: intent, Message: err.Error()}
	}

	mutationTotal.WithLabelValues(string(intent.Kind), string(OutcomeSuccess)).Inc()
	return Outcome{Kind: OutcomeSuccess, Intent: intent}
}

// apply issues the single store call an intent describes.
func (c *Coordinator) apply(ctx context.Context, intent MutationIntent) error {
	switch intent.Kind {
	case IntentCreateFriendship:
		return c.store.LinkPersons(ctx, intent.PersonID, intent.FriendID)
	case IntentRemoveFriendship:
		return c.store.UnlinkPersons(ctx, intent.PersonID, intent.FriendID)
	case IntentAssignHobby:
		person, ok := c.Person(intent.PersonID)
		if !ok {
			// Cache miss: fetch so we append to the authoritative hobby set.
			fetched, err := c.store.GetPerson(ctx, intent.PersonID)
			if err != nil {
				return err
			}
			person = fetched
		}
		fields := client.PersonFields{
			Username: person.Username,
			Age:      person.Age,
			Hobbies:  append(append([]string{}, person.Hobbies...), intent.Hobby),
		}
		_, err := c.store.UpdatePerson(ctx, intent.PersonID, fields)
		return err
	case IntentCreatePerson:
		_, err := c.store.CreatePerson(ctx, intent.Fields)
		return err
	case IntentUpdatePerson:
		_, err := c.store.UpdatePerson(ctx, intent.PersonID, intent.Fields)
		return err
	case IntentDeletePerson:
		return c.store.DeletePerson(ctx, intent.PersonID)
	default:
		return fmt.Errorf("unknown intent kind %q", intent.Kind)
	}
}
