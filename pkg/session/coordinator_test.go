package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hobnob-dev/hobnob/pkg/client"
	"github.com/hobnob-dev/hobnob/pkg/graph"
)

// fakeStore is an in-memory Store with hooks for failure injection and call
// tracking. It mimics the real store's symmetric-link and redundant-edge
// behavior closely enough for coordinator and controller tests.
type fakeStore struct {
	mu      sync.Mutex
	persons map[string]*client.Person
	calls   []string

	linkErr   error
	unlinkErr func(id, friendID string) error
	updateErr error
	deleteErr error
	linkGate  chan struct{} // when set, LinkPersons blocks until closed
}

func newFakeStore(persons ...client.Person) *fakeStore {
	fs := &fakeStore{persons: make(map[string]*client.Person)}
	for i := range persons {
		p := persons[i]
		fs.persons[p.ID] = &p
	}
	return fs
}

func (f *fakeStore) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeStore) callCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeStore) ListPersons(ctx context.Context) ([]client.Person, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]client.Person, 0, len(f.persons))
	for _, p := range f.persons {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) GetPerson(ctx context.Context, id string) (client.Person, error) {
	f.record("get")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.persons[id]
	if !ok {
		return client.Person{}, errors.New("not found")
	}
	return *p, nil
}

func (f *fakeStore) CreatePerson(ctx context.Context, fields client.PersonFields) (client.Person, error) {
	f.record("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	p := client.Person{ID: "id-" + fields.Username, Username: fields.Username, Age: fields.Age, Hobbies: fields.Hobbies}
	f.persons[p.ID] = &p
	return p, nil
}

func (f *fakeStore) UpdatePerson(ctx context.Context, id string, fields client.PersonFields) (client.Person, error) {
	f.record("update")
	if f.updateErr != nil {
		return client.Person{}, f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.persons[id]
	if !ok {
		return client.Person{}, errors.New("not found")
	}
	p.Username = fields.Username
	p.Age = fields.Age
	p.Hobbies = fields.Hobbies
	return *p, nil
}

func (f *fakeStore) DeletePerson(ctx context.Context, id string) error {
	f.record("delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.persons, id)
	return nil
}

func (f *fakeStore) LinkPersons(ctx context.Context, id, friendID string) error {
	f.record("link")
	if f.linkGate != nil {
		<-f.linkGate
	}
	if f.linkErr != nil {
		return f.linkErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.persons[id]; ok {
		p.FriendIDs = append(p.FriendIDs, friendID)
	}
	if p, ok := f.persons[friendID]; ok {
		p.FriendIDs = append(p.FriendIDs, id)
	}
	return nil
}

func (f *fakeStore) UnlinkPersons(ctx context.Context, id, friendID string) error {
	f.record("unlink")
	if f.unlinkErr != nil {
		if err := f.unlinkErr(id, friendID); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	remove := func(p *client.Person, friend string) {
		out := p.FriendIDs[:0]
		for _, fid := range p.FriendIDs {
			if fid != friend {
				out = append(out, fid)
			}
		}
		p.FriendIDs = out
	}
	if p, ok := f.persons[id]; ok {
		remove(p, friendID)
	}
	if p, ok := f.persons[friendID]; ok {
		remove(p, id)
	}
	return nil
}

// FetchGraph emits every friendship once per direction, like the real store.
func (f *fakeStore) FetchGraph(ctx context.Context) (graph.CanonicalGraph, error) {
	f.record("graph")
	f.mu.Lock()
	defer f.mu.Unlock()
	var canonical graph.CanonicalGraph
	for _, p := range f.persons {
		canonical.Nodes = append(canonical.Nodes, graph.NodeSummary{
			ID: p.ID, Username: p.Username, Age: p.Age, PopularityScore: p.PopularityScore,
		})
		for _, fid := range p.FriendIDs {
			canonical.Edges = append(canonical.Edges, graph.RawEdge{Source: p.ID, Target: fid})
		}
	}
	return canonical, nil
}

func TestCoordinator_ExecuteSuccessRefreshes(t *testing.T) {
	fs := newFakeStore(
		client.Person{ID: "a", Username: "ada"},
		client.Person{ID: "b", Username: "bob"},
	)
	coord := NewCoordinator(fs)

	outcome := coord.Execute(context.Background(), CreateFriendship("a", "b"))
	if outcome.Kind != OutcomeSuccess {
		t.Fatalf("expected success, got %s: %s", outcome.Kind, outcome.Message)
	}

	vg, ok := coord.Snapshot()
	if !ok {
		t.Fatal("refresh did not populate the snapshot")
	}
	if len(vg.Edges) != 1 {
		t.Fatalf("expected 1 deduplicated edge, got %d", len(vg.Edges))
	}
	// Refresh must come strictly after the mutation resolves.
	if fs.callCount("link") != 1 || fs.callCount("graph") != 1 {
		t.Errorf("unexpected calls: %v", fs.calls)
	}
}

func TestCoordinator_StoreErrorLeavesSnapshotUntouched(t *testing.T) {
	fs := newFakeStore(
		client.Person{ID: "a"},
		client.Person{ID: "b"},
	)
	coord := NewCoordinator(fs)
	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	before, _ := coord.Snapshot()

	fs.linkErr = errors.New("store down")
	outcome := coord.Execute(context.Background(), CreateFriendship("a", "b"))
	if outcome.Kind != OutcomeStoreError {
		t.Fatalf("expected store_error, got %s", outcome.Kind)
	}

	after, _ := coord.Snapshot()
	if len(after.Edges) != len(before.Edges) || len(after.Nodes) != len(before.Nodes) {
		t.Error("failed mutation mutated the visual snapshot")
	}
}

func TestCoordinator_PendingGuardRejectsSameTarget(t *testing.T) {
	fs := newFakeStore(
		client.Person{ID: "a"},
		client.Person{ID: "b"},
	)
	fs.linkGate = make(chan struct{})
	coord := NewCoordinator(fs)

	done := make(chan Outcome, 1)
	go func() {
		done <- coord.Execute(context.Background(), CreateFriendship("a", "b"))
	}()

	// Wait until the first intent is inside the store call.
	for fs.callCount("link") == 0 {
		time.Sleep(time.Millisecond)
	}

	// Same unordered pair, opposite direction: still the same target.
	conflicting := coord.Execute(context.Background(), RemoveFriendship("b", "a"))
	if conflicting.Kind != OutcomeConflict {
		t.Fatalf("expected conflict, got %s", conflicting.Kind)
	}
	if fs.callCount("unlink") != 0 {
		t.Error("conflicting intent reached the store")
	}

	close(fs.linkGate)
	if first := <-done; first.Kind != OutcomeSuccess {
		t.Fatalf("first intent failed: %s %s", first.Kind, first.Message)
	}

	// Target released; a new intent on the pair goes through.
	if o := coord.Execute(context.Background(), RemoveFriendship("a", "b")); o.Kind != OutcomeSuccess {
		t.Fatalf("post-resolution intent rejected: %s", o.Kind)
	}
}

func TestCoordinator_UnrelatedIntentsBothLand(t *testing.T) {
	fs := newFakeStore(
		client.Person{ID: "a", Username: "ada", Age: 30, Hobbies: []string{"chess"}},
		client.Person{ID: "b", Username: "bob", Age: 25, Hobbies: []string{"go"}},
	)
	coord := NewCoordinator(fs)
	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 2)
	for i, intent := range []MutationIntent{
		AssignHobby("a", "painting"),
		AssignHobby("b", "running"),
	} {
		wg.Add(1)
		go func(i int, intent MutationIntent) {
			defer wg.Done()
			outcomes[i] = coord.Execute(context.Background(), intent)
		}(i, intent)
	}
	wg.Wait()

	for i, o := range outcomes {
		if o.Kind != OutcomeSuccess {
			t.Fatalf("intent %d: expected success, got %s: %s", i, o.Kind, o.Message)
		}
	}

	a, _ := coord.Person("a")
	b, _ := coord.Person("b")
	if !a.HasHobby("painting") || !b.HasHobby("running") {
		t.Errorf("both hobbies should be reflected after refreshes: %v / %v", a.Hobbies, b.Hobbies)
	}
}

func TestCoordinator_RefreshKeepsPositionsStable(t *testing.T) {
	fs := newFakeStore(
		client.Person{ID: "a"},
		client.Person{ID: "b"},
	)
	coord := NewCoordinator(fs)
	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	first, _ := coord.Snapshot()

	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	second, _ := coord.Snapshot()

	for _, n := range second.Nodes {
		want, _ := first.Node(n.ID)
		if n.Position != want.Position {
			t.Errorf("node %s moved across refreshes", n.ID)
		}
	}
}
