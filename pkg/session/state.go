package session

import "sync"

// FormState is the selection/form machine's current mode.
type FormState string

const (
	FormClosed      FormState = "closed"
	FormCreatingNew FormState = "creating_new"
	FormEditing     FormState = "editing"
)

// State is the session-scoped interaction state. There is exactly one per
// composition root; the controller is the only writer, the rendering surface
// only reads. The zero value is a fresh session with nothing selected.
type State struct {
	mu sync.RWMutex

	selectedPersonID string
	draggedHobby     string
	formOpen         bool
	pendingMutation  *MutationIntent
}

// NewState returns an empty interaction state.
func NewState() *State {
	return &State{}
}

// FormState derives the machine mode. The form being open with no selection
// means "new person" mode.
func (s *State) FormState() FormState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.formOpen:
		return FormClosed
	case s.selectedPersonID == "":
		return FormCreatingNew
	default:
		return FormEditing
	}
}

// SelectedPersonID returns the selected person's id, or "" when none.
func (s *State) SelectedPersonID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedPersonID
}

// FormOpen reports whether the person form is showing.
func (s *State) FormOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formOpen
}

// DraggedHobby returns the hobby currently being dragged, or "" when none.
// Purely informational; the drop gesture carries its own payload.
func (s *State) DraggedHobby() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draggedHobby
}

// PendingMutation returns the last intent handed to the coordinator that has
// not yet resolved, if any.
func (s *State) PendingMutation() (MutationIntent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pendingMutation == nil {
		return MutationIntent{}, false
	}
	return *s.pendingMutation, true
}

func (s *State) selectPerson(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedPersonID = id
	s.formOpen = true
}

func (s *State) openCreate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedPersonID = ""
	s.formOpen = true
}

func (s *State) closeForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.formOpen = false
	s.selectedPersonID = ""
}

func (s *State) setDraggedHobby(hobby string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draggedHobby = hobby
}

func (s *State) setPendingMutation(intent *MutationIntent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingMutation = intent
}
