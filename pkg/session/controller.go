package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/hobnob-dev/hobnob/pkg/client"
)

// ConfirmFunc asks the operator a yes/no question and blocks for the answer.
// The TUI supplies an interactive dialog; tests supply stubs.
type ConfirmFunc func(prompt string) bool

// Controller translates raw gestures into state transitions and mutation
// intents. It is the only writer of the interaction state.
type Controller struct {
	state   *State
	coord   *Coordinator
	confirm ConfirmFunc
}

// NewController wires a controller to its state container and coordinator.
// confirm must not be nil; destructive gestures block on it.
func NewController(state *State, coord *Coordinator, confirm ConfirmFunc) *Controller {
	return &Controller{state: state, coord: coord, confirm: confirm}
}

// State exposes the interaction state for the rendering surface (read-only
// by convention).
func (c *Controller) State() *State {
	return c.state
}

// SelectNode opens the form in edit mode for the clicked person.
func (c *Controller) SelectNode(id string) {
	c.state.selectPerson(id)
}

// OpenCreateForm opens the form in new-person mode.
func (c *Controller) OpenCreateForm() {
	c.state.openCreate()
}

// CloseForm dismisses the form and clears the selection. Idempotent.
func (c *Controller) CloseForm() {
	c.state.closeForm()
}

// BeginHobbyDrag records the hobby being dragged for cross-component visual
// feedback. The drop gesture carries its own payload.
func (c *Controller) BeginHobbyDrag(hobby string) {
	c.state.setDraggedHobby(hobby)
}

// EndHobbyDrag clears the drag feedback.
func (c *Controller) EndHobbyDrag() {
	c.state.setDraggedHobby("")
}

// DropHobbyOnNode assigns the dropped hobby to the target person. A missing
// or duplicate hobby is rejected locally without contacting the store.
func (c *Controller) DropHobbyOnNode(ctx context.Context, nodeID, hobby string) Outcome {
	defer c.EndHobbyDrag()

	hobby = strings.TrimSpace(hobby)
	intent := AssignHobby(nodeID, hobby)
	if hobby == "" {
		return rejected(intent, "hobby cannot be empty")
	}
	if person, ok := c.coord.Person(nodeID); ok && person.HasHobby(hobby) {
		return rejected(intent, fmt.Sprintf("%s already has the hobby %q", person.Username, hobby))
	}
	return c.dispatch(ctx, intent)
}

// ConnectNodes creates a friendship between two distinct persons. Self-loops
// are rejected locally.
func (c *Controller) ConnectNodes(ctx context.Context, sourceID, targetID string) Outcome {
	intent := CreateFriendship(sourceID, targetID)
	if sourceID == targetID {
		return rejected(intent, "cannot connect a person to themselves")
	}
	return c.dispatch(ctx, intent)
}

// DisconnectEdge removes a friendship after an explicit confirmation.
// Declining creates no intent and changes no state.
func (c *Controller) DisconnectEdge(ctx context.Context, sourceID, targetID string) Outcome {
	intent := RemoveFriendship(sourceID, targetID)
	if !c.confirm("Remove this friendship?") {
		return declined(intent)
	}
	return c.dispatch(ctx, intent)
}

// SubmitForm validates the form fields and dispatches a create or update
// depending on the machine mode. Success closes the form; failure keeps it
// open for retry.
func (c *Controller) SubmitForm(ctx context.Context, fields client.PersonFields) Outcome {
	mode := c.state.FormState()
	normalized, err := normalizeFields(fields)

	var intent MutationIntent
	switch mode {
	case FormEditing:
		intent = UpdatePerson(c.state.SelectedPersonID(), normalized)
	case FormCreatingNew:
		intent = CreatePerson(normalized)
	default:
		return rejected(MutationIntent{}, "no form is open")
	}

	if err != nil {
		return rejected(intent, err.Error())
	}

	outcome := c.dispatch(ctx, intent)
	if outcome.OK() {
		c.state.closeForm()
	}
	return outcome
}

// DeletePerson removes a person. A person with friends requires confirming
// the unlink batch first; the unlinks run sequentially and short-circuit on
// the first failure, in which case the delete is never attempted (already
// removed friendships stay removed). A second confirmation guards the delete
// itself.
func (c *Controller) DeletePerson(ctx context.Context, id string) Outcome {
	person, ok := c.coord.Person(id)
	if !ok {
		return rejected(DeletePerson(id), "unknown person")
	}

	if len(person.FriendIDs) > 0 {
		if !c.confirm(fmt.Sprintf("%s has %d friend(s). Unlink all friendships before deleting?", person.Username, len(person.FriendIDs))) {
			return declined(DeletePerson(id))
		}
		for _, friendID := range person.FriendIDs {
			if outcome := c.dispatch(ctx, RemoveFriendship(id, friendID)); !outcome.OK() {
				outcome.Message = "unlink failed, delete aborted: " + outcome.Message
				return outcome
			}
		}
	}

	if !c.confirm(fmt.Sprintf("Delete %s?", person.Username)) {
		return declined(DeletePerson(id))
	}

	outcome := c.dispatch(ctx, DeletePerson(id))
	if outcome.OK() && c.state.SelectedPersonID() == id {
		c.state.closeForm()
	}
	return outcome
}

// dispatch hands an intent to the coordinator, tracking it as the pending
// mutation while it is in flight.
func (c *Controller) dispatch(ctx context.Context, intent MutationIntent) Outcome {
	c.state.setPendingMutation(&intent)
	defer c.state.setPendingMutation(nil)
	return c.coord.Execute(ctx, intent)
}
