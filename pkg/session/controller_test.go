package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hobnob-dev/hobnob/pkg/client"
)

func confirmAlways(string) bool { return true }
func confirmNever(string) bool  { return false }

func newTestController(fs *fakeStore, confirm ConfirmFunc) *Controller {
	coord := NewCoordinator(fs)
	if err := coord.Refresh(context.Background()); err != nil {
		panic(err)
	}
	return NewController(NewState(), coord, confirm)
}

func TestController_DropHobbyDuplicateRejectedLocally(t *testing.T) {
	fs := newFakeStore(client.Person{ID: "1", Username: "ada", Hobbies: []string{"chess"}})
	ctrl := newTestController(fs, confirmAlways)
	callsBefore := len(fs.calls)

	outcome := ctrl.DropHobbyOnNode(context.Background(), "1", "chess")

	assert.Equal(t, OutcomeValidationRejected, outcome.Kind)
	assert.Equal(t, callsBefore, len(fs.calls), "duplicate hobby must not contact the store")
}

func TestController_DropHobbyEmptyRejected(t *testing.T) {
	fs := newFakeStore(client.Person{ID: "1", Username: "ada"})
	ctrl := newTestController(fs, confirmAlways)

	outcome := ctrl.DropHobbyOnNode(context.Background(), "1", "   ")
	assert.Equal(t, OutcomeValidationRejected, outcome.Kind)
}

func TestController_DropHobbySucceedsAndDeduplicates(t *testing.T) {
	fs := newFakeStore(client.Person{ID: "1", Username: "ada", Age: 30, Hobbies: []string{"chess"}})
	ctrl := newTestController(fs, confirmAlways)

	ctrl.BeginHobbyDrag("go")
	assert.Equal(t, "go", ctrl.State().DraggedHobby())

	outcome := ctrl.DropHobbyOnNode(context.Background(), "1", "go")
	require.Equal(t, OutcomeSuccess, outcome.Kind, outcome.Message)
	assert.Empty(t, ctrl.State().DraggedHobby(), "drop clears the drag feedback")

	person, ok := ctrl.coord.Person("1")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"chess", "go"}, person.Hobbies)
}

func TestController_ConnectSelfRejected(t *testing.T) {
	fs := newFakeStore(client.Person{ID: "1"})
	ctrl := newTestController(fs, confirmAlways)
	callsBefore := len(fs.calls)

	outcome := ctrl.ConnectNodes(context.Background(), "1", "1")

	assert.Equal(t, OutcomeValidationRejected, outcome.Kind)
	assert.Equal(t, callsBefore, len(fs.calls), "self-loop must not contact the store")
}

func TestController_DisconnectDeclinedIsNoOp(t *testing.T) {
	fs := newFakeStore(
		client.Person{ID: "1", FriendIDs: []string{"2"}},
		client.Person{ID: "2", FriendIDs: []string{"1"}},
	)
	ctrl := newTestController(fs, confirmNever)

	outcome := ctrl.DisconnectEdge(context.Background(), "1", "2")

	assert.Equal(t, OutcomeDeclined, outcome.Kind)
	assert.Zero(t, fs.callCount("unlink"))
	person, _ := ctrl.coord.Person("1")
	assert.Equal(t, []string{"2"}, person.FriendIDs)
}

func TestController_DeleteAbortsWhenUnlinkFails(t *testing.T) {
	fs := newFakeStore(
		client.Person{ID: "1", Username: "ada", FriendIDs: []string{"2", "3"}},
		client.Person{ID: "2", FriendIDs: []string{"1"}},
		client.Person{ID: "3", FriendIDs: []string{"1"}},
	)
	fs.unlinkErr = func(id, friendID string) error {
		if friendID == "2" {
			return errors.New("store down")
		}
		return nil
	}
	ctrl := newTestController(fs, confirmAlways)

	outcome := ctrl.DeletePerson(context.Background(), "1")

	require.Equal(t, OutcomeStoreError, outcome.Kind)
	// Sequential batch short-circuits: the second unlink and the delete are
	// never attempted.
	assert.Equal(t, 1, fs.callCount("unlink"))
	assert.Zero(t, fs.callCount("delete"))
	third, _ := fs.GetPerson(context.Background(), "3")
	assert.Equal(t, []string{"1"}, third.FriendIDs, "second friendship must remain untouched")
}

func TestController_DeleteUnlinksThenDeletes(t *testing.T) {
	fs := newFakeStore(
		client.Person{ID: "1", Username: "ada", FriendIDs: []string{"2"}},
		client.Person{ID: "2", FriendIDs: []string{"1"}},
	)
	ctrl := newTestController(fs, confirmAlways)
	ctrl.SelectNode("1")

	outcome := ctrl.DeletePerson(context.Background(), "1")

	require.Equal(t, OutcomeSuccess, outcome.Kind, outcome.Message)
	assert.Equal(t, 1, fs.callCount("unlink"))
	assert.Equal(t, 1, fs.callCount("delete"))
	assert.Equal(t, FormClosed, ctrl.State().FormState(), "successful delete closes the form")
	_, ok := ctrl.coord.Person("1")
	assert.False(t, ok, "deleted person must disappear after refresh")
}

func TestController_DeleteDeclinedBeforeUnlink(t *testing.T) {
	fs := newFakeStore(
		client.Person{ID: "1", Username: "ada", FriendIDs: []string{"2"}},
		client.Person{ID: "2", FriendIDs: []string{"1"}},
	)
	ctrl := newTestController(fs, confirmNever)

	outcome := ctrl.DeletePerson(context.Background(), "1")

	assert.Equal(t, OutcomeDeclined, outcome.Kind)
	assert.Zero(t, fs.callCount("unlink"))
	assert.Zero(t, fs.callCount("delete"))
}

func TestController_SubmitFormValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields client.PersonFields
		want   string
	}{
		{"ShortUsername", client.PersonFields{Username: "ab", Age: 20, Hobbies: []string{"x"}}, "username"},
		{"ZeroAge", client.PersonFields{Username: "ada", Age: 0, Hobbies: []string{"x"}}, "age"},
		{"NoHobbies", client.PersonFields{Username: "ada", Age: 20}, "hobby"},
		{"OnlyBlankHobbies", client.PersonFields{Username: "ada", Age: 20, Hobbies: []string{" ", ""}}, "hobby"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeStore()
			ctrl := newTestController(fs, confirmAlways)
			ctrl.OpenCreateForm()
			callsBefore := len(fs.calls)

			outcome := ctrl.SubmitForm(context.Background(), tt.fields)

			assert.Equal(t, OutcomeValidationRejected, outcome.Kind)
			assert.Contains(t, outcome.Message, tt.want)
			assert.Equal(t, callsBefore, len(fs.calls))
		})
	}
}

func TestController_SubmitCreateClosesForm(t *testing.T) {
	fs := newFakeStore()
	ctrl := newTestController(fs, confirmAlways)
	ctrl.OpenCreateForm()
	require.Equal(t, FormCreatingNew, ctrl.State().FormState())

	outcome := ctrl.SubmitForm(context.Background(), client.PersonFields{
		Username: "ada",
		Age:      30,
		Hobbies:  []string{"chess", "chess", " go "},
	})

	require.Equal(t, OutcomeSuccess, outcome.Kind, outcome.Message)
	assert.Equal(t, FormClosed, ctrl.State().FormState())
	// Hobby set was deduplicated and trimmed before dispatch.
	assert.Equal(t, []string{"chess", "go"}, outcome.Intent.Fields.Hobbies)
}

func TestController_SubmitEditUpdatesSelected(t *testing.T) {
	fs := newFakeStore(client.Person{ID: "1", Username: "ada", Age: 30, Hobbies: []string{"chess"}})
	ctrl := newTestController(fs, confirmAlways)
	ctrl.SelectNode("1")
	require.Equal(t, FormEditing, ctrl.State().FormState())

	outcome := ctrl.SubmitForm(context.Background(), client.PersonFields{
		Username: "ada2",
		Age:      31,
		Hobbies:  []string{"chess"},
	})

	require.Equal(t, OutcomeSuccess, outcome.Kind, outcome.Message)
	assert.Equal(t, IntentUpdatePerson, outcome.Intent.Kind)
	assert.Equal(t, FormClosed, ctrl.State().FormState())
	person, _ := ctrl.coord.Person("1")
	assert.Equal(t, "ada2", person.Username)
}

func TestController_SubmitWithNoFormOpen(t *testing.T) {
	fs := newFakeStore()
	ctrl := newTestController(fs, confirmAlways)

	outcome := ctrl.SubmitForm(context.Background(), client.PersonFields{Username: "ada", Age: 1, Hobbies: []string{"x"}})
	assert.Equal(t, OutcomeValidationRejected, outcome.Kind)
}
