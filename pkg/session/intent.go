package session

import (
	"github.com/hobnob-dev/hobnob/pkg/client"
	"github.com/hobnob-dev/hobnob/pkg/graph"
)

// IntentKind enumerates the closed set of mutations a gesture can produce.
type IntentKind string

const (
	IntentCreateFriendship IntentKind = "create_friendship"
	IntentRemoveFriendship IntentKind = "remove_friendship"
	IntentAssignHobby      IntentKind = "assign_hobby"
	IntentCreatePerson     IntentKind = "create_person"
	IntentUpdatePerson     IntentKind = "update_person"
	IntentDeletePerson     IntentKind = "delete_person"
)

// MutationIntent is a replayable description of a single store mutation.
// It carries enough data to be executed, reported on failure, and keyed for
// the per-target pending guard.
type MutationIntent struct {
	Kind     IntentKind
	PersonID string
	FriendID string
	Hobby    string
	Fields   client.PersonFields
}

// CreateFriendship links two distinct persons.
func CreateFriendship(sourceID, targetID string) MutationIntent {
	return MutationIntent{Kind: IntentCreateFriendship, PersonID: sourceID, FriendID: targetID}
}

// RemoveFriendship unlinks two persons.
func RemoveFriendship(sourceID, targetID string) MutationIntent {
	return MutationIntent{Kind: IntentRemoveFriendship, PersonID: sourceID, FriendID: targetID}
}

// AssignHobby adds a hobby to a person.
func AssignHobby(personID, hobby string) MutationIntent {
	return MutationIntent{Kind: IntentAssignHobby, PersonID: personID, Hobby: hobby}
}

// CreatePerson creates a new person from form fields.
func CreatePerson(fields client.PersonFields) MutationIntent {
	return MutationIntent{Kind: IntentCreatePerson, Fields: fields}
}

// UpdatePerson replaces a person's fields.
func UpdatePerson(id string, fields client.PersonFields) MutationIntent {
	return MutationIntent{Kind: IntentUpdatePerson, PersonID: id, Fields: fields}
}

// DeletePerson removes a person.
func DeletePerson(id string) MutationIntent {
	return MutationIntent{Kind: IntentDeletePerson, PersonID: id}
}

// TargetKey identifies the logical target the intent mutates. Two intents
// with the same key conflict and may not be in flight simultaneously; intents
// with different keys may overlap freely.
func (m MutationIntent) TargetKey() string {
	switch m.Kind {
	case IntentCreateFriendship, IntentRemoveFriendship:
		return "edge:" + graph.EdgeKey(m.PersonID, m.FriendID)
	case IntentCreatePerson:
		return "new:" + m.Fields.Username
	default:
		return "node:" + m.PersonID
	}
}

// OutcomeKind enumerates how an intent resolved.
type OutcomeKind string

const (
	// OutcomeSuccess means the mutation landed and the canonical snapshot
	// was refreshed.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeValidationRejected means the intent failed a local check and
	// the store was never contacted.
	OutcomeValidationRejected OutcomeKind = "validation_rejected"
	// OutcomeStoreError means the store call or the refresh failed; no
	// local state was touched.
	OutcomeStoreError OutcomeKind = "store_error"
	// OutcomeConflict means another mutation on the same target was in
	// flight; the intent was rejected, not queued.
	OutcomeConflict OutcomeKind = "conflict"
	// OutcomeDeclined means the operator answered no at a confirmation
	// step; no intent was dispatched and no state changed.
	OutcomeDeclined OutcomeKind = "declined"
)

// Outcome is the result of executing (or rejecting) a mutation intent.
type Outcome struct {
	Kind    OutcomeKind
	Intent  MutationIntent
	Message string
}

// OK reports whether the mutation landed.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

func rejected(intent MutationIntent, msg string) Outcome {
	return Outcome{Kind: OutcomeValidationRejected, Intent: intent, Message: msg}
}

func declined(intent MutationIntent) Outcome {
	return Outcome{Kind: OutcomeDeclined, Intent: intent, Message: "cancelled"}
}
