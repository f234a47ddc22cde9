package client

// Person is a full person record as returned by the store.
type Person struct {
	ID              string   `json:"id"`
	Username        string   `json:"username"`
	Age             int      `json:"age"`
	Hobbies         []string `json:"hobbies"`
	PopularityScore float64  `json:"popularityScore"`
	FriendIDs       []string `json:"friendIds"`
}

// HasHobby reports whether the person already carries the given hobby.
func (p Person) HasHobby(hobby string) bool {
	for _, h := range p.Hobbies {
		if h == hobby {
			return true
		}
	}
	return false
}

// PersonFields is the request body for creating or updating a person.
type PersonFields struct {
	Username string   `json:"username"`
	Age      int      `json:"age"`
	Hobbies  []string `json:"hobbies"`
}
