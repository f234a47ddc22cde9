package session

import (
	"errors"
	"strings"

	"github.com/hobnob-dev/hobnob/pkg/client"
)

// Form validation limits, matching what the store enforces.
const (
	MinUsernameLength = 3
	MinAge            = 1
)

// normalizeFields trims and deduplicates form input and checks the local
// constraints a submit must satisfy. It never contacts the store.
func normalizeFields(fields client.PersonFields) (client.PersonFields, error) {
	out := client.PersonFields{
		Username: strings.TrimSpace(fields.Username),
		Age:      fields.Age,
	}

	seen := make(map[string]struct{}, len(fields.Hobbies))
	for _, hobby := range fields.Hobbies {
		hobby = strings.TrimSpace(hobby)
		if hobby == "" {
			continue
		}
		if _, dup := seen[hobby]; dup {
			continue
		}
		seen[hobby] = struct{}{}
		out.Hobbies = append(out.Hobbies, hobby)
	}

	if len(out.Username) < MinUsernameLength {
		return out, errors.New("username must be at least 3 characters")
	}
	if out.Age < MinAge {
		return out, errors.New("age must be at least 1")
	}
	if len(out.Hobbies) == 0 {
		return out, errors.New("at least one hobby is required")
	}
	return out, nil
}
