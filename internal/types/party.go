package types

import "fmt"

// Party identifies a participant on an obligation. A party is either
// well-known (Name is set) or pseudonymous (only Key is set). Authority checks
// must only ever be made against well-known identities, so callers resolve
// pseudonymous parties through a PartyResolver first.
type Party struct {
	Name string `json:"name,omitempty" bson:"name,omitempty"`
	Key  string `json:"key,omitempty" bson:"key,omitempty"`
}

// PartyResolver maps a pseudonymous party to its well-known identity.
type PartyResolver func(Party) (Party, error)

func WellKnownParty(name string) Party {
	return Party{Name: name}
}

func AnonymousParty(key string) Party {
	return Party{Key: key}
}

func (p Party) IsWellKnown() bool {
	return p.Name != ""
}

// Equals compares two well-known parties by name. Pseudonymous parties are
// compared by key, which is only meaningful before resolution.
func (p Party) Equals(other Party) bool {
	if p.IsWellKnown() && other.IsWellKnown() {
		return p.Name == other.Name
	}
	return p.Key == other.Key
}

func (p Party) String() string {
	if p.IsWellKnown() {
		return p.Name
	}
	return fmt.Sprintf("anonymous(%s)", p.Key)
}
