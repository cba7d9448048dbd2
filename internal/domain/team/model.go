package team

import (
	"fmt"
	"sort"
	"strings"
)

// Identity is a canonical team with the set of display names it is known by.
// Alias sets are disjoint across identities once resolution has run.
type Identity struct {
	Key         string
	DisplayName string
	Competition string
	Aliases     map[string]struct{}
}

func NewIdentity(key, displayName, competition string) Identity {
	identity := Identity{
		Key:         strings.TrimSpace(key),
		DisplayName: strings.TrimSpace(displayName),
		Competition: strings.TrimSpace(competition),
		Aliases:     make(map[string]struct{}, 2),
	}
	if identity.DisplayName != "" {
		identity.Aliases[identity.DisplayName] = struct{}{}
	}
	return identity
}

func (i Identity) Validate() error {
	if i.Key == "" {
		return fmt.Errorf("team key is required")
	}
	if i.DisplayName == "" {
		return fmt.Errorf("team display name is required")
	}
	return nil
}

func (i Identity) HasAlias(name string) bool {
	_, ok := i.Aliases[name]
	return ok
}

// SortedAliases returns the alias set in deterministic order for persistence.
func (i Identity) SortedAliases() []string {
	out := make([]string, 0, len(i.Aliases))
	for alias := range i.Aliases {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}
