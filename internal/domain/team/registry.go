package team

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnresolved reports a raw name that could not be matched or registered.
var ErrUnresolved = errors.New("team name cannot be resolved")

// Resolver turns a raw display name into a canonical identity. Implementations
// may grow their alias sets as a side effect; repeated calls with the same name
// must return the same identity without growing anything.
type Resolver interface {
	Resolve(rawName string) (Identity, error)
}

// Registry resolves names with exact alias matching first, then bidirectional
// substring containment, and registers a fresh identity when neither matches.
// Containment is deliberately permissive: "Man Utd" resolves against
// "Manchester United", but two clubs sharing a city prefix can mis-resolve.
// That precision trade-off is accepted; use a stricter Resolver if it is not.
type Registry struct {
	byKey   map[string]Identity
	byAlias map[string]string
	order   []string

	competition string
	nextKey     func(displayName string) string
}

func NewRegistry(competition string) *Registry {
	return &Registry{
		byKey:       make(map[string]Identity, 32),
		byAlias:     make(map[string]string, 64),
		competition: strings.TrimSpace(competition),
		nextKey:     slugKey,
	}
}

// Seed pre-loads known identities, typically from the team table.
func (r *Registry) Seed(identities []Identity) error {
	for _, identity := range identities {
		if err := identity.Validate(); err != nil {
			return fmt.Errorf("seed identity: %w", err)
		}
		if _, exists := r.byKey[identity.Key]; exists {
			return fmt.Errorf("seed identity: duplicate key %q", identity.Key)
		}
		if identity.Aliases == nil {
			identity.Aliases = map[string]struct{}{identity.DisplayName: {}}
		}
		for alias := range identity.Aliases {
			if owner, taken := r.byAlias[alias]; taken && owner != identity.Key {
				return fmt.Errorf("seed identity: alias %q already owned by %q", alias, owner)
			}
			r.byAlias[alias] = identity.Key
		}
		r.byKey[identity.Key] = identity
		r.order = append(r.order, identity.Key)
	}
	return nil
}

func (r *Registry) Resolve(rawName string) (Identity, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return Identity{}, fmt.Errorf("%w: empty name", ErrUnresolved)
	}

	if key, ok := r.byAlias[name]; ok {
		return r.byKey[key], nil
	}

	if key, ok := r.containmentMatch(name); ok {
		identity := r.byKey[key]
		identity.Aliases[name] = struct{}{}
		r.byAlias[name] = key
		r.byKey[key] = identity
		return identity, nil
	}

	identity := NewIdentity(r.nextKey(name), name, r.competition)
	if err := identity.Validate(); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnresolved, err)
	}
	r.byKey[identity.Key] = identity
	r.byAlias[name] = identity.Key
	r.order = append(r.order, identity.Key)
	return identity, nil
}

// containmentMatch accepts the first alias (in registration order) that is
// alike the raw name. Registration order keeps replay deterministic.
func (r *Registry) containmentMatch(name string) (string, bool) {
	for _, key := range r.order {
		identity := r.byKey[key]
		for _, alias := range identity.SortedAliases() {
			if namesAlike(name, alias) {
				return key, true
			}
		}
	}
	return "", false
}

// namesAlike is the permissive fallback: whole-string containment either way,
// or an ordered token abbreviation match ("Man Utd" against "Manchester
// United"). Case preserved, no edit-distance matching. Known trade-off: a bare
// city name can resolve to whichever of two same-city clubs registered first.
func namesAlike(a, b string) bool {
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return tokensAbbreviate(a, b) || tokensAbbreviate(b, a)
}

// tokensAbbreviate reports whether every token of short abbreviates, in order,
// a distinct token of long. A token abbreviates another when it is an anchored
// in-order subsequence of it: "Utd" -> "United", "Man" -> "Manchester".
func tokensAbbreviate(short, long string) bool {
	shortTokens := strings.Fields(short)
	longTokens := strings.Fields(long)
	if len(shortTokens) == 0 || len(shortTokens) > len(longTokens) {
		return false
	}

	next := 0
	for _, token := range shortTokens {
		matched := false
		for next < len(longTokens) {
			candidate := longTokens[next]
			next++
			if anchoredSubsequence(token, candidate) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func anchoredSubsequence(short, long string) bool {
	if short == "" || long == "" || len(short) > len(long) {
		return false
	}
	if short[0] != long[0] {
		return false
	}
	pos := 0
	for i := 0; i < len(long) && pos < len(short); i++ {
		if long[i] == short[pos] {
			pos++
		}
	}
	return pos == len(short)
}

// Find matches a name against the registry without registering anything:
// exact alias first, then the same containment fallback Resolve uses. Query
// paths use this so an unknown name stays unknown.
func (r *Registry) Find(rawName string) (Identity, bool) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return Identity{}, false
	}
	if key, ok := r.byAlias[name]; ok {
		return r.byKey[key], true
	}
	if key, ok := r.containmentMatch(name); ok {
		return r.byKey[key], true
	}
	return Identity{}, false
}

// Lookup returns the identity for an already-resolved name without side effects.
func (r *Registry) Lookup(rawName string) (Identity, bool) {
	key, ok := r.byAlias[strings.TrimSpace(rawName)]
	if !ok {
		return Identity{}, false
	}
	return r.byKey[key], true
}

func (r *Registry) GetByKey(key string) (Identity, bool) {
	identity, ok := r.byKey[key]
	return identity, ok
}

// Identities returns every registered identity in registration order.
func (r *Registry) Identities() []Identity {
	out := make([]Identity, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.byKey[key])
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.byKey)
}

func (r *Registry) AliasCount() int {
	return len(r.byAlias)
}

func slugKey(displayName string) string {
	slug := strings.ToLower(strings.TrimSpace(displayName))
	slug = strings.ReplaceAll(slug, " ", "-")
	var b strings.Builder
	for _, ch := range slug {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '-':
			b.WriteRune(ch)
		}
	}
	return b.String()
}
