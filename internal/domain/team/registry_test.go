package team

import (
	"errors"
	"testing"
)

func TestRegistryResolveExact(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("EPL")
	if err := registry.Seed([]Identity{NewIdentity("arsenal", "Arsenal", "EPL")}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := registry.Resolve("Arsenal")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Key != "arsenal" {
		t.Fatalf("unexpected key: got=%s want=arsenal", got.Key)
	}
}

func TestRegistryResolveContainment(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("EPL")
	if err := registry.Seed([]Identity{
		NewIdentity("man-utd", "Man Utd", "EPL"),
		NewIdentity("man-city", "Man City", "EPL"),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := registry.Resolve("Man Utd FC")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Key != "man-utd" {
		t.Fatalf("containment should hit Man Utd: got=%s", got.Key)
	}

	// "Man Utd" abbreviates "Manchester United" token by token; "Man City"
	// does not, so the full name must land on United, never City.
	full, err := registry.Resolve("Manchester United")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if full.Key != "man-utd" {
		t.Fatalf("Manchester United should resolve to man-utd: got=%s", full.Key)
	}

	// The new alias is recorded, so the next resolution is an exact hit.
	again, err := registry.Resolve("Manchester United")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if again.Key != "man-utd" {
		t.Fatalf("alias growth should make repeat resolution exact: got=%s", again.Key)
	}
}

func TestRegistryContainmentBidirectional(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("EPL")
	if err := registry.Seed([]Identity{NewIdentity("man-utd", "Manchester United", "EPL")}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Raw name is a substring of the known alias.
	got, err := registry.Resolve("Manchester")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Key != "man-utd" {
		t.Fatalf("substring containment should resolve: got=%s", got.Key)
	}
}

func TestRegistryResolveIdempotent(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("EPL")

	first, err := registry.Resolve("Newcastle United")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	aliasesAfterFirst := registry.AliasCount()

	second, err := registry.Resolve("Newcastle United")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if first.Key != second.Key {
		t.Fatalf("resolution not stable: %s vs %s", first.Key, second.Key)
	}
	if registry.AliasCount() != aliasesAfterFirst {
		t.Fatalf("second resolve grew alias set: got=%d want=%d", registry.AliasCount(), aliasesAfterFirst)
	}
	if registry.Len() != 1 {
		t.Fatalf("expected a single identity, got %d", registry.Len())
	}
}

func TestRegistryResolveEmptyName(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("EPL")
	if _, err := registry.Resolve("   "); !errors.Is(err, ErrUnresolved) {
		t.Fatalf("expected ErrUnresolved, got %v", err)
	}
}

func TestRegistrySeedRejectsSharedAlias(t *testing.T) {
	t.Parallel()

	a := NewIdentity("a", "Everton", "EPL")
	b := NewIdentity("b", "Everton B", "EPL")
	b.Aliases["Everton"] = struct{}{}

	registry := NewRegistry("EPL")
	if err := registry.Seed([]Identity{a, b}); err == nil {
		t.Fatal("expected seed to reject overlapping alias sets")
	}
}
