// Package anonid gives visitors who never sign in a stable pseudonymous
// identity: an 8-digit id and an AdjectiveNounNumber display name.
package anonid

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
)

// Storage keys.
const (
	KeyUserID   = "anonymousUserId"
	KeyUserName = "anonymousUserName"
)

// Identity is an anonymous visitor's id and display name.
type Identity struct {
	ID   string `json:"anonymousId"`
	Name string `json:"anonymousName"`
}

// Generator mints identities and persists them in a Storage. Calls are
// idempotent per Storage: once minted, the same values are returned.
type Generator struct {
	storage Storage
	intN    func(n int) int
}

// New returns a Generator writing through storage.
func New(storage Storage) *Generator {
	return &Generator{storage: storage, intN: rand.IntN}
}

// UserID returns the stored id, minting an 8-digit numeric id on first use.
// Ids are not guaranteed unique; collisions are accepted as negligible.
func (g *Generator) UserID(ctx context.Context) (string, error) {
	return g.getOrMint(ctx, KeyUserID, func() string {
		return strconv.Itoa(10_000_000 + g.intN(90_000_000))
	})
}

// UserName returns the stored display name, minting e.g. "HappyTiger42".
func (g *Generator) UserName(ctx context.Context) (string, error) {
	return g.getOrMint(ctx, KeyUserName, func() string {
		adj := adjectives[g.intN(len(adjectives))]
		noun := nouns[g.intN(len(nouns))]
		return fmt.Sprintf("%s%s%d", adj, noun, 10+g.intN(990))
	})
}

// Identity returns both halves of the anonymous identity.
func (g *Generator) Identity(ctx context.Context) (Identity, error) {
	id, err := g.UserID(ctx)
	if err != nil {
		return Identity{}, err
	}
	name, err := g.UserName(ctx)
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: id, Name: name}, nil
}

// getOrMint re-reads after writing so a Storage with set-if-absent semantics
// returns the value that won.
func (g *Generator) getOrMint(ctx context.Context, key string, mint func() string) (string, error) {
	v, ok, err := g.storage.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("anonid: read %s: %w", key, err)
	}
	if ok && v != "" {
		return v, nil
	}
	if err := g.storage.Set(ctx, key, mint()); err != nil {
		return "", fmt.Errorf("anonid: persist %s: %w", key, err)
	}
	v, _, err = g.storage.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("anonid: read %s: %w", key, err)
	}
	return v, nil
}
