// Package users manages who the assistant is talking to. A directory of
// profiles is kept in storage, one profile is active at a time, and a
// small heuristic watches messages for signs that a different person has
// taken over the keyboard.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/fennec-ai/fennec/pkg/store"
)

// Directory manages the known users and the active profile.
type Directory struct {
	profiles store.ProfileStore
}

// NewDirectory creates a directory over the given profile storage.
func NewDirectory(profiles store.ProfileStore) *Directory {
	return &Directory{profiles: profiles}
}

// Resolve returns the profile for name, creating a fresh stranger
// profile when the name is unknown. The resolved user becomes the
// active one. The second return reports whether the profile was just
// created.
func (d *Directory) Resolve(ctx context.Context, name string) (*store.Profile, bool, error) {
	if name == "" {
		return nil, false, errors.New("user name is empty")
	}

	profile, err := d.profiles.GetProfile(ctx, name)
	created := false
	if errors.Is(err, store.ErrNotFound) {
		profile = NewProfile(name)
		if err := d.profiles.SaveProfile(ctx, profile); err != nil {
			return nil, false, fmt.Errorf("failed to create profile: %w", err)
		}
		created = true
	} else if err != nil {
		return nil, false, err
	}

	if err := d.profiles.SetCurrentUser(ctx, name); err != nil {
		return nil, false, fmt.Errorf("failed to activate user: %w", err)
	}
	if err := d.profiles.TouchUser(ctx, name); err != nil {
		return nil, false, fmt.Errorf("failed to update last seen: %w", err)
	}

	return profile, created, nil
}

// Switch makes name the active user, creating the profile if needed.
func (d *Directory) Switch(ctx context.Context, name string) (*store.Profile, bool, error) {
	return d.Resolve(ctx, name)
}

// Current returns the active user's profile, or store.ErrNotFound when
// no user has been resolved yet.
func (d *Directory) Current(ctx context.Context) (*store.Profile, error) {
	name, err := d.profiles.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, store.ErrNotFound
	}
	return d.profiles.GetProfile(ctx, name)
}

// ListAll returns every known user, most recently seen first.
func (d *Directory) ListAll(ctx context.Context) ([]store.DirectoryEntry, error) {
	return d.profiles.ListUsers(ctx)
}

// SuggestSwitch inspects a message for a self-introduction that does not
// match the active user. It returns the candidate name; the caller is
// expected to confirm before actually switching.
func (d *Directory) SuggestSwitch(ctx context.Context, message string) (string, bool) {
	name, ok := DetectIdentity(message)
	if !ok {
		return "", false
	}

	current, err := d.profiles.CurrentUser(ctx)
	if err == nil && current == name {
		return "", false
	}
	return name, true
}

// SaveProfile persists profile changes for an existing user.
func (d *Directory) SaveProfile(ctx context.Context, profile *store.Profile) error {
	return d.profiles.SaveProfile(ctx, profile)
}
