// Package profile stores per-user profile records keyed by identity
// UID. Records are bootstrapped on first authenticated load and never
// overwritten by the bootstrap path.
package profile

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"lingo/auth"
)

// ErrNotFound is returned by Get when no record exists for the UID.
var ErrNotFound = errors.New("profile: not found")

// Record is one user's profile.
type Record struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Photo     string `json:"photo"`
}

type Store interface {
	Get(ctx context.Context, uid string) (*Record, error)
	Put(ctx context.Context, uid string, rec *Record) error
}

// Ensure creates the initial record for id if none exists. An existing
// record is returned untouched, whatever its contents.
func Ensure(ctx context.Context, store Store, id *auth.Identity) (*Record, error) {
	rec, err := store.Get(ctx, id.UID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	first, last := splitName(id.Name)
	rec = &Record{
		Email:     id.Email,
		FirstName: first,
		LastName:  last,
		Photo:     "",
	}
	if err := store.Put(ctx, id.UID, rec); err != nil {
		return nil, err
	}
	log.Info().Str("uid", id.UID).Msg("profile bootstrapped")
	return rec, nil
}

func splitName(name string) (first, last string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == ' ' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}
