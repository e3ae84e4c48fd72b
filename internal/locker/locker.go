// Package locker serializes work per team. The in-process implementation
// covers a single API instance; the Redis implementation lets several
// instances share one database.
package locker

import (
	"context"
	"errors"
)

// ErrNotObtained is returned when a team lock could not be acquired before
// the context ended.
var ErrNotObtained = errors.New("team lock not obtained")

// Locker hands out exclusive per-team locks.
type Locker interface {
	// LockTeam blocks until the team's lock is held or ctx is done. The
	// returned func releases it.
	LockTeam(ctx context.Context, teamID int64) (unlock func(), err error)
}
