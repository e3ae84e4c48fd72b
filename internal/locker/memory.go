package locker

import (
	"context"
	"sync"
)

// TeamLocks handles concurrent team updates safely.
// Uses per-team locks instead of a global lock.
type TeamLocks struct {
	locks    map[int64]chan struct{} // team id -> 1-slot semaphore
	mapMutex sync.Mutex              // protects the map itself
}

// NewTeamLocks creates an empty lock table.
func NewTeamLocks() *TeamLocks {
	return &TeamLocks{
		locks: make(map[int64]chan struct{}),
	}
}

func (tl *TeamLocks) slot(teamID int64) chan struct{} {
	tl.mapMutex.Lock()
	defer tl.mapMutex.Unlock()

	sem, ok := tl.locks[teamID]
	if !ok {
		sem = make(chan struct{}, 1)
		tl.locks[teamID] = sem
	}
	return sem
}

// LockTeam locks the team, giving up when ctx is done.
func (tl *TeamLocks) LockTeam(ctx context.Context, teamID int64) (func(), error) {
	sem := tl.slot(teamID)
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ErrNotObtained
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-sem })
	}, nil
}
