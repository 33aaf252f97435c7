package recipe

import (
	"sync"

	"fridgefriend/internal/models"
)

// userState tracks, per user, the tag of the newest query and the newest
// result that was allowed to land.
type userState struct {
	mu     sync.RWMutex
	seq    map[int64]uint64
	latest map[int64]*models.RecipeResult
}

func newUserState() *userState {
	return &userState{
		seq:    make(map[int64]uint64),
		latest: make(map[int64]*models.RecipeResult),
	}
}

// next issues a new tag for userID and clears the previous result.
func (s *userState) next(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[userID]++
	delete(s.latest, userID)
	return s.seq[userID]
}

func (s *userState) current(userID int64) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq[userID]
}

// publish stores res only when its tag is still the newest for the user.
func (s *userState) publish(userID int64, res *models.RecipeResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq[userID] != res.Sequence {
		return false
	}
	s.latest[userID] = res
	return true
}

func (s *userState) get(userID int64) *models.RecipeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest[userID]
}

// invalidate drops the user's result and retires the current tag, so a query
// still running against the old inventory comes back stale.
func (s *userState) invalidate(userID int64) {
	s.mu.Lock()
	s.seq[userID]++
	delete(s.latest, userID)
	s.mu.Unlock()
}
