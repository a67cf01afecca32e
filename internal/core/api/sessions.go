package api

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/solatis/shelfwright/internal/types"
	"github.com/solatis/shelfwright/internal/workspace"
)

var (
	errSessionNotFound = errors.New("session not found")
	errTooManySessions = errors.New("session limit reached")
)

// session is one editing workspace. mu serializes requests on it; the
// workspace itself is not safe for concurrent use.
type session struct {
	mu       sync.Mutex
	id       types.SessionID
	owner    types.OwnerID
	ws       *workspace.Workspace
	lastUsed time.Time
}

// sessions holds live workspaces keyed by UUIDv7 ids. Sessions idle longer
// than ttl are dropped on the next create or sweep.
type sessions struct {
	mu   sync.Mutex
	byID map[types.SessionID]*session
	max  int
	ttl  time.Duration
	now  func() time.Time
}

func newSessions(max int, ttl time.Duration) *sessions {
	return &sessions{
		byID: make(map[types.SessionID]*session),
		max:  max,
		ttl:  ttl,
		now:  time.Now,
	}
}

func (ss *sessions) create(owner types.OwnerID, ws *workspace.Workspace) (*session, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.sweepLocked()
	if ss.max > 0 && len(ss.byID) >= ss.max {
		return nil, fmt.Errorf("%w (%d)", errTooManySessions, ss.max)
	}

	sess := &session{id: types.NewSessionID(), owner: owner, ws: ws, lastUsed: ss.now()}
	ss.byID[sess.id] = sess
	return sess, nil
}

// acquire returns the owner's session locked. Callers must unlock it.
func (ss *sessions) acquire(owner types.OwnerID, raw string) (*session, error) {
	id, err := types.ParseSessionID(raw)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", raw, errSessionNotFound)
	}

	ss.mu.Lock()
	sess, ok := ss.byID[id]
	if ok && sess.owner == owner {
		sess.lastUsed = ss.now()
	}
	ss.mu.Unlock()

	// Another owner's session is reported as missing.
	if !ok || sess.owner != owner {
		return nil, fmt.Errorf("session %s: %w", id, errSessionNotFound)
	}

	sess.mu.Lock()
	return sess, nil
}

func (ss *sessions) remove(owner types.OwnerID, raw string) error {
	id, err := types.ParseSessionID(raw)
	if err != nil {
		return fmt.Errorf("session %q: %w", raw, errSessionNotFound)
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	sess, ok := ss.byID[id]
	if !ok || sess.owner != owner {
		return fmt.Errorf("session %s: %w", id, errSessionNotFound)
	}
	delete(ss.byID, id)
	return nil
}

// sweep drops expired sessions and reports how many were removed.
func (ss *sessions) sweep() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.sweepLocked()
}

func (ss *sessions) sweepLocked() int {
	if ss.ttl <= 0 {
		return 0
	}
	cutoff := ss.now().Add(-ss.ttl)
	n := 0
	for id, sess := range ss.byID {
		if sess.lastUsed.Before(cutoff) {
			delete(ss.byID, id)
			n++
		}
	}
	return n
}

func (ss *sessions) count() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.byID)
}
