// Package session holds per-browser state: the staged draft and the
// period selected in the report view. Nothing here is persisted; an
// expired session simply starts over with an empty draft.
package session

import (
	"sync"
	"time"

	"kakeibo/internal/core"
)

// DraftState tracks where a session's draft sits in its lifecycle.
type DraftState int

const (
	// DraftEmpty means the form shows defaults: today, 0, no item.
	DraftEmpty DraftState = iota
	// DraftPopulated means an extraction or manual edit staged values.
	DraftPopulated
	// DraftCommitted means the last draft became an expense; amount and
	// item were cleared, date and category carried over.
	DraftCommitted
)

func (s DraftState) String() string {
	switch s {
	case DraftPopulated:
		return "populated"
	case DraftCommitted:
		return "committed"
	default:
		return "empty"
	}
}

// Session is one browser's context. All methods are safe for
// concurrent use; HTMX fires several fragment requests per page load.
type Session struct {
	id string

	mu     sync.Mutex
	draft  core.Draft
	state  DraftState
	period core.Period
}

// New creates a session with an empty draft dated to now.
func New(id string, now time.Time) *Session {
	return &Session{
		id:    id,
		draft: core.NewDraft(now),
		state: DraftEmpty,
	}
}

// ID returns the session identifier stored in the cookie.
func (s *Session) ID() string {
	return s.id
}

// Draft returns a snapshot of the staged draft.
func (s *Session) Draft() core.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// State returns the draft's lifecycle state.
func (s *Session) State() DraftState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stage replaces the draft with extracted or hand-edited values. A new
// scan overwrites whatever was pending; there is at most one draft.
func (s *Session) Stage(d core.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = d
	s.state = DraftPopulated
}

// Commit records that the given draft became an expense and resets the
// form for the next entry: amount and item clear, date and category
// stay so runs of same-day, same-category receipts need no re-editing.
func (s *Session) Commit(d core.Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = core.Draft{
		Date:     d.Date,
		Amount:   core.Money{},
		Item:     "",
		Category: core.NormalizeCategory(d.Category),
	}
	s.state = DraftCommitted
}

// Discard drops the pending draft and restores defaults dated to now.
func (s *Session) Discard(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = core.NewDraft(now)
	s.state = DraftEmpty
}

// SelectPeriod remembers the month the report view is browsing.
func (s *Session) SelectPeriod(p core.Period) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = p
}

// SelectedPeriod returns the remembered month, defaulting to now's.
func (s *Session) SelectedPeriod(now time.Time) core.Period {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.period == "" {
		return core.CurrentPeriod(now)
	}
	return s.period
}
