package repofakes

import (
	"sync"

	"github.com/kenesis-labs/kenesis-engine/session"
)

var _ session.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo wraps the in-memory behaviour with call counters so tests
// can assert how components touch the session store.
type FakeSessionRepo struct {
	current *session.Session
	lock    sync.RWMutex

	UpsertCount int
	DeleteCount int
	UpsertErr   error
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

func (r *FakeSessionRepo) Upsert(s *session.Session) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.UpsertCount++
	if r.UpsertErr != nil {
		return r.UpsertErr
	}
	if err := s.Validate(); err != nil {
		return err
	}
	copied := *s
	r.current = &copied
	return nil
}

func (r *FakeSessionRepo) Get() (*session.Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.current == nil {
		return nil, session.ErrNoSession
	}
	copied := *r.current
	return &copied, nil
}

func (r *FakeSessionRepo) Delete() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.DeleteCount++
	r.current = nil
	return nil
}
