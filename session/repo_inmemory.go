package session

import (
	"sync"

	"github.com/pkg/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo holds the session in process memory. Used by the CLI for
// one-shot commands and by tests.
type InMemoryRepo struct {
	session *Session
	lock    sync.RWMutex
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{}
}

func (r *InMemoryRepo) Upsert(s *Session) error {
	if err := s.Validate(); err != nil {
		return errors.Wrap(err, "[InMemoryRepo.Upsert] validate")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	copied := *s
	r.session = &copied
	return nil
}

func (r *InMemoryRepo) Get() (*Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.session == nil {
		return nil, ErrNoSession
	}
	copied := *r.session
	return &copied, nil
}

func (r *InMemoryRepo) Delete() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.session = nil
	return nil
}
