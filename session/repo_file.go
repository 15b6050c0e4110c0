package session

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

var _ Repo = (*FileRepo)(nil)

// FileRepo persists the session as a JSON file, the engine's analogue of the
// browser client's local-storage session. Writes go through a temp file and
// rename so a crash mid-write never leaves a torn session on disk.
type FileRepo struct {
	path string
	lock sync.Mutex
}

func NewFileRepo(path string) *FileRepo {
	return &FileRepo{path: path}
}

func (r *FileRepo) Upsert(s *Session) error {
	if err := s.Validate(); err != nil {
		return errors.Wrap(err, "[FileRepo.Upsert] validate")
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return errors.Wrap(err, "[FileRepo.Upsert] mkdir")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "[FileRepo.Upsert] marshal")
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileRepo.Upsert] write")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return errors.Wrap(err, "[FileRepo.Upsert] rename")
	}
	return nil
}

func (r *FileRepo) Get() (*Session, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, errors.Wrap(err, "[FileRepo.Get] read")
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "[FileRepo.Get] unmarshal")
	}
	return &s, nil
}

func (r *FileRepo) Delete() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileRepo.Delete] remove")
	}
	return nil
}
