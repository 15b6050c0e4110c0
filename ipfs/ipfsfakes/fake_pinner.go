package ipfsfakes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/goccy/go-json"

	"github.com/kenesis-labs/kenesis-engine/ipfs"
)

var _ ipfs.Pinner = (*FakePinner)(nil)

// FakePinner stores pinned content in memory, hashing it so the same bytes
// pin to the same "content address".
type FakePinner struct {
	lock  sync.Mutex
	files map[string][]byte
	docs  map[string][]byte

	PinFileErr error
	PinJSONErr error

	FileCount int
	JSONCount int
}

func NewFakePinner() *FakePinner {
	return &FakePinner{
		files: make(map[string][]byte),
		docs:  make(map[string][]byte),
	}
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return "Qm" + hex.EncodeToString(sum[:16])
}

func (f *FakePinner) PinFile(_ context.Context, _ string, blob []byte) (*ipfs.PinResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.FileCount++
	if f.PinFileErr != nil {
		return nil, f.PinFileErr
	}
	hash := contentHash(blob)
	f.files[hash] = blob
	return &ipfs.PinResult{IpfsHash: hash, PinSize: int64(len(blob))}, nil
}

func (f *FakePinner) PinJSON(_ context.Context, v any) (*ipfs.PinResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.JSONCount++
	if f.PinJSONErr != nil {
		return nil, f.PinJSONErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	hash := contentHash(data)
	f.docs[hash] = data
	return &ipfs.PinResult{IpfsHash: hash, PinSize: int64(len(data))}, nil
}

// Document returns the pinned JSON for hash.
func (f *FakePinner) Document(hash string) ([]byte, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	doc, ok := f.docs[hash]
	return doc, ok
}
