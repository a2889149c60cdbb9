package session

import (
	"context"
	"sync"

	"aerokit/internal/domain/accesscontrol"
)

// MemoryStore keeps the session in process memory. Persistent values survive
// EndBrowsingSession; flags and the return path do not.
type MemoryStore struct {
	mu         sync.Mutex
	persistent map[string]string
	scoped     map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		persistent: make(map[string]string),
		scoped:     make(map[string]string),
	}
}

// SetItem writes a raw persistent value, bypassing encoding.
func (m *MemoryStore) SetItem(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistent[key] = value
}

// EndBrowsingSession drops the session-scoped values.
func (m *MemoryStore) EndBrowsingSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.scoped)
}

func (m *MemoryStore) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistent[keyToken], nil
}

func (m *MemoryStore) Load(context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Token: m.persistent[keyToken],
		User:  decodeUser(m.persistent[keyUser]),
	}, nil
}

func (m *MemoryStore) Save(_ context.Context, token string, user accesscontrol.Principal) error {
	raw, err := encodeUser(user)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistent[keyToken] = token
	m.persistent[keyUser] = raw
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.persistent, keyToken)
	delete(m.persistent, keyUser)
	return nil
}

func (m *MemoryStore) ClearIfToken(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.persistent[keyToken]
	if !ok || current != token {
		return false, nil
	}
	delete(m.persistent, keyToken)
	delete(m.persistent, keyUser)
	return true, nil
}

func (m *MemoryStore) SetFlag(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoped[flagPrefix+name] = "1"
	return nil
}

func (m *MemoryStore) ConsumeFlag(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.scoped[flagPrefix+name]
	delete(m.scoped, flagPrefix+name)
	return ok, nil
}

func (m *MemoryStore) SetReturnPath(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoped[keyReturnPath] = path
	return nil
}

func (m *MemoryStore) ConsumeReturnPath(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := m.scoped[keyReturnPath]
	delete(m.scoped, keyReturnPath)
	return path, nil
}
