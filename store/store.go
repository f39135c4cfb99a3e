// Package store persists packed accounts (see the layout package) in a
// LevelDB-backed key-value store, generalising the teacher's
// storage.Database/LevelDB pair (github.com/syndtr/goleveldb) from raw
// blockchain state to namespaced account records keyed by pubkey.
package store

import (
	"errors"
	"path/filepath"
	"sort"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"vaultcore/pubkey"
)

// ErrNotFound is returned when a requested account does not exist.
var ErrNotFound = errors.New("store: account not found")

// ErrClosed is returned by MemStore for any operation attempted after Close.
var ErrClosed = errors.New("store: database is closed")

// Namespace tags the account kind a key belongs to, so distinct account
// types sharing the same Pubkey space (unlikely, but not forbidden by
// pubkey.Pubkey) never collide in the same keyspace.
type Namespace string

const (
	NamespaceVaultConfig       Namespace = "vault_config"
	NamespaceVaultState        Namespace = "vault_state"
	NamespaceTick              Namespace = "tick"
	NamespaceTickIdLiquidation Namespace = "tick_id_liquidation"
	NamespaceBranch            Namespace = "branch"
	NamespaceTickHasDebtArray  Namespace = "tick_has_debt_array"
	NamespacePosition          Namespace = "position"
	NamespaceUserClaim         Namespace = "user_claim"
	NamespaceFlashloanAdmin    Namespace = "flashloan_admin"
	NamespaceAuthorizationList Namespace = "authorization_list"
	NamespaceReserve           Namespace = "reserve"
	NamespaceFToken            Namespace = "ftoken"
)

// Database is a generic interface over the key-value backend, mirroring the
// teacher's storage.Database so a deployment can swap LevelDB for an
// in-memory store in tests without touching caller code.
type Database interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Delete(key []byte) error
	Iterate(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// LevelStore is a persistent Database backed by LevelDB, mirroring the
// teacher's storage.LevelDB wrapper.
type LevelStore struct {
	db *leveldb.DB
}

// OpenLevelStore creates or opens a LevelDB database at path.
func OpenLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(filepath.Clean(path), nil)
	if err != nil {
		return nil, err
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Put(key, value []byte) error { return s.db.Put(key, value, nil) }

func (s *LevelStore) Get(key []byte) ([]byte, error) {
	v, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *LevelStore) Delete(key []byte) error { return s.db.Delete(key, nil) }

func (s *LevelStore) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	iter := s.db.NewIterator(levelRange(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (s *LevelStore) Close() error { return s.db.Close() }

// MemStore is an in-memory Database for tests and harness use, mirroring
// the teacher's storage.MemDB.
type MemStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemStore constructs an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[string(key)] = cp
	return nil
}

func (m *MemStore) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemStore) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, string(key))
	return nil
}

func (m *MemStore) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	type kv struct {
		k, v []byte
	}
	var matches []kv
	for k, v := range m.data {
		if hasPrefix([]byte(k), prefix) {
			matches = append(matches, kv{k: []byte(k), v: v})
		}
	}
	m.mu.RUnlock()
	sort.Slice(matches, func(i, j int) bool { return string(matches[i].k) < string(matches[j].k) })
	for _, pair := range matches {
		if err := fn(pair.k, pair.v); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if b[i] != p {
			return false
		}
	}
	return true
}

func levelRange(prefix []byte) *util.Range {
	if len(prefix) == 0 {
		return nil
	}
	return util.BytesPrefix(prefix)
}

// AccountKey builds the namespaced key an account is stored under: the
// namespace tag, a ':' separator, then the account's 32-byte Pubkey.
func AccountKey(ns Namespace, id pubkey.Pubkey) []byte {
	key := make([]byte, 0, len(ns)+1+pubkey.Size)
	key = append(key, []byte(ns)...)
	key = append(key, ':')
	key = append(key, id.Bytes()...)
	return key
}

// AccountStore wraps a Database with namespace-scoped Put/Get/Delete for
// packed account bytes (see the layout package), matching the teacher's
// peerstore.go style of a thin struct over a raw Database.
type AccountStore struct {
	db Database
}

// NewAccountStore wraps db.
func NewAccountStore(db Database) *AccountStore {
	return &AccountStore{db: db}
}

// Put stores the packed bytes for account id under namespace ns.
func (s *AccountStore) Put(ns Namespace, id pubkey.Pubkey, packed []byte) error {
	return s.db.Put(AccountKey(ns, id), packed)
}

// Get retrieves the packed bytes previously stored for id under ns.
func (s *AccountStore) Get(ns Namespace, id pubkey.Pubkey) ([]byte, error) {
	return s.db.Get(AccountKey(ns, id))
}

// Delete removes the account record for id under ns.
func (s *AccountStore) Delete(ns Namespace, id pubkey.Pubkey) error {
	return s.db.Delete(AccountKey(ns, id))
}

// Range iterates every account stored under ns, in key order, calling fn
// with each account's raw packed bytes.
func (s *AccountStore) Range(ns Namespace, fn func(packed []byte) error) error {
	prefix := append([]byte(ns), ':')
	return s.db.Iterate(prefix, func(_, value []byte) error {
		return fn(value)
	})
}

// Close releases the underlying database.
func (s *AccountStore) Close() error { return s.db.Close() }
