package addressstore

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/wire"
)

const flushInterval = 5 * time.Second

// Store is a reference implementation of the take/fetch/restore/save/
// count external collaborator. Critical mutations (take,
// restore, save) persist immediately; Store itself has no notion of a
// strand — it serializes with a mutex and invokes handlers
// synchronously, and callers running on their own strand are
// responsible for posting back to it if the handler must run there.
type Store struct {
	storage *storage
	mu      sync.Mutex
	entries map[string]*Entry
	dirty   bool

	ctx    context.Context
	cancel context.CancelFunc
}

// Open loads path (creating an empty store if it doesn't exist yet)
// and starts the background flush loop.
func Open(path string) (*Store, error) {
	s := newStorage(path)
	data, err := s.load()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	st := &Store{storage: s, entries: data.Entries, ctx: ctx, cancel: cancel}
	go st.flushLoop()
	return st, nil
}

func (s *Store) flushLoop() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.dirty {
				_ = s.saveLocked()
			}
			s.mu.Unlock()
		}
	}
}

func (s *Store) saveLocked() error {
	data := &storeData{Version: currentVersion, Entries: s.entries}
	if err := s.storage.save(data); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Close stops the flush loop and persists any pending changes.
func (s *Store) Close() error {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		return s.saveLocked()
	}
	return nil
}

// Take pops one non-blacklisted address at random, removing it from
// the store. handler(address_not_found, zero) if the store has no
// eligible entries.
func (s *Store) Take(handler func(code errcode.Code, a authority.Authority)) {
	s.mu.Lock()
	var candidates []string
	for k, e := range s.entries {
		if !e.Blacklisted {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		s.mu.Unlock()
		handler(errcode.AddressNotFound, authority.Zero)
		return
	}
	pick := candidates[rand.Intn(len(candidates))]
	entry := s.entries[pick]
	delete(s.entries, pick)
	s.dirty = true
	err := s.saveLocked()
	s.mu.Unlock()

	if err != nil {
		handler(errcode.FileSave, authority.Zero)
		return
	}
	handler(errcode.Success, entry.Item.Authority())
}

// Fetch returns a snapshot copy of every non-blacklisted stored
// authority.
func (s *Store) Fetch(handler func(code errcode.Code, addrs []authority.Authority)) {
	s.mu.Lock()
	addrs := make([]authority.Authority, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.Blacklisted {
			addrs = append(addrs, e.Item.Authority())
		}
	}
	s.mu.Unlock()
	handler(errcode.Success, addrs)
}

// Restore puts an address item back into the store (e.g. after a
// failed connect attempt consumed via Take).
func (s *Store) Restore(item wire.AddressItem, handler func(code errcode.Code)) {
	s.mu.Lock()
	k := key(item.Authority())
	if existing, ok := s.entries[k]; ok && existing.Blacklisted {
		s.mu.Unlock()
		handler(errcode.AddressBlocked)
		return
	}
	s.entries[k] = &Entry{Item: item, UpdatedAt: time.Now()}
	err := s.saveLocked()
	s.mu.Unlock()

	if err != nil {
		handler(errcode.FileSave)
		return
	}
	handler(errcode.Success)
}

// Save bulk-inserts items, skipping ones already blacklisted.
// handler(code, accepted, filtered) reports how many were stored vs.
// dropped.
func (s *Store) Save(items []wire.AddressItem, handler func(code errcode.Code, accepted, filtered int)) {
	s.mu.Lock()
	accepted := 0
	filtered := 0
	for _, item := range items {
		k := key(item.Authority())
		if existing, ok := s.entries[k]; ok && existing.Blacklisted {
			filtered++
			continue
		}
		s.entries[k] = &Entry{Item: item, UpdatedAt: time.Now()}
		accepted++
	}
	var err error
	if accepted > 0 {
		s.dirty = true
		err = s.saveLocked()
	}
	s.mu.Unlock()

	if err != nil {
		handler(errcode.FileSave, 0, len(items))
		return
	}
	if handler != nil {
		handler(errcode.Success, accepted, filtered)
	}
}

// Blacklist marks a stored (or not-yet-stored) authority as
// blacklisted, so future Take/Fetch calls skip it.
func (s *Store) Blacklist(a authority.Authority) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(a)
	entry, ok := s.entries[k]
	if !ok {
		entry = &Entry{Item: wire.AddressItemFrom(a, 0, 0)}
		s.entries[k] = entry
	}
	entry.Blacklisted = true
	entry.UpdatedAt = time.Now()
	s.dirty = true
}

// Count returns a snapshot of the total stored address count,
// including blacklisted entries.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
