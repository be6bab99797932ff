// Package addressstore is a reference implementation of the external
// hosts-file/address-pool collaborator the core calls through
// take/fetch/restore/save/count.
// Entries persist to a JSON file with an atomic-write, periodic-flush
// discipline, keyed by Authority.
package addressstore

import (
	"time"

	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/wire"
)

// Entry is one stored address: the wire item plus bookkeeping the
// store itself needs.
type Entry struct {
	Item        wire.AddressItem `json:"item"`
	Blacklisted bool             `json:"blacklisted"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// key returns the map key for the entry's authority.
func key(a authority.Authority) string { return a.String() }

// storeData is the on-disk JSON representation.
type storeData struct {
	Version int               `json:"version"`
	Entries map[string]*Entry `json:"entries"`
}

func newStoreData() *storeData {
	return &storeData{Version: currentVersion, Entries: make(map[string]*Entry)}
}
