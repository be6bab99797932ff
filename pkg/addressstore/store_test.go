package addressstore

import (
	"net/netip"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockweave/btcnet/pkg/authority"
	"github.com/blockweave/btcnet/pkg/errcode"
	"github.com/blockweave/btcnet/pkg/wire"
)

func mustAuthority(t *testing.T, s string) authority.Authority {
	t.Helper()
	a, err := authority.Parse(s)
	require.NoError(t, err)
	return a
}

func TestSaveTakeCountRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	a1 := mustAuthority(t, "1.2.3.4:8333")
	a2 := mustAuthority(t, "5.6.7.8:8333")
	items := []wire.AddressItem{
		wire.AddressItemFrom(a1, 1000, wire.ServiceNodeNetwork),
		wire.AddressItemFrom(a2, 1000, wire.ServiceNodeNetwork),
	}

	saveDone := make(chan struct{})
	store.Save(items, func(code errcode.Code, accepted, filtered int) {
		assert.Equal(t, errcode.Success, code)
		assert.Equal(t, 2, accepted)
		assert.Equal(t, 0, filtered)
		close(saveDone)
	})
	<-saveDone

	assert.Equal(t, 2, store.Count())

	taken := map[authority.Authority]bool{}
	for i := 0; i < 2; i++ {
		takeDone := make(chan struct{})
		store.Take(func(code errcode.Code, a authority.Authority) {
			assert.Equal(t, errcode.Success, code)
			taken[a] = true
			close(takeDone)
		})
		<-takeDone
	}
	assert.Equal(t, 0, store.Count())
	assert.True(t, taken[a1])
	assert.True(t, taken[a2])
}

func TestTakeOnEmptyStoreReturnsAddressNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	done := make(chan struct{})
	store.Take(func(code errcode.Code, a authority.Authority) {
		assert.Equal(t, errcode.AddressNotFound, code)
		close(done)
	})
	<-done
}

func TestBlacklistedEntrySkippedByTakeAndFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	a1 := mustAuthority(t, "9.9.9.9:8333")
	store.Save([]wire.AddressItem{wire.AddressItemFrom(a1, 1000, 0)}, nil)
	store.Blacklist(a1)

	fetchDone := make(chan struct{})
	store.Fetch(func(code errcode.Code, addrs []authority.Authority) {
		assert.Equal(t, errcode.Success, code)
		assert.Empty(t, addrs)
		close(fetchDone)
	})
	<-fetchDone

	takeDone := make(chan struct{})
	store.Take(func(code errcode.Code, a authority.Authority) {
		assert.Equal(t, errcode.AddressNotFound, code)
		close(takeDone)
	})
	<-takeDone
}

func TestRestorePutsAddressBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	a1 := mustAuthority(t, "10.0.0.1:8333")
	restoreDone := make(chan struct{})
	store.Restore(wire.AddressItemFrom(a1, 1000, 0), func(code errcode.Code) {
		assert.Equal(t, errcode.Success, code)
		close(restoreDone)
	})
	<-restoreDone
	assert.Equal(t, 1, store.Count())
}

func TestReopenLoadsPersistedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	store, err := Open(path)
	require.NoError(t, err)

	a1, ok := netip.AddrFromSlice([]byte{1, 1, 1, 1})
	require.True(t, ok)
	auth := authority.FromAddrPort(a1, 8333)
	store.Restore(wire.AddressItemFrom(auth, 1000, 0), func(errcode.Code) {})
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 1, reopened.Count())
}
