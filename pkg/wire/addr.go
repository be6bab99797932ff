package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/blockweave/btcnet/pkg/authority"
)

// IpAddress is the fixed 16-byte IPv6 wire representation of an address;
// IPv4 is encoded as IPv4-mapped IPv6.
type IpAddress [16]byte

// NetAddr is the (services, ip, port) triple embedded in version and
// address messages, without the AddressItem's timestamp.
type NetAddr struct {
	Services uint64
	IP       IpAddress
	Port     uint16
}

func netAddrFromAuthority(a authority.Authority, services uint64) NetAddr {
	return NetAddr{Services: services, IP: IpAddress(a.Bytes()), Port: a.Port()}
}

// NetAddrFromAuthority builds a NetAddr from an Authority plus the
// services bitmap to advertise alongside it in a version message.
func NetAddrFromAuthority(a authority.Authority, services uint64) NetAddr {
	return netAddrFromAuthority(a, services)
}

func (n NetAddr) authority() authority.Authority {
	return authority.New(n.IP, n.Port)
}

// Authority extracts the (address, port) identity from a NetAddr.
func (n NetAddr) Authority() authority.Authority {
	return n.authority()
}

func putNetAddr(dst []byte, n NetAddr) []byte {
	var b [26]byte
	binary.LittleEndian.PutUint64(b[0:8], n.Services)
	copy(b[8:24], n.IP[:])
	binary.BigEndian.PutUint16(b[24:26], n.Port) // port is network byte order on the wire
	return append(dst, b[:]...)
}

func readNetAddr(src []byte) (NetAddr, int, error) {
	if len(src) < 26 {
		return NetAddr{}, 0, fmt.Errorf("wire: net_addr: truncated")
	}
	var n NetAddr
	n.Services = binary.LittleEndian.Uint64(src[0:8])
	copy(n.IP[:], src[8:24])
	n.Port = binary.BigEndian.Uint16(src[24:26])
	return n, 26, nil
}

// AddressItem is the timestamped wire form carried in `addr` messages:
// (timestamp, services, ip, port).
type AddressItem struct {
	Timestamp uint32
	Services  uint64
	IP        IpAddress
	Port      uint16
}

// Authority extracts the (address, port) identity from an AddressItem,
// dropping timestamp and services.
func (a AddressItem) Authority() authority.Authority {
	return authority.New(a.IP, a.Port)
}

// AddressItemFrom builds an AddressItem from an Authority plus the
// timestamp/services metadata carried alongside it in an addr message.
func AddressItemFrom(a authority.Authority, timestamp uint32, services uint64) AddressItem {
	return AddressItem{Timestamp: timestamp, Services: services, IP: IpAddress(a.Bytes()), Port: a.Port()}
}

func putAddressItem(dst []byte, item AddressItem) []byte {
	var tb [4]byte
	binary.LittleEndian.PutUint32(tb[:], item.Timestamp)
	dst = append(dst, tb[:]...)
	return putNetAddr(dst, NetAddr{Services: item.Services, IP: item.IP, Port: item.Port})
}

func readAddressItem(src []byte) (AddressItem, int, error) {
	if len(src) < 4 {
		return AddressItem{}, 0, fmt.Errorf("wire: address_item: truncated timestamp")
	}
	ts := binary.LittleEndian.Uint32(src[0:4])
	na, n, err := readNetAddr(src[4:])
	if err != nil {
		return AddressItem{}, 0, err
	}
	return AddressItem{Timestamp: ts, Services: na.Services, IP: na.IP, Port: na.Port}, 4 + n, nil
}

// MaxAddrItems is the maximum number of entries an `addr` message may
// carry.
const MaxAddrItems = 1000

// AddrMessage is the `addr` variant: a list of timestamped address items.
type AddrMessage struct {
	Items []AddressItem
}

func (m *AddrMessage) Command() string        { return "addr" }
func (m *AddrMessage) VersionMinimum() uint32 { return Version31402 }
func (m *AddrMessage) VersionMaximum() uint32 { return versionUnbounded }

func (m *AddrMessage) Marshal(uint32) ([]byte, error) {
	if len(m.Items) > MaxAddrItems {
		return nil, fmt.Errorf("wire: addr: %d items exceeds max %d", len(m.Items), MaxAddrItems)
	}
	dst := putVarInt(nil, uint64(len(m.Items)))
	for _, it := range m.Items {
		dst = putAddressItem(dst, it)
	}
	return dst, nil
}

func decodeAddr(payload []byte, _ uint32) (Message, error) {
	count, n, err := readVarInt(payload)
	if err != nil {
		return nil, err
	}
	if count > MaxAddrItems {
		return nil, fmt.Errorf("wire: addr: %d items exceeds max %d", count, MaxAddrItems)
	}
	items := make([]AddressItem, 0, count)
	off := n
	for i := uint64(0); i < count; i++ {
		item, consumed, err := readAddressItem(payload[off:])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		off += consumed
	}
	return &AddrMessage{Items: items}, nil
}

func init() { register("addr", decodeAddr) }

// GetAddrMessage is the empty-payload `getaddr` variant.
type GetAddrMessage struct{}

func (m *GetAddrMessage) Command() string        { return "getaddr" }
func (m *GetAddrMessage) VersionMinimum() uint32 { return Version31402 }
func (m *GetAddrMessage) VersionMaximum() uint32 { return versionUnbounded }
func (m *GetAddrMessage) Marshal(uint32) ([]byte, error) { return nil, nil }

func decodeGetAddr(payload []byte, _ uint32) (Message, error) {
	return &GetAddrMessage{}, nil
}

func init() { register("getaddr", decodeGetAddr) }
