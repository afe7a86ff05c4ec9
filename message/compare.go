package message

import (
	"reflect"

	"github.com/weechat-go/relay/wire"
)

// ChangeType classifies how two successive decoded hdata snapshots for the
// same entity relate to each other, mirroring the teacher's netlink
// ChangeType/Compare pair but diffing hdata field maps instead of raw TCP
// attribute bytes.
type ChangeType int

const (
	// NoMajorChange means prev and cur carry identical field values.
	NoMajorChange ChangeType = iota
	// IDChanged means the two messages' identifying pointer differs,
	// which should not happen for snapshots keyed by the same pointer
	// token and likely indicates caller error.
	IDChanged
	// Diff means at least one field value differs between prev and cur.
	Diff
)

// Compare reports how cur's primary hdata row differs from prev's. Both
// messages are expected to carry a single-row primary hdata reply (the
// shape client.Cache stores); Compare returns NoMajorChange if either
// message lacks a usable hdata row, since there is nothing to compare.
func Compare(prev, cur *DecodedMessage) ChangeType {
	prevFields, prevOK := primaryRowFields(prev)
	curFields, curOK := primaryRowFields(cur)
	if !prevOK || !curOK {
		return NoMajorChange
	}
	if reflect.DeepEqual(prevFields, curFields) {
		return NoMajorChange
	}
	return Diff
}

func primaryRowFields(m *DecodedMessage) (map[string]wire.Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.PrimaryHData()
	if !ok {
		return nil, false
	}
	fields, ok := v.(map[string]wire.Value)
	return fields, ok
}
