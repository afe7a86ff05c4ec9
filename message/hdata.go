package message

import "github.com/weechat-go/relay/wire"

// PrimaryHData is a convenience accessor for the common case of a frame
// whose first object is an hdata reply. It returns:
//   - (fields, true) when the hdata has exactly one row: that row's field map.
//   - (rows, true) when the hdata has more than one row: the []wire.Row slice.
//   - (nil, false) when there is no hdata as the first object, or it
//     decoded to "absent" (empty hpath), or it has zero rows, or Objects
//     itself is nil/empty.
//
// The single-row collapse mirrors the original client library's
// get_hdata_result helper, which callers relied on to avoid unwrapping a
// one-element list for the overwhelmingly common single-entity reply.
func (m *DecodedMessage) PrimaryHData() (interface{}, bool) {
	if len(m.Objects) == 0 {
		return nil, false
	}
	first := m.Objects[0]
	if first.Kind != wire.KindHdata || first.Hdata == nil {
		return nil, false
	}
	hd := first.Hdata
	if hd.Hpath == "" {
		return nil, false
	}
	switch len(hd.Rows) {
	case 0:
		return nil, false
	case 1:
		return hd.Rows[0].Fields, true
	default:
		return hd.Rows, true
	}
}
