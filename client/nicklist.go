package client

import "github.com/weechat-go/relay/wire"

// NickList tracks the set of nicks known for a buffer, populated from
// "nicklist" hdata replies. It supplements the core decoder with the
// buffer/nicklist state tracking the original pyweechat client's buffer
// module provided, which the distilled decoder spec leaves as the
// caller's concern.
type NickList struct {
	// byBuffer maps a buffer's pointer token to the nicks currently
	// known for it, keyed by the nick entry's own pointer token so
	// repeated "nicklist" replies can be diffed.
	byBuffer map[string]map[string]string // buffer ptr -> nick ptr -> name
}

// NewNickList returns an empty NickList.
func NewNickList() *NickList {
	return &NickList{byBuffer: make(map[string]map[string]string)}
}

// ApplyHdata updates the nicklist for bufferPtr from a decoded "nicklist"
// hdata reply's rows. Each row is expected to carry a "name" field (per
// the relay's nicklist hdata schema); rows without one are ignored.
func (n *NickList) ApplyHdata(bufferPtr string, rows []wire.Row) {
	nicks, ok := n.byBuffer[bufferPtr]
	if !ok {
		nicks = make(map[string]string)
		n.byBuffer[bufferPtr] = nicks
	}
	for _, row := range rows {
		if len(row.Path) == 0 {
			continue
		}
		nickPtr := row.Path[len(row.Path)-1]
		field, ok := row.Fields["name"]
		if !ok {
			continue
		}
		nicks[nickPtr] = field.Str
	}
}

// Names returns the current nick names for bufferPtr, in no particular
// order.
func (n *NickList) Names(bufferPtr string) []string {
	nicks := n.byBuffer[bufferPtr]
	names := make([]string, 0, len(nicks))
	for _, name := range nicks {
		names = append(names, name)
	}
	return names
}

// Forget drops all tracked nicks for bufferPtr, e.g. when its buffer is
// closed.
func (n *NickList) Forget(bufferPtr string) {
	delete(n.byBuffer, bufferPtr)
}
