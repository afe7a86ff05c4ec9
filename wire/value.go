package wire

import "time"

// Kind identifies which arm of Value is populated.
type Kind int

// The Value kinds, one per wire tag.
const (
	KindChar Kind = iota
	KindInt
	KindLong
	KindString
	KindBuffer
	KindPointer
	KindTime
	KindHashTable
	KindHdata
	KindInfo
	KindInfoList
	KindArray
)

// Value is a decoded wire object: a tagged variant with one arm populated
// according to Kind. Consumers type-switch on Kind rather than on a Go
// interface type, mirroring the fixed, closed set of twelve wire types.
type Value struct {
	Kind Kind

	Char   byte
	Int    int32
	Long   int64
	Str    string // also holds Buffer's raw bytes reinterpreted as string, and Pointer's hex token
	Time   time.Time
	Hash   *HashTable
	Hdata  *Hdata
	Info   Info
	InfoL  *InfoList
	Arr    *Array
}

// HashTable is a decoded htb object: an ordered sequence of key/value
// pairs. Insertion order is preserved; a repeated key overwrites the
// earlier entry's value but keeps its original position.
type HashTable struct {
	KeyTag   Tag
	ValueTag Tag
	Keys     []Value
	Values   []Value
}

// Get returns the value associated with a key with the given string
// representation, and whether it was found. It compares by the key's
// rendered Str/Char/Int form, which is sufficient for every key type the
// relay protocol actually uses (ptr, str, int).
func (h *HashTable) Get(key string) (Value, bool) {
	for i, k := range h.Keys {
		if renderKey(k) == key {
			return h.Values[i], true
		}
	}
	return Value{}, false
}

func renderKey(v Value) string {
	switch v.Kind {
	case KindString, KindPointer:
		return v.Str
	case KindInt:
		return itoa(int64(v.Int))
	case KindLong:
		return itoa(v.Long)
	case KindChar:
		return string(rune(v.Char))
	default:
		return ""
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Row is a single hdata record: one pointer per hpath segment, plus one
// field value per declared key.
type Row struct {
	Path   []string // pointer tokens, one per hpath segment, in declaration order
	Fields map[string]Value
}

// HdataKey names one declared field and the wire type it is encoded with.
type HdataKey struct {
	Name string
	Type Tag
}

// Hdata is a decoded hda object. An empty Hpath means the object decoded
// to "absent" per the protocol (the server declares no walk); Rows is nil
// in that case and callers should treat the whole object as not present.
type Hdata struct {
	Hpath string
	Keys  []HdataKey
	Rows  []Row
}

// Info is a decoded inf object: a single (name, value) pair of strings.
type Info struct {
	Name  string
	Value string
}

// InfoList is a decoded inl object: a named collection of inner lists,
// keyed by inner name. A repeated inner name replaces the earlier entry.
type InfoList struct {
	Name  string
	Items map[string][]Value
	Order []string // insertion order of Items' keys, for deterministic replay
}

// Array is a decoded arr object: a homogeneous sequence of values of
// ElementTag.
type Array struct {
	ElementTag Tag
	Elements   []Value
}
