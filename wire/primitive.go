package wire

import (
	"strconv"
	"time"
)

// DecodeChar reads a chr object: a single byte.
func DecodeChar(r *Reader) (Value, error) {
	b, err := r.Byte()
	if err != nil {
		return Value{}, valueError(TagChar, err)
	}
	return Value{Kind: KindChar, Char: b}, nil
}

// DecodeInt reads an int object: a signed 32-bit big-endian integer.
func DecodeInt(r *Reader) (Value, error) {
	u, err := r.BigEndianUint32()
	if err != nil {
		return Value{}, valueError(TagInt, err)
	}
	return Value{Kind: KindInt, Int: int32(u)}, nil
}

// DecodeLong reads a lon object: a 1-byte length followed by ASCII decimal
// text, optionally signed.
func DecodeLong(r *Reader) (Value, error) {
	b, err := r.lengthPrefixedBytes()
	if err != nil {
		return Value{}, valueError(TagLong, err)
	}
	n, err := parseDecimal(b)
	if err != nil {
		return Value{}, valueError(TagLong, err)
	}
	return Value{Kind: KindLong, Long: n}, nil
}

// DecodeString reads a str object: a 4-byte length followed by UTF-8 text,
// with the null-string collapse (see Reader.longStringBytes).
func DecodeString(r *Reader) (Value, error) {
	b, err := r.longStringBytes()
	if err != nil {
		return Value{}, valueError(TagString, err)
	}
	return Value{Kind: KindString, Str: string(b)}, nil
}

// DecodeBuffer reads a buf object: identical wire shape to str, but the
// bytes are opaque and not assumed to be valid UTF-8.
func DecodeBuffer(r *Reader) (Value, error) {
	b, err := r.longStringBytes()
	if err != nil {
		return Value{}, valueError(TagBuffer, err)
	}
	return Value{Kind: KindBuffer, Str: string(b)}, nil
}

// DecodePointer reads a ptr object: a 1-byte length followed by ASCII hex
// text. The result is the hex text verbatim; pointers are never
// interpreted as memory addresses by this package.
func DecodePointer(r *Reader) (Value, error) {
	b, err := r.lengthPrefixedBytes()
	if err != nil {
		return Value{}, valueError(TagPointer, err)
	}
	return Value{Kind: KindPointer, Str: string(b)}, nil
}

// DecodeTime reads a tim object: a 1-byte length followed by ASCII decimal
// seconds-since-epoch text. No sub-second precision is ever present on the
// wire.
func DecodeTime(r *Reader) (Value, error) {
	b, err := r.lengthPrefixedBytes()
	if err != nil {
		return Value{}, valueError(TagTime, err)
	}
	n, err := parseDecimal(b)
	if err != nil {
		return Value{}, valueError(TagTime, err)
	}
	return Value{Kind: KindTime, Time: time.Unix(n, 0).UTC()}, nil
}

// parseDecimal parses an ASCII decimal integer, optionally prefixed with
// '-'. It rejects anything outside [-0-9], matching the original Python
// decoder's reliance on int() raising ValueError on malformed text.
func parseDecimal(b []byte) (int64, error) {
	for i, c := range b {
		if c == '-' && i == 0 {
			continue
		}
		if c < '0' || c > '9' {
			return 0, ErrMalformed
		}
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, ErrMalformed
	}
	return n, nil
}
