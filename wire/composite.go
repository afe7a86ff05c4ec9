package wire

import "strings"

// decoders maps each wire tag to the function that decodes one value of
// that type. Composite decoders recurse through this same table, mirroring
// the original decoder's single dispatch-by-tag function.
var decoders map[Tag]func(*Reader) (Value, error)

func init() {
	decoders = map[Tag]func(*Reader) (Value, error){
		TagChar:     DecodeChar,
		TagInt:      DecodeInt,
		TagLong:     DecodeLong,
		TagString:   DecodeString,
		TagBuffer:   DecodeBuffer,
		TagPointer:  DecodePointer,
		TagTime:     DecodeTime,
		TagHashTble: DecodeHashTable,
		TagHdata:    DecodeHdata,
		TagInfo:     DecodeInfo,
		TagInfoList: DecodeInfoList,
		TagArray:    DecodeArray,
	}
}

// boundedCap caps a wire-declared element count so that a speculative slice
// preallocation can never request more backing memory than the remaining
// buffer could possibly supply (every wire value occupies at least one
// byte). Without this, a short malformed frame declaring a huge count
// (e.g. arr with n = 0xFFFFFFF0) would make(..., 0, n) straight off the
// wire and trigger a fatal out-of-memory abort rather than a handled error.
func boundedCap(n uint32, r *Reader) int {
	if rem := r.Remaining(); n > uint32(rem) {
		return rem
	}
	return int(n)
}

// DecodeByTag decodes a single value of the given type, using the shared
// dispatch table. It is exported so callers that already know an object's
// type (e.g. a single value embedded in a larger structure) can decode it
// directly.
func DecodeByTag(tag Tag, r *Reader) (Value, error) {
	fn, ok := decoders[tag]
	if !ok {
		return Value{}, valueError(tag, ErrMalformed)
	}
	return fn(r)
}

// DecodeTaggedValue reads a 3-byte type tag followed by one value of that
// type. This is the shape used for object-stream positions: the frame
// body loop in package message.
func DecodeTaggedValue(r *Reader) (Value, error) {
	tag, err := r.Tag3()
	if err != nil {
		return Value{}, err
	}
	if !IsKnownTag(tag) {
		return Value{}, ErrMalformed
	}
	return DecodeByTag(tag, r)
}

// DecodeArray reads an arr object: a 3-byte element type tag, a 4-byte
// count N, then N values of that type.
func DecodeArray(r *Reader) (Value, error) {
	elemTag, err := r.Tag3()
	if err != nil {
		return Value{}, valueError(TagArray, err)
	}
	if !IsKnownTag(elemTag) {
		return Value{}, valueError(TagArray, ErrMalformed)
	}
	n, err := r.BigEndianUint32()
	if err != nil {
		return Value{}, valueError(TagArray, err)
	}
	elems := make([]Value, 0, boundedCap(n, r))
	for i := uint32(0); i < n; i++ {
		v, err := DecodeByTag(elemTag, r)
		if err != nil {
			return Value{}, valueError(TagArray, err)
		}
		elems = append(elems, v)
	}
	return Value{Kind: KindArray, Arr: &Array{ElementTag: elemTag, Elements: elems}}, nil
}

// DecodeHashTable reads an htb object: a key type tag, a value type tag, a
// 4-byte count N, then N (key, value) pairs. A repeated key on the wire
// overwrites the earlier value but keeps its original position, matching
// last-write-wins semantics.
func DecodeHashTable(r *Reader) (Value, error) {
	keyTag, err := r.Tag3()
	if err != nil {
		return Value{}, valueError(TagHashTble, err)
	}
	valTag, err := r.Tag3()
	if err != nil {
		return Value{}, valueError(TagHashTble, err)
	}
	if !IsKnownTag(keyTag) || !IsKnownTag(valTag) {
		return Value{}, valueError(TagHashTble, ErrMalformed)
	}
	n, err := r.BigEndianUint32()
	if err != nil {
		return Value{}, valueError(TagHashTble, err)
	}
	ht := &HashTable{KeyTag: keyTag, ValueTag: valTag}
	for i := uint32(0); i < n; i++ {
		k, err := DecodeByTag(keyTag, r)
		if err != nil {
			return Value{}, valueError(TagHashTble, err)
		}
		v, err := DecodeByTag(valTag, r)
		if err != nil {
			return Value{}, valueError(TagHashTble, err)
		}
		rendered := renderKey(k)
		replaced := false
		for i, existing := range ht.Keys {
			if renderKey(existing) == rendered {
				ht.Values[i] = v
				replaced = true
				break
			}
		}
		if !replaced {
			ht.Keys = append(ht.Keys, k)
			ht.Values = append(ht.Values, v)
		}
	}
	return Value{Kind: KindHashTable, Hash: ht}, nil
}

// DecodeInfo reads an inf object: two back-to-back str values, (name, value).
func DecodeInfo(r *Reader) (Value, error) {
	name, err := DecodeString(r)
	if err != nil {
		return Value{}, valueError(TagInfo, err)
	}
	val, err := DecodeString(r)
	if err != nil {
		return Value{}, valueError(TagInfo, err)
	}
	return Value{Kind: KindInfo, Info: Info{Name: name.Str, Value: val.Str}}, nil
}

// DecodeInfoList reads an inl object: a str list name, a 4-byte count N of
// named items, each item being an inner count, an inner name, a type tag,
// and that many values of the declared type.
func DecodeInfoList(r *Reader) (Value, error) {
	name, err := DecodeString(r)
	if err != nil {
		return Value{}, valueError(TagInfoList, err)
	}
	n, err := r.BigEndianUint32()
	if err != nil {
		return Value{}, valueError(TagInfoList, err)
	}
	il := &InfoList{Name: name.Str, Items: map[string][]Value{}}
	for i := uint32(0); i < n; i++ {
		m, err := r.BigEndianUint32()
		if err != nil {
			return Value{}, valueError(TagInfoList, err)
		}
		innerName, err := DecodeString(r)
		if err != nil {
			return Value{}, valueError(TagInfoList, err)
		}
		elemTag, err := r.Tag3()
		if err != nil {
			return Value{}, valueError(TagInfoList, err)
		}
		if !IsKnownTag(elemTag) {
			return Value{}, valueError(TagInfoList, ErrMalformed)
		}
		values := make([]Value, 0, boundedCap(m, r))
		for j := uint32(0); j < m; j++ {
			v, err := DecodeByTag(elemTag, r)
			if err != nil {
				return Value{}, valueError(TagInfoList, err)
			}
			values = append(values, v)
		}
		if _, exists := il.Items[innerName.Str]; !exists {
			il.Order = append(il.Order, innerName.Str)
		}
		il.Items[innerName.Str] = values
	}
	return Value{Kind: KindInfoList, InfoL: il}, nil
}

// DecodeHdata reads an hda object: an hpath, a comma-separated keys list,
// a row count, and that many rows. See the Hdata type for the resulting
// shape. An empty hpath decodes to an Hdata with no rows, which callers
// should treat as "absent" (see message.DecodedMessage.PrimaryHData); no
// further bytes of the object are read in that case.
func DecodeHdata(r *Reader) (Value, error) {
	hpath, err := DecodeString(r)
	if err != nil {
		return Value{}, valueError(TagHdata, err)
	}
	hd := &Hdata{Hpath: hpath.Str}
	if hpath.Str == "" {
		return Value{Kind: KindHdata, Hdata: hd}, nil
	}
	keysRaw, err := DecodeString(r)
	if err != nil {
		return Value{}, valueError(TagHdata, err)
	}
	pathLen := 1 + strings.Count(hpath.Str, "/")

	if keysRaw.Str != "" {
		for _, item := range strings.Split(keysRaw.Str, ",") {
			parts := strings.SplitN(item, ":", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				return Value{}, valueError(TagHdata, ErrSchemaMismatch)
			}
			tag := Tag(parts[1])
			if !IsKnownTag(tag) {
				return Value{}, valueError(TagHdata, ErrSchemaMismatch)
			}
			hd.Keys = append(hd.Keys, HdataKey{Name: parts[0], Type: tag})
		}
	}

	count, err := r.BigEndianUint32()
	if err != nil {
		return Value{}, valueError(TagHdata, err)
	}
	hd.Rows = make([]Row, 0, boundedCap(count, r))
	for i := uint32(0); i < count; i++ {
		row := Row{Fields: map[string]Value{}}
		for p := 0; p < pathLen; p++ {
			ptr, err := DecodePointer(r)
			if err != nil {
				return Value{}, valueError(TagHdata, err)
			}
			row.Path = append(row.Path, ptr.Str)
		}
		for _, key := range hd.Keys {
			v, err := DecodeByTag(key.Type, r)
			if err != nil {
				return Value{}, valueError(TagHdata, err)
			}
			row.Fields[key.Name] = v
		}
		hd.Rows = append(hd.Rows, row)
	}
	return Value{Kind: KindHdata, Hdata: hd}, nil
}
