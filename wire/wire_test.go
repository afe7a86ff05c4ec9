package wire_test

import (
	"testing"
	"time"

	"github.com/go-test/deep"

	"github.com/weechat-go/relay/wire"
)

func TestDecodeChar(t *testing.T) {
	r := wire.NewReader([]byte{'A'})
	v, err := wire.DecodeChar(r)
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(v, wire.Value{Kind: wire.KindChar, Char: 'A'}); diff != nil {
		t.Error(diff)
	}
	if r.Remaining() != 0 {
		t.Error("expected reader exhausted")
	}
}

func TestDecodeInt(t *testing.T) {
	r := wire.NewReader([]byte{0x00, 0x00, 0x00, 0x2A})
	v, err := wire.DecodeInt(r)
	if err != nil {
		t.Fatal(err)
	}
	if v.Int != 42 {
		t.Errorf("got %d, want 42", v.Int)
	}
}

func TestDecodeLongNegative(t *testing.T) {
	r := wire.NewReader([]byte{0x03, '-', '1', '7'})
	v, err := wire.DecodeLong(r)
	if err != nil {
		t.Fatal(err)
	}
	if v.Long != -17 {
		t.Errorf("got %d, want -17", v.Long)
	}
}

func TestDecodeLongMalformed(t *testing.T) {
	r := wire.NewReader([]byte{0x02, 'x', 'y'})
	_, err := wire.DecodeLong(r)
	if err == nil {
		t.Fatal("expected error for non-numeric lon")
	}
}

func TestDecodeStringNullCollapse(t *testing.T) {
	for _, length := range [][]byte{
		{0x00, 0x00, 0x00, 0x00},
		{0xFF, 0xFF, 0xFF, 0xFF},
	} {
		r := wire.NewReader(length)
		v, err := wire.DecodeString(r)
		if err != nil {
			t.Fatal(err)
		}
		if v.Str != "" {
			t.Errorf("got %q, want empty", v.Str)
		}
	}
}

func TestDecodeStringTruncated(t *testing.T) {
	r := wire.NewReader([]byte{0x00, 0x00, 0x00, 0x05, 'a', 'b'})
	_, err := wire.DecodeString(r)
	if err == nil {
		t.Fatal("expected truncation error")
	}
}

func TestDecodePointer(t *testing.T) {
	r := wire.NewReader([]byte{0x01, '0'})
	v, err := wire.DecodePointer(r)
	if err != nil {
		t.Fatal(err)
	}
	if v.Str != "0" {
		t.Errorf("got %q, want null pointer token %q", v.Str, "0")
	}
}

func TestDecodeTime(t *testing.T) {
	r := wire.NewReader([]byte{0x0A, '1', '2', '3', '4', '5', '6', '7', '8', '9', '0'})
	v, err := wire.DecodeTime(r)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Unix(1234567890, 0).UTC()
	if !v.Time.Equal(want) {
		t.Errorf("got %v, want %v", v.Time, want)
	}
}

func TestDecodeArray(t *testing.T) {
	buf := []byte{'i', 'n', 't', 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02}
	r := wire.NewReader(buf)
	v, err := wire.DecodeArray(r)
	if err != nil {
		t.Fatal(err)
	}
	if v.Arr.ElementTag != wire.TagInt || len(v.Arr.Elements) != 2 {
		t.Fatalf("unexpected array: %+v", v.Arr)
	}
	if v.Arr.Elements[0].Int != 1 || v.Arr.Elements[1].Int != 2 {
		t.Errorf("unexpected elements: %+v", v.Arr.Elements)
	}
}

func TestDecodeArrayHugeCountIsBoundedNotFatal(t *testing.T) {
	// Declares an element count far beyond what the short buffer could ever
	// hold. Decoding must report ErrTruncated, not attempt to preallocate
	// a slice of the declared size.
	buf := []byte{'i', 'n', 't', 0xFF, 0xFF, 0xFF, 0xF0}
	r := wire.NewReader(buf)
	_, err := wire.DecodeArray(r)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
}

func TestDecodeHashTable(t *testing.T) {
	// key tag str, value tag str, count 1, then ("k","v").
	buf := []byte{'s', 't', 'r', 's', 't', 'r', 0x00, 0x00, 0x00, 0x01}
	buf = append(buf, 0x00, 0x00, 0x00, 0x01, 'k')
	buf = append(buf, 0x00, 0x00, 0x00, 0x01, 'v')
	r := wire.NewReader(buf)
	v, err := wire.DecodeHashTable(r)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.Hash.Get("k")
	if !ok || got.Str != "v" {
		t.Errorf("Get(%q) = %v, %v", "k", got, ok)
	}
}

func TestDecodeHdataZeroRows(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x06}
	buf = append(buf, []byte("buffer")...)
	buf = append(buf, 0x00, 0x00, 0x00, 0x08)
	buf = append(buf, []byte("name:str")...)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00)
	r := wire.NewReader(buf)
	v, err := wire.DecodeHdata(r)
	if err != nil {
		t.Fatal(err)
	}
	want := &wire.Hdata{
		Hpath: "buffer",
		Keys:  []wire.HdataKey{{Name: "name", Type: wire.TagString}},
		Rows:  []wire.Row{},
	}
	if diff := deep.Equal(v.Hdata, want); diff != nil {
		t.Error(diff)
	}
}

func TestDecodeHdataEmptyHpathIsAbsent(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x00}
	r := wire.NewReader(buf)
	v, err := wire.DecodeHdata(r)
	if err != nil {
		t.Fatal(err)
	}
	if v.Hdata.Rows != nil {
		t.Error("expected nil rows for empty hpath")
	}
}

func TestDecodeHdataTwoLevelPath(t *testing.T) {
	var buf []byte
	buf = append(buf, 0x00, 0x00, 0x00, 0x0C)
	buf = append(buf, []byte("buffer/lines")...)
	buf = append(buf, 0x00, 0x00, 0x00, 0x08)
	buf = append(buf, []byte("name:str")...)
	buf = append(buf, 0x00, 0x00, 0x00, 0x01) // count = 1
	buf = append(buf, 0x01, '1')              // pointer "1"
	buf = append(buf, 0x01, '2')              // pointer "2"
	buf = append(buf, 0x00, 0x00, 0x00, 0x01, 'x')

	r := wire.NewReader(buf)
	v, err := wire.DecodeHdata(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Hdata.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(v.Hdata.Rows))
	}
	row := v.Hdata.Rows[0]
	if diff := deep.Equal(row.Path, []string{"1", "2"}); diff != nil {
		t.Error(diff)
	}
	if row.Fields["name"].Str != "x" {
		t.Errorf("got %q, want %q", row.Fields["name"].Str, "x")
	}
}

func TestDecodeHdataDeclaredCountExceedsRows(t *testing.T) {
	var buf []byte
	buf = append(buf, 0x00, 0x00, 0x00, 0x06)
	buf = append(buf, []byte("buffer")...)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00) // no keys
	buf = append(buf, 0x00, 0x00, 0x00, 0x05) // claims 5 rows
	buf = append(buf, 0x01, '1')              // only one pointer present
	r := wire.NewReader(buf)
	_, err := wire.DecodeHdata(r)
	if err == nil {
		t.Fatal("expected truncation error when declared row count exceeds data")
	}
}

func TestDecodeHdataHugeRowCountIsBoundedNotFatal(t *testing.T) {
	var buf []byte
	buf = append(buf, 0x00, 0x00, 0x00, 0x06)
	buf = append(buf, []byte("buffer")...)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00) // no keys
	buf = append(buf, 0xFF, 0xFF, 0xFF, 0xF0) // claims ~4 billion rows
	r := wire.NewReader(buf)
	_, err := wire.DecodeHdata(r)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
}

func TestDecodeHdataBadSchema(t *testing.T) {
	var buf []byte
	buf = append(buf, 0x00, 0x00, 0x00, 0x06)
	buf = append(buf, []byte("buffer")...)
	buf = append(buf, 0x00, 0x00, 0x00, 0x04)
	buf = append(buf, []byte("name")...) // no ':' separator
	r := wire.NewReader(buf)
	_, err := wire.DecodeHdata(r)
	if err == nil {
		t.Fatal("expected schema mismatch error")
	}
}

func TestUnknownTagRejected(t *testing.T) {
	r := wire.NewReader([]byte("zzz"))
	_, err := wire.DecodeTaggedValue(r)
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
}
