package message_test

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/weechat-go/relay/message"
	"github.com/weechat-go/relay/wire"
)

func TestDecodeEmptyIDNoObjects(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x09, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}
	m, err := message.Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if m.ID != "" || m.CompressionUsed || len(m.Objects) != 0 {
		t.Errorf("unexpected result: %+v", m)
	}
}

func TestDecodeSingleIntObject(t *testing.T) {
	buf := []byte{
		0x00, 0x00, 0x00, 0x11, // length
		0x00,                   // flag
		0x00, 0x00, 0x00, 0x01, 'x', // id = "x"
		'i', 'n', 't', 0x00, 0x00, 0x00, 0x2A,
	}
	m, err := message.Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if m.ID != "x" {
		t.Errorf("got id %q, want %q", m.ID, "x")
	}
	if len(m.Objects) != 1 || m.Objects[0].Int != 42 {
		t.Errorf("unexpected objects: %+v", m.Objects)
	}
}

func TestDecodeLongNegative(t *testing.T) {
	buf := []byte{
		0x00, 0x00, 0x00, 0x10,
		0x00,
		0x00, 0x00, 0x00, 0x00, // empty id
		'l', 'o', 'n', 0x03, '-', '1', '7',
	}
	m, err := message.Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Objects) != 1 || m.Objects[0].Long != -17 {
		t.Errorf("unexpected objects: %+v", m.Objects)
	}
}

func TestDecodeHdataZeroRows(t *testing.T) {
	var body []byte
	body = append(body, 0x00, 0x00, 0x00, 0x00)       // empty id
	body = append(body, []byte("hda")...)
	body = append(body, 0x00, 0x00, 0x00, 0x06)
	body = append(body, []byte("buffer")...)
	body = append(body, 0x00, 0x00, 0x00, 0x08)
	body = append(body, []byte("name:str")...)
	body = append(body, 0x00, 0x00, 0x00, 0x00)

	frame := frameOf(body)
	m, err := message.Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Objects) != 1 || m.Objects[0].Kind != wire.KindHdata {
		t.Fatalf("unexpected objects: %+v", m.Objects)
	}
	if m.Objects[0].Hdata.Hpath != "buffer" || len(m.Objects[0].Hdata.Rows) != 0 {
		t.Errorf("unexpected hdata: %+v", m.Objects[0].Hdata)
	}
}

func TestDecodeHdataTwoLevelPath(t *testing.T) {
	var body []byte
	body = append(body, 0x00, 0x00, 0x00, 0x00)
	body = append(body, []byte("hda")...)
	body = append(body, 0x00, 0x00, 0x00, 0x0C)
	body = append(body, []byte("buffer/lines")...)
	body = append(body, 0x00, 0x00, 0x00, 0x08)
	body = append(body, []byte("name:str")...)
	body = append(body, 0x00, 0x00, 0x00, 0x01)
	body = append(body, 0x01, '1')
	body = append(body, 0x01, '2')
	body = append(body, 0x00, 0x00, 0x00, 0x01, 'x')

	frame := frameOf(body)
	m, err := message.Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	rows := m.Objects[0].Hdata.Rows
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Path[0] != "1" || rows[0].Path[1] != "2" {
		t.Errorf("unexpected path: %+v", rows[0].Path)
	}
}

func TestDecodeCompressedFrame(t *testing.T) {
	var body []byte
	body = append(body, 0x00, 0x00, 0x00, 0x01, 'x')
	body = append(body, []byte("int")...)
	body = append(body, 0x00, 0x00, 0x00, 0x2A)

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(body); err != nil {
		t.Fatal(err)
	}
	zw.Close()

	var frame []byte
	totalLen := 4 + 1 + compressed.Len()
	frame = append(frame, byte(totalLen>>24), byte(totalLen>>16), byte(totalLen>>8), byte(totalLen))
	frame = append(frame, 0x01) // compression flag set
	frame = append(frame, compressed.Bytes()...)

	m, err := message.Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if !m.CompressionUsed {
		t.Error("expected CompressionUsed=true")
	}
	if m.ID != "x" || len(m.Objects) != 1 || m.Objects[0].Int != 42 {
		t.Errorf("unexpected result: %+v", m)
	}
}

func TestDecodeUnknownTagAborts(t *testing.T) {
	body := []byte{0x00, 0x00, 0x00, 0x00, 'z', 'z', 'z'}
	frame := frameOf(body)
	m, err := message.Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if m.Objects != nil {
		t.Errorf("expected Objects=nil on unknown tag, got %+v", m.Objects)
	}
}

func TestDecodeHdataDeclaredCountExceedsActual(t *testing.T) {
	var body []byte
	body = append(body, 0x00, 0x00, 0x00, 0x00)
	body = append(body, []byte("hda")...)
	body = append(body, 0x00, 0x00, 0x00, 0x06)
	body = append(body, []byte("buffer")...)
	body = append(body, 0x00, 0x00, 0x00, 0x00)
	body = append(body, 0x00, 0x00, 0x00, 0x05) // claims 5 rows
	body = append(body, 0x01, '1')              // only one pointer present

	frame := frameOf(body)
	m, err := message.Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if m.Objects != nil {
		t.Errorf("expected Objects=nil on truncated row data, got %+v", m.Objects)
	}
	if m.ID != "" {
		t.Errorf("expected envelope still returned with empty id, got %q", m.ID)
	}
}

func TestDecodeStringLengthExceedsBuffer(t *testing.T) {
	body := []byte{0x00, 0x00, 0x00, 0x00, 's', 't', 'r', 0x00, 0x00, 0x00, 0x05, 'a', 'b'}
	frame := frameOf(body)
	m, err := message.Decode(frame)
	if err != nil {
		t.Fatal(err)
	}
	if m.Objects != nil {
		t.Error("expected Objects=nil when declared string length exceeds buffer")
	}
}

func TestPrimaryHDataSingleRow(t *testing.T) {
	var body []byte
	body = append(body, 0x00, 0x00, 0x00, 0x00)
	body = append(body, []byte("hda")...)
	body = append(body, 0x00, 0x00, 0x00, 0x06)
	body = append(body, []byte("buffer")...)
	body = append(body, 0x00, 0x00, 0x00, 0x08)
	body = append(body, []byte("name:str")...)
	body = append(body, 0x00, 0x00, 0x00, 0x01)
	body = append(body, 0x01, '1')
	body = append(body, 0x00, 0x00, 0x00, 0x01, 'x')

	m, err := message.Decode(frameOf(body))
	if err != nil {
		t.Fatal(err)
	}
	v, ok := m.PrimaryHData()
	if !ok {
		t.Fatal("expected primary hdata present")
	}
	fields, ok := v.(map[string]wire.Value)
	if !ok {
		t.Fatalf("expected map[string]wire.Value, got %T", v)
	}
	if fields["name"].Str != "x" {
		t.Errorf("got %q, want %q", fields["name"].Str, "x")
	}
}

func TestPrimaryHDataAbsentWhenEmptyHpath(t *testing.T) {
	body := []byte{0x00, 0x00, 0x00, 0x00}
	body = append(body, []byte("hda")...)
	body = append(body, 0x00, 0x00, 0x00, 0x00)
	m, err := message.Decode(frameOf(body))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.PrimaryHData(); ok {
		t.Error("expected absent for empty-hpath hdata")
	}
}

// frameOf prepends the 4-byte length header (covering itself) and a zero
// (uncompressed) flag byte to body.
func frameOf(body []byte) []byte {
	total := 5 + len(body)
	return append([]byte{byte(total >> 24), byte(total >> 16), byte(total >> 8), byte(total), 0x00}, body...)
}
