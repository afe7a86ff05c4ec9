// Package message decodes whole WeeChat relay frames: the length-prefixed,
// optionally compressed envelope around the object stream that package
// wire knows how to parse one value at a time.
package message

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/weechat-go/relay/metrics"
	"github.com/weechat-go/relay/wire"
)

// maxInflatedSize bounds the decompressed body size. The wire length
// prefix bounds the compressed size, but the inflated size is unbounded in
// principle; this cap turns a hostile or corrupt frame into a Malformed
// result instead of an unbounded allocation.
const maxInflatedSize = 64 << 20

// ErrEmptyFrame is returned by Decode when called with a nil or
// zero-length buffer, which cannot be a structurally valid frame. This is
// the only case Decode reports through its error return; a malformed or
// truncated wire frame is reported via DecodedMessage.Objects == nil
// instead, so one bad frame does not stop a caller from decoding the next
// one.
var ErrEmptyFrame = errors.New("message: empty frame")

// DecodedMessage is the result of decoding one relay frame.
type DecodedMessage struct {
	// ID is the message identifier. A leading underscore denotes a
	// server-initiated event; callers that care about that distinction
	// should check ID themselves, as this package does not strip it.
	ID string
	// CompressionUsed reports whether the frame body was DEFLATE-compressed.
	CompressionUsed bool
	// Objects is the ordered decoded object stream. It is nil exactly
	// when the frame was truncated or malformed; an empty-but-non-nil
	// slice means the frame decoded successfully with zero objects.
	Objects []wire.Value
}

// Decode parses one complete relay frame (as reassembled by package
// transport from the 4-byte length prefix) into a DecodedMessage.
//
// A malformed or truncated frame does not cause Decode to return an
// error: it returns a DecodedMessage with Objects == nil, so that one bad
// frame never prevents the caller from continuing to the next one on the
// same connection. Decode's error return is reserved for calls that
// cannot possibly represent a frame at all.
func Decode(frame []byte) (*DecodedMessage, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}
	start := time.Now()
	msg := decodeFrame(frame)
	metrics.DecodeLatencyHistogram.Observe(time.Since(start).Seconds())
	if msg.Objects == nil {
		metrics.FrameCount.WithLabelValues("aborted").Inc()
	} else {
		metrics.FrameCount.WithLabelValues("ok").Inc()
	}
	return msg, nil
}

// decodeFrame does the actual parsing work for Decode, recording an
// ErrorCount entry at whichever stage caused a graceful abort.
func decodeFrame(frame []byte) *DecodedMessage {
	r := wire.NewReader(frame)
	length, err := r.BigEndianUint32()
	if err != nil || int(length) != len(frame) {
		metrics.ErrorCount.WithLabelValues("header").Inc()
		return &DecodedMessage{}
	}

	flag, err := r.Byte()
	if err != nil {
		metrics.ErrorCount.WithLabelValues("header").Inc()
		return &DecodedMessage{}
	}
	compressed := flag != 0

	body := r
	if compressed {
		rest, err := r.Take(r.Remaining())
		if err != nil {
			metrics.ErrorCount.WithLabelValues("compression").Inc()
			return &DecodedMessage{}
		}
		inflated, err := inflate(rest)
		if err != nil {
			metrics.ErrorCount.WithLabelValues("compression").Inc()
			return &DecodedMessage{CompressionUsed: true}
		}
		body = wire.NewReader(inflated)
	}

	idVal, err := wire.DecodeString(body)
	if err != nil {
		metrics.ErrorCount.WithLabelValues("id").Inc()
		return &DecodedMessage{CompressionUsed: compressed}
	}

	objects := make([]wire.Value, 0)
	for body.Remaining() > 0 {
		v, err := wire.DecodeTaggedValue(body)
		if err != nil {
			metrics.ErrorCount.WithLabelValues("object").Inc()
			return &DecodedMessage{ID: idVal.Str, CompressionUsed: compressed}
		}
		objects = append(objects, v)
	}

	return &DecodedMessage{ID: idVal.Str, CompressionUsed: compressed, Objects: objects}
}

func inflate(body []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxInflatedSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxInflatedSize {
		return nil, errors.New("message: inflated frame exceeds size limit")
	}
	return out, nil
}

// FrameLength reads just the 4-byte big-endian length prefix from the
// start of buf, which must hold at least 4 bytes. It is used by package
// transport to know how many more bytes to read before calling Decode.
func FrameLength(buf []byte) uint32 {
	return binary.BigEndian.Uint32(buf[:4])
}
