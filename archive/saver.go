package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/weechat-go/relay/message"
	"github.com/weechat-go/relay/metrics"
	"github.com/weechat-go/relay/zstd"
)

// connection handles all archive output for a single session, mirroring
// the teacher's saver.Connection but writing JSON lines to a zstd-piped
// file instead of length-prefixed protobuf records.
type connection struct {
	sessionID  string
	startTime  time.Time
	sequence   int
	expiration time.Time
	writer     io.WriteCloser
	lastByKey  map[string]*message.DecodedMessage // last written message per primary-hdata pointer
}

// Saver records decoded frames to rotating, zstd-compressed JSONL files,
// one file sequence per session, skipping writes for frames whose primary
// hdata row is unchanged since the last write for that entity (mirroring
// the teacher's pbtools.Compare-gated queue). Saver is the archive
// package's analog of the teacher's saver.Saver.
type Saver struct {
	OutputPrefix string // prepended to every archive filename
	FileAgeLimit time.Duration

	mu          sync.Mutex
	connections map[string]*connection
	stats       Stats
}

// Stats tracks basic counts of archive activity, mirroring saver.Stats.
type Stats struct {
	TotalCount int
	NewCount   int
	DiffCount  int
	SameCount  int
}

// Print logs a one-line summary of Stats, mirroring saver.Stats.Print.
func (s *Stats) Print() {
	log.Printf("archive: total %d new %d diff %d same %d\n",
		s.TotalCount, s.NewCount, s.DiffCount, s.SameCount)
}

// NewSaver returns a Saver whose archive filenames are prefixed with
// outputPrefix (e.g. a directory path) and whose files rotate every
// ageLimit.
func NewSaver(outputPrefix string, ageLimit time.Duration) *Saver {
	return &Saver{
		OutputPrefix: outputPrefix,
		FileAgeLimit: ageLimit,
		connections:  make(map[string]*connection),
	}
}

// Record writes rec to the session's current archive file, unless its
// primary hdata content is unchanged from the last record written for the
// same entity pointer.
func (s *Saver) Record(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalCount++

	conn, ok := s.connections[rec.SessionID]
	if !ok {
		conn = &connection{
			sessionID: rec.SessionID,
			startTime: rec.Timestamp,
			lastByKey: make(map[string]*message.DecodedMessage),
		}
		s.connections[rec.SessionID] = conn
	}

	key := entityKey(rec.Message)
	if key != "" {
		if prev, ok := conn.lastByKey[key]; ok {
			if message.Compare(prev, rec.Message) == message.NoMajorChange {
				s.stats.SameCount++
				return nil
			}
			s.stats.DiffCount++
		} else {
			s.stats.NewCount++
		}
		conn.lastByKey[key] = rec.Message
	}

	if conn.writer == nil || time.Now().After(conn.expiration) {
		if err := conn.rotate(s.OutputPrefix, s.FileAgeLimit); err != nil {
			return err
		}
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := conn.writer.Write(append(line, '\n')); err != nil {
		return err
	}
	metrics.RecordCount.Inc()
	return nil
}

// entityKey returns the pointer token identifying rec's primary hdata
// entity, or "" if there isn't one (e.g. info/infolist replies), in which
// case every such record is written unconditionally.
func entityKey(m *message.DecodedMessage) string {
	if m == nil || len(m.Objects) == 0 {
		return ""
	}
	first := m.Objects[0]
	if first.Hdata == nil || len(first.Hdata.Rows) != 1 {
		return ""
	}
	row := first.Hdata.Rows[0]
	if len(row.Path) == 0 {
		return ""
	}
	return row.Path[len(row.Path)-1]
}

func (c *connection) rotate(prefix string, ageLimit time.Duration) error {
	if c.writer != nil {
		c.writer.Close()
	}
	name := fmt.Sprintf("%s%s_%s_%05d.jsonl.zst", prefix,
		c.startTime.Format("20060102T150405.000"), c.sessionID, c.sequence)
	w, err := zstd.NewWriter(name)
	if err != nil {
		return err
	}
	c.writer = w
	metrics.NewFileCount.Inc()
	c.expiration = time.Now().Add(ageLimit)
	c.sequence++
	return nil
}

// Close closes every open session file.
func (s *Saver) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, conn := range s.connections {
		if conn.writer != nil {
			conn.writer.Close()
		}
		delete(s.connections, id)
	}
}

// Stats returns a copy of the Saver's running Stats.
func (s *Saver) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
