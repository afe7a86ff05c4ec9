// Package archive provides JSONL-based recording and replay of decoded
// relay frames, for debugging and offline analysis. It is never the
// client's live source of truth for IRC state — that lives in package
// client's Cache — it exists purely so a session can be captured and
// replayed later, mirroring the teacher's saver/zstd/netlink.ArchiveReader
// trio.
package archive

import (
	"time"

	"github.com/weechat-go/relay/message"
)

// Record is one archived frame: a decoded message plus the metadata
// needed to replay or correlate it later.
type Record struct {
	Timestamp time.Time
	SessionID string
	Message   *message.DecodedMessage
}
