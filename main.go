// Command relay runs a long-lived WeeChat relay client: it dials a
// relay, dispatches every decoded frame to an in-memory entity cache, and
// archives frames to rotating zstd-compressed JSONL files.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"runtime"
	"runtime/trace"
	"time"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	_ "net/http/pprof" // Support profiling

	"github.com/weechat-go/relay/archive"
	"github.com/weechat-go/relay/client"
	"github.com/weechat-go/relay/command"
	"github.com/weechat-go/relay/message"
	"github.com/weechat-go/relay/session"
	"github.com/weechat-go/relay/transport"
)

func init() {
	// Always prepend the filename and line number.
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	relayAddr    = flag.String("relay.addr", "localhost:9000", "host:port of the WeeChat relay to connect to")
	password     = flag.String("relay.password", "", "relay password, sent via the init command")
	enableTrace  = flag.Bool("trace", false, "Enable trace")
	promPort     = flag.String("prom", ":9090", "Prometheus metrics export address and port. Default is ':9090'")
	outputDir    = flag.String("output", "", "Directory in which to put the resulting tree of archive files. Default is the current directory.")
	fileAgeLimit = flag.Duration("output.rotate", 10*time.Minute, "How often to rotate archive files.")

	ctx, cancel = context.WithCancel(context.Background())
)

// archivingHandler dispatches each frame into a client.Cache (for entity
// diffing) and an archive.Saver (for durable recording), mirroring how
// the teacher's main wires collector output into both cache.Cache and
// saver.Saver.
type archivingHandler struct {
	cache     *client.Cache
	saver     *archive.Saver
	sessionID string
}

func (h *archivingHandler) record(ts time.Time, msg *message.DecodedMessage) {
	h.cache.Update(msg.ID, msg)
	h.saver.Record(&archive.Record{Timestamp: ts, SessionID: h.sessionID, Message: msg})
}

func (h *archivingHandler) OnEvent(ctx context.Context, ts time.Time, msg *message.DecodedMessage) {
	h.record(ts, msg)
}

func (h *archivingHandler) OnReply(ctx context.Context, ts time.Time, msg *message.DecodedMessage) {
	h.record(ts, msg)
}

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	if *outputDir != "" {
		rtx.Must(os.Chdir(*outputDir), "Could not change to the directory %s", *outputDir)
	}

	// Performance instrumentation.
	runtime.SetBlockProfileRate(1000000) // 1 sample/msec
	runtime.SetMutexProfileFraction(1000)

	// Expose prometheus and pprof metrics on a separate port.
	promSrv := prometheusx.MustStartPrometheus(*promPort)
	defer promSrv.Shutdown(ctx)

	if *enableTrace {
		traceFile, err := os.Create("trace")
		rtx.Must(err, "Could not creat trace file")
		rtx.Must(trace.Start(traceFile), "failed to start trace: %v", err)
		defer trace.Stop()
	}

	conn, err := transport.Dial(ctx, transport.Config{Addr: *relayAddr, DialTimeout: 10 * time.Second})
	rtx.Must(err, "Could not dial relay at %q", *relayAddr)
	defer conn.Close()

	sessID := session.From(conn.Conn)

	if *password != "" {
		initCmd, err := command.Encode("", "init", "password="+*password)
		rtx.Must(err, "Could not encode init command")
		rtx.Must(conn.Send(initCmd), "Could not send init command")
	}
	syncCmd, err := command.Encode("1", "sync")
	rtx.Must(err, "Could not encode sync command")
	rtx.Must(conn.Send(syncCmd), "Could not send sync command")

	svr := archive.NewSaver("", *fileAgeLimit)
	h := &archivingHandler{cache: client.NewCache(), saver: svr, sessionID: sessID}

	for ctx.Err() == nil {
		msg, err := conn.Next(ctx)
		if err != nil {
			log.Println("relay connection ended:", err)
			break
		}
		client.Dispatch(ctx, h, msg)
	}

	svr.Close()
	svr.Stats().Print()
	cancel()
}
