// relaytail is a minimal reference implementation of a WeeChat relay
// client: it dials a relay, requests the buffer list and subscribes to
// events, and logs every decoded frame as it arrives.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/rtx"

	"github.com/weechat-go/relay/client"
	"github.com/weechat-go/relay/command"
	"github.com/weechat-go/relay/message"
	"github.com/weechat-go/relay/transport"
)

func init() {
	// Always prepend the filename and line number.
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	addr                = flag.String("relay.addr", "localhost:9000", "host:port of the WeeChat relay to connect to")
	password            = flag.String("relay.password", "", "relay password, sent via the init command's password argument")
	mainCtx, mainCancel = context.WithCancel(context.Background())
)

// handler implements client.Handler by recording every dispatched frame in
// a cache keyed by message id, and logging it.
type handler struct {
	cache *client.Cache
}

func (h handler) OnEvent(ctx context.Context, timestamp time.Time, msg *message.DecodedMessage) {
	h.cache.Update(msg.ID, msg)
	log.Println("event", msg.ID, timestamp, len(msg.Objects), "objects")
}

func (h handler) OnReply(ctx context.Context, timestamp time.Time, msg *message.DecodedMessage) {
	h.cache.Update(msg.ID, msg)
	log.Println("reply", msg.ID, timestamp, len(msg.Objects), "objects")
}

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not get args from environment variables")
	defer mainCancel()

	conn, err := transport.Dial(mainCtx, transport.Config{Addr: *addr, DialTimeout: 10 * time.Second})
	rtx.Must(err, "Could not dial relay at %q", *addr)
	defer conn.Close()

	if *password != "" {
		init, err := command.Encode("", "init", "password="+*password)
		rtx.Must(err, "Could not encode init command")
		rtx.Must(conn.Send(init), "Could not send init command")
	}

	buffers, err := command.Encode("buffers", "hdata", "buffer:gui_buffers(*)", "number,name")
	rtx.Must(err, "Could not encode hdata command")
	rtx.Must(conn.Send(buffers), "Could not send hdata command")

	sync, err := command.Encode("1", "sync")
	rtx.Must(err, "Could not encode sync command")
	rtx.Must(conn.Send(sync), "Could not send sync command")

	h := handler{cache: client.NewCache()}

	for mainCtx.Err() == nil {
		msg, err := conn.Next(mainCtx)
		if err != nil {
			log.Println("connection ended:", err)
			return
		}
		client.Dispatch(mainCtx, h, msg)
	}
}
