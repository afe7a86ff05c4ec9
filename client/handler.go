package client

import (
	"context"
	"time"

	"github.com/weechat-go/relay/message"
)

// Handler is implemented by callers interested in dispatched relay
// frames. OnEvent is called for server-initiated frames (ID begins with
// '_'); OnReply is called for frames replying to a command this client
// sent. Both are called synchronously and should not block for long,
// mirroring eventsocket.Handler's Open/Close contract.
type Handler interface {
	OnEvent(ctx context.Context, timestamp time.Time, msg *message.DecodedMessage)
	OnReply(ctx context.Context, timestamp time.Time, msg *message.DecodedMessage)
}

// Dispatch routes msg to h.OnEvent or h.OnReply based on whether its ID
// begins with the relay's event-id prefix, stripping that prefix before
// handing the (otherwise unmodified) message to the handler.
func Dispatch(ctx context.Context, h Handler, msg *message.DecodedMessage) {
	now := time.Now()
	if len(msg.ID) > 0 && msg.ID[0] == '_' {
		stripped := *msg
		stripped.ID = msg.ID[1:]
		h.OnEvent(ctx, now, &stripped)
		return
	}
	h.OnReply(ctx, now, msg)
}
