package mailbox

import (
	"github.com/Iron-Ham/council/internal/event"
	"github.com/Iron-Ham/council/internal/util"
)

// eventBodyLen bounds the body carried on MailboxMessageEvent.
const eventBodyLen = 200

func newMessageEvent(msg Message) event.MailboxMessageEvent {
	return event.NewMailboxMessageEvent(msg.ID, msg.From, msg.To, util.Excerpt(msg.Body, eventBodyLen), msg.Recipients)
}
