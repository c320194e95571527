// Package mailbox routes messages between the agents of a single debate.
//
// Every agent owns one in-memory mailbox on a [Bus]. A post with To set goes to
// that mailbox only; a post without To is broadcast to every active mailbox
// except the sender's. Independently of that routing, each @name in the body
// that matches a registered mailbox also receives the post, even the sender's
// own. A mailbox never gets the same post twice.
//
// # Main Types
//
//   - [Message]: sender, optional recipient, type, body and metadata
//   - [Bus]: registration, routing, draining receives and the audit history
//   - [Journal]: optional append-only JSONL mirror of the history
//
// # Basic Usage
//
//	bus := mailbox.New()
//	bus.Register("cost")
//	bus.Register("integration")
//
//	bus.Post(mailbox.Message{From: "cost", Body: "@integration please review"})
//
//	// Drain, waiting up to 100ms if the mailbox is empty.
//	msgs := bus.Receive(ctx, "integration", 100*time.Millisecond)
//
// # Delivery
//
// Receive drains whatever is queued. It returns an empty slice on timeout
// rather than an error. Delivery is at-most-once per mailbox per post; there
// are no acknowledgements or redelivery. Unregistering a mailbox stops
// broadcasts to it but keeps its queue and still accepts direct posts and
// mentions.
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Each mailbox has its own lock, so delivery
// to one agent never waits on a slow reader of another.
package mailbox
