package mailbox

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/event"
)

func newTestBus(t *testing.T, ids ...string) *Bus {
	t.Helper()
	b := New()
	for _, id := range ids {
		if err := b.Register(id); err != nil {
			t.Fatalf("Register(%q) error = %v", id, err)
		}
	}
	return b
}

func bodies(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Body
	}
	return out
}

func TestBus_Register(t *testing.T) {
	b := newTestBus(t, "cost", "security")
	if got := b.Registered(); !slices.Equal(got, []string{"cost", "security"}) {
		t.Errorf("Registered() = %v", got)
	}
	if err := b.Register(""); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("Register(\"\") error = %v, want ErrInvalidArgument", err)
	}
	// Re-registering is a no-op on the order.
	if err := b.Register("cost"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := b.Registered(); len(got) != 2 {
		t.Errorf("Registered() after re-register = %v", got)
	}
}

func TestBus_PostBroadcast(t *testing.T) {
	b := newTestBus(t, "cost", "security", "performance")

	msg, err := b.Post(Message{From: "cost", Body: "storage is cheap"})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Errorf("Post() should stamp ID and Timestamp, got %+v", msg)
	}
	if msg.Type != MessageNote {
		t.Errorf("Type = %q, want %q", msg.Type, MessageNote)
	}
	if !slices.Equal(msg.Recipients, []string{"security", "performance"}) {
		t.Errorf("Recipients = %v", msg.Recipients)
	}

	ctx := context.Background()
	if got := b.Receive(ctx, "cost", 0); len(got) != 0 {
		t.Errorf("sender received its own broadcast: %v", bodies(got))
	}
	for _, id := range []string{"security", "performance"} {
		if got := b.Receive(ctx, id, 0); len(got) != 1 {
			t.Errorf("Receive(%q) = %d messages, want 1", id, len(got))
		}
	}
}

func TestBus_PostDirect(t *testing.T) {
	b := newTestBus(t, "cost", "security", "performance")
	ctx := context.Background()

	if _, err := b.Post(Message{From: "cost", To: "security", Type: MessageQuestion, Body: "license terms?"}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if got := b.Receive(ctx, "security", 0); len(got) != 1 {
		t.Errorf("security received %d messages, want 1", len(got))
	}
	if got := b.Receive(ctx, "performance", 0); len(got) != 0 {
		t.Errorf("performance received a direct message for security")
	}

	_, err := b.Post(Message{From: "cost", To: "nobody", Body: "hello?"})
	if !errors.Is(err, errors.ErrUnknownRecipient) {
		t.Errorf("Post() to unknown error = %v, want ErrUnknownRecipient", err)
	}
}

func TestBus_PostValidation(t *testing.T) {
	b := newTestBus(t, "cost")
	if _, err := b.Post(Message{Body: "anon"}); !errors.Is(err, errors.ErrMissingSender) {
		t.Errorf("Post() without From error = %v", err)
	}
	if _, err := b.Post(Message{From: "cost", Type: "gossip"}); !errors.Is(err, errors.ErrInvalidArgument) {
		t.Errorf("Post() with bad type error = %v", err)
	}
	if n := len(b.History(time.Time{})); n != 0 {
		t.Errorf("rejected posts should not be in history, got %d", n)
	}
}

func TestBus_MentionDeliveredOnBroadcast(t *testing.T) {
	b := newTestBus(t, "cost", "integration", "security")

	msg, err := b.Post(Message{From: "cost", Body: "@integration please review"})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if !slices.Equal(msg.Mentions, []string{"integration"}) {
		t.Errorf("Mentions = %v", msg.Mentions)
	}

	got := b.Receive(context.Background(), "integration", 0)
	if len(got) != 1 {
		t.Fatalf("integration received %d messages, want exactly 1", len(got))
	}
	if got[0].Body != "@integration please review" {
		t.Errorf("Body = %q", got[0].Body)
	}
}

func TestBus_MentionAddsToDirect(t *testing.T) {
	b := newTestBus(t, "cost", "security", "integration", "performance")
	ctx := context.Background()

	msg, err := b.Post(Message{From: "cost", To: "security", Body: "see what @integration and @security think, also @ghost"})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if !slices.Equal(msg.Recipients, []string{"security", "integration"}) {
		t.Errorf("Recipients = %v, want [security integration]", msg.Recipients)
	}
	if got := b.Receive(ctx, "security", 0); len(got) != 1 {
		t.Errorf("security received %d copies, want 1", len(got))
	}
	if got := b.Receive(ctx, "performance", 0); len(got) != 0 {
		t.Error("performance should not receive a direct message")
	}
}

func TestBus_SelfMentionDelivered(t *testing.T) {
	b := newTestBus(t, "cost", "security", "performance")
	msg, err := b.Post(Message{From: "cost", To: "security", Body: "as @cost I insist"})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if !slices.Equal(msg.Recipients, []string{"security", "cost"}) {
		t.Errorf("Recipients = %v, want [security cost]", msg.Recipients)
	}
	if b.Pending("cost") != 1 {
		t.Errorf("Pending(cost) = %d, want the self-mention", b.Pending("cost"))
	}

	// A broadcast skips the sender unless it names itself.
	if _, err := b.Post(Message{From: "performance", Body: "@performance note to self"}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if b.Pending("performance") != 1 {
		t.Errorf("Pending(performance) = %d, want 1", b.Pending("performance"))
	}
}

func TestBus_Unregister(t *testing.T) {
	b := newTestBus(t, "cost", "security", "performance")
	ctx := context.Background()

	if _, err := b.Post(Message{From: "cost", Body: "before"}); err != nil {
		t.Fatal(err)
	}
	b.Unregister("security")
	if _, err := b.Post(Message{From: "cost", Body: "after"}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Post(Message{From: "cost", Body: "@security still there?"}); err != nil {
		t.Fatal(err)
	}

	got := bodies(b.Receive(ctx, "security", 0))
	want := []string{"before", "@security still there?"}
	if !slices.Equal(got, want) {
		t.Errorf("security received %v, want %v", got, want)
	}

	if err := b.Register("security"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Post(Message{From: "cost", Body: "welcome back"}); err != nil {
		t.Fatal(err)
	}
	if got := bodies(b.Receive(ctx, "security", 0)); !slices.Equal(got, []string{"welcome back"}) {
		t.Errorf("after re-register received %v", got)
	}

	b.Unregister("unknown") // no panic
}

func TestBus_HistoryRetainsUnreadMessages(t *testing.T) {
	b := newTestBus(t, "cost", "security")

	if _, err := b.Post(Message{From: "cost", Body: "first"}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Post(Message{From: "security", To: "cost", Body: "second"}); err != nil {
		t.Fatal(err)
	}

	// security never calls Receive; its message still appears in history.
	h := b.History(time.Time{})
	if got := bodies(h); !slices.Equal(got, []string{"first", "second"}) {
		t.Fatalf("History() = %v", got)
	}
	if b.Pending("security") != 1 {
		t.Errorf("Pending(security) = %d, want 1", b.Pending("security"))
	}

	// Draining a mailbox does not touch history.
	b.Receive(context.Background(), "cost", 0)
	if n := len(b.History(time.Time{})); n != 2 {
		t.Errorf("History() length after drain = %d, want 2", n)
	}
}

func TestBus_HistorySince(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	b := New(WithClock(func() time.Time { return now }))
	_ = b.Register("a")
	_ = b.Register("b")

	for i := range 3 {
		if _, err := b.Post(Message{From: "a", Body: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatal(err)
		}
		now = now.Add(time.Minute)
	}

	got := bodies(b.History(time.Date(2026, 3, 1, 9, 1, 0, 0, time.UTC)))
	if !slices.Equal(got, []string{"m1", "m2"}) {
		t.Errorf("History(since) = %v, want [m1 m2]", got)
	}
}

func TestBus_ReceiveTimeoutOnEmptyMailbox(t *testing.T) {
	b := newTestBus(t, "cost")

	start := time.Now()
	got := b.Receive(context.Background(), "cost", 100*time.Millisecond)
	elapsed := time.Since(start)

	if got == nil || len(got) != 0 {
		t.Errorf("Receive() = %v, want empty non-nil slice", got)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("Receive() returned after %v, expected to wait for the timeout", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("Receive() blocked for %v", elapsed)
	}
}

func TestBus_ReceiveWakesOnDelivery(t *testing.T) {
	b := newTestBus(t, "cost", "security")

	done := make(chan []Message, 1)
	go func() {
		done <- b.Receive(context.Background(), "security", 5*time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	if _, err := b.Post(Message{From: "cost", Body: "wake up"}); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-done:
		if len(got) != 1 || got[0].Body != "wake up" {
			t.Errorf("Receive() = %v", bodies(got))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Receive() did not wake on delivery")
	}
}

func TestBus_ReceiveCanceled(t *testing.T) {
	b := newTestBus(t, "cost")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if got := b.Receive(ctx, "cost", time.Minute); len(got) != 0 {
		t.Errorf("Receive() = %v", got)
	}
	if time.Since(start) > time.Second {
		t.Error("Receive() ignored cancellation")
	}
}

func TestBus_ReceiveUnknownMailbox(t *testing.T) {
	b := New()
	if got := b.Receive(context.Background(), "ghost", time.Minute); got == nil || len(got) != 0 {
		t.Errorf("Receive(unknown) = %v, want empty slice", got)
	}
}

func TestBus_ConcurrentPosters(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	b := newTestBus(t, ids...)

	const perSender = 100
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Go(func() {
			for i := range perSender {
				if _, err := b.Post(Message{From: id, Body: fmt.Sprintf("%s-%d", id, i)}); err != nil {
					t.Errorf("Post() error = %v", err)
				}
			}
		})
	}
	wg.Wait()

	if n := len(b.History(time.Time{})); n != len(ids)*perSender {
		t.Errorf("History() length = %d, want %d", n, len(ids)*perSender)
	}
	for _, id := range ids {
		// Every broadcast from the other three senders.
		if got := len(b.Receive(context.Background(), id, 0)); got != (len(ids)-1)*perSender {
			t.Errorf("Receive(%q) = %d, want %d", id, got, (len(ids)-1)*perSender)
		}
	}
}

func TestBus_PublishesEvent(t *testing.T) {
	events := event.NewBus()
	var got []event.MailboxMessageEvent
	events.Subscribe(event.TypeMailboxMessage, func(e event.Event) {
		got = append(got, e.(event.MailboxMessageEvent))
	})

	b := New(WithBus(events))
	_ = b.Register("cost")
	_ = b.Register("security")
	msg, err := b.Post(Message{From: "cost", Body: "@security ping"})
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].MessageID != msg.ID || !slices.Equal(got[0].Recipients, []string{"security"}) {
		t.Errorf("unexpected event %+v", got[0])
	}
}

func TestBus_ReturnedMessageIsCopy(t *testing.T) {
	b := newTestBus(t, "cost", "security")
	msg, err := b.Post(Message{From: "cost", Body: "hi", Metadata: map[string]any{"k": "v"}})
	if err != nil {
		t.Fatal(err)
	}
	msg.Recipients[0] = "tampered"
	msg.Metadata["k"] = "tampered"

	h := b.History(time.Time{})
	if h[0].Recipients[0] != "security" || h[0].Metadata["k"] != "v" {
		t.Errorf("history mutated through returned message: %+v", h[0])
	}
}
