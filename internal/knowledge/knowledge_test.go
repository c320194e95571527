package knowledge

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Iron-Ham/council/internal/consensus"
	"github.com/Iron-Ham/council/internal/debate"
	"github.com/Iron-Ham/council/internal/errors"
	"github.com/Iron-Ham/council/internal/orchestrator"
	"github.com/Iron-Ham/council/internal/orchestrator/budget"
	"github.com/Iron-Ham/council/internal/testutil"
)

func result(rec consensus.Recommendation, conf float64, halted bool) *orchestrator.Result {
	return &orchestrator.Result{
		CouncilID:    "c-1",
		Topic:        "Adopt OpenTelemetry",
		Perspectives: []string{"cost", "performance"},
		Verdict: consensus.Verdict{
			Recommendation:    rec,
			Confidence:        conf,
			VoteBreakdown:     map[debate.Position]int{debate.Support: 2, debate.Oppose: 0, debate.Neutral: 0},
			KeyConsiderations: []string{"[SUPPORT] cost (0.80): vendor neutral"},
		},
		RoundsCompleted: 3,
		Halted:          halted,
		Cost:            budget.Summary{Total: 0.06},
	}
}

func TestPolicy_Allows(t *testing.T) {
	p := Policy{MinConfidence: DefaultMinConfidence}
	tests := []struct {
		name string
		r    *orchestrator.Result
		want bool
	}{
		{"confident adopt", result(consensus.Adopt, 0.8, false), true},
		{"at the threshold", result(consensus.Reject, 0.6, false), true},
		{"below the threshold", result(consensus.Conditional, 0.59, false), false},
		{"split", result(consensus.Split, 0.9, false), false},
		{"halted", result(consensus.Adopt, 0.9, true), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Allows(tt.r); got != tt.want {
				t.Errorf("Allows() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntryFromResult(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	e := EntryFromResult(result(consensus.Adopt, 0.8, false), at)
	if e.ID == "" || e.CouncilID != "c-1" || e.Recommendation != "ADOPT" {
		t.Errorf("entry = %+v", e)
	}
	if e.VoteBreakdown["SUPPORT"] != 2 || e.TotalCost != 0.06 || e.RoundsCompleted != 3 {
		t.Errorf("entry = %+v", e)
	}
	if e.CapturedAt.Location() != time.UTC {
		t.Errorf("CapturedAt not normalized to UTC: %v", e.CapturedAt)
	}
}

func TestHook_FileSink(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatal(err)
	}
	hook := NewHook(Policy{MinConfidence: 0.5}, sink)

	r := result(consensus.Adopt, 0.75, false)
	if !hook.ShouldCapture(r) {
		t.Fatal("ShouldCapture() = false")
	}
	if err := hook.Capture(context.Background(), r); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if err := hook.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sink.Store(context.Background(), Entry{CouncilID: "late"}); err == nil {
		t.Error("Store() after Close() should fail")
	}

	entries, err := ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Topic != "Adopt OpenTelemetry" || entries[0].Confidence != 0.75 {
		t.Errorf("entries = %+v", entries)
	}
}

func TestFileSink_CanceledContext(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Store(ctx, Entry{CouncilID: "c"}); err == nil {
		t.Error("Store() with a canceled context should fail")
	}
}

func TestOpenSink(t *testing.T) {
	s, err := OpenSink(context.Background(), "", t.TempDir(), "")
	if err != nil {
		t.Fatalf("OpenSink(file) error = %v", err)
	}
	_ = s.Close()

	if _, err := OpenSink(context.Background(), "file", "", ""); err == nil {
		t.Error("file driver without a directory should fail")
	}
	if _, err := OpenSink(context.Background(), "postgres", "", " "); err == nil {
		t.Error("postgres driver without a dsn should fail")
	}
	if _, err := OpenSink(context.Background(), "mongo", t.TempDir(), ""); !errors.Is(err, errors.ErrInvalidConfig) {
		t.Errorf("OpenSink(mongo) error = %v, want ErrInvalidConfig", err)
	}
}

func TestPostgresSink(t *testing.T) {
	dsn := testutil.PostgresDSN(t)
	ctx := context.Background()
	sink, err := OpenSink(ctx, DriverPostgres, "", dsn)
	if err != nil {
		t.Fatalf("OpenSink(postgres) error = %v", err)
	}
	pg := sink.(*PostgresSink)
	defer pg.Close()

	r := result(consensus.Adopt, 0.8, false)
	r.CouncilID = "test-" + time.Now().Format("150405.000000000")
	e := EntryFromResult(r, time.Now())
	if err := pg.Store(ctx, e); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	// A second capture of the same council is ignored.
	if err := pg.Store(ctx, EntryFromResult(r, time.Now())); err != nil {
		t.Fatalf("second Store() error = %v", err)
	}

	recent, err := pg.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	found := 0
	for _, got := range recent {
		if got.CouncilID == r.CouncilID {
			found++
			if got.VoteBreakdown["SUPPORT"] != 2 || len(got.KeyConsiderations) != 1 {
				t.Errorf("round-tripped entry = %+v", got)
			}
		}
	}
	if found != 1 {
		t.Errorf("found %d rows for the council, want 1", found)
	}
}
