package history

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-dashboard/internal/poller"
	"github.com/nerrad567/gray-logic-dashboard/internal/store"
)

// writeTimeout bounds each database write made from an event callback.
const writeTimeout = 5 * time.Second

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder saves store snapshots and poll results to a Repository.
type Recorder struct {
	repo   Repository
	logger Logger
}

// NewRecorder creates a Recorder. A nil logger discards output.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{repo: repo, logger: logger}
}

// HandleEvent saves a snapshot after every store action. It is meant to be
// registered with store.Subscribe.
//
// State carrying a corrupt container is not saved, so that a damaged
// snapshot is never overwritten with an empty one before the store heals.
// Restore events are skipped since they reflect what was just loaded.
func (r *Recorder) HandleEvent(ev store.Event) {
	if ev.Action == store.ActionRestore {
		return
	}
	if ev.State.DevicesCorrupt || ev.State.ReadingsCorrupt {
		r.logger.Warn("not saving snapshot of corrupt state", "action", ev.Action)
		return
	}

	p, err := store.PersistedFromState(ev.State)
	if err != nil {
		r.logger.Error("encoding snapshot failed", "action", ev.Action, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.repo.SaveSnapshot(ctx, p); err != nil {
		r.logger.Error("saving snapshot failed", "action", ev.Action, "error", err)
	}
}

// ObservePoll logs every appended reading with its source. It implements
// poller.Observer.
func (r *Recorder) ObservePoll(rep poller.Report) {
	var source string
	switch rep.Result {
	case poller.ResultOK:
		source = SourceGateway
	case poller.ResultSynthetic:
		source = SourceSynthetic
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := r.repo.RecordReading(ctx, rep.Reading, source); err != nil {
		r.logger.Error("recording sensor reading failed", "source", source, "error", err)
	}
}

// Restore loads the saved snapshot into s. It returns false when there was
// nothing to restore. Decode problems are logged and the store self-heals on
// its next action.
func Restore(ctx context.Context, repo Repository, s *store.Store, logger Logger) (bool, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	p, ok, err := repo.LoadSnapshot(ctx)
	if err != nil || !ok {
		return false, err
	}
	if err := s.Restore(p); err != nil {
		logger.Warn("snapshot partially corrupt, will self-heal", "error", err)
	}
	return true, nil
}
