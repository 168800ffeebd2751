package diagnosis

import (
	"context"
	"time"

	"mmDiagnosis/domain"
	"mmDiagnosis/pkg/logger"

	"github.com/goccy/go-json"
	"gorm.io/datatypes"
)

// EventRepository stores diagnosis step events.
type EventRepository interface {
	SaveEvent(ctx context.Context, event domain.DiagnosisEvent) error
}

// NoopEventRepository drops every event. Used when no database is configured.
type NoopEventRepository struct{}

func (NoopEventRepository) SaveEvent(ctx context.Context, event domain.DiagnosisEvent) error {
	return nil
}

// record posts an event in the background. The caller's response never
// waits for it and a failed write is only logged.
func (s *Service) record(ctx context.Context, sessionID, step string, answers *domain.Answers, result any) {
	if s.events == nil {
		return
	}

	event := domain.DiagnosisEvent{
		SessionID: sessionID,
		Step:      step,
		Result:    toJSONMap(result),
		CreatedAt: time.Now(),
	}
	if answers != nil {
		event.Answers = datatypes.JSONMap(answers.ToMap())
	}
	tid := logger.TraceIDFromContext(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		writeCtx, cancel := context.WithTimeout(context.Background(), s.cfg.EventTimeout)
		defer cancel()

		if err := s.events.SaveEvent(writeCtx, event); err != nil {
			DiagnosisEventFailuresTotal.Inc()
			logger.Warn("diagnosis event not saved",
				"trace_id", tid,
				"session_id", sessionID,
				"step", step,
				"error", err,
			)
		}
	}()
}

// Drain waits for in-flight event writes, or until ctx is done.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toJSONMap(v any) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	b, err := json.Marshal(v)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(b, &out); err != nil {
		// non-object results are wrapped
		return datatypes.JSONMap{"value": v}
	}
	return out
}
