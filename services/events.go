package services

import (
	"context"
	"log/slog"

	"github.com/clmates/wesnoth-tournament-manager-sub001/models"
)

type EventType string

const (
	EventMatchReported      EventType = "match.reported"
	EventMatchConfirmed     EventType = "match.confirmed"
	EventMatchDisputed      EventType = "match.disputed"
	EventDisputeValidated   EventType = "dispute.validated"
	EventDisputeRejected    EventType = "dispute.rejected"
	EventSeriesCompleted    EventType = "series.completed"
	EventRoundStarted       EventType = "round.started"
	EventRoundCompleted     EventType = "round.completed"
	EventTournamentFinished EventType = "tournament.finished"
)

// Event is the notification payload published after a state change has
// been committed. Fields are filled as far as the producing operation
// knows them.
type Event struct {
	Type         EventType
	Match        *models.Match
	Series       *models.Series
	Round        *models.Round
	TournamentID int
	WinnerID     int
}

type EventSubscriber interface {
	Notify(ctx context.Context, event Event)
}

// EventBus fans events out to subscribers. Delivery is synchronous and
// best effort; a subscriber must not block and must swallow its own
// failures (logging them is enough).
type EventBus struct {
	logger      *slog.Logger
	subscribers []EventSubscriber
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{logger: logger}
}

func (b *EventBus) Subscribe(sub EventSubscriber) {
	b.subscribers = append(b.subscribers, sub)
}

func (b *EventBus) Publish(ctx context.Context, event Event) {
	for _, sub := range b.subscribers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event subscriber panicked",
						slog.String("event", string(event.Type)),
						slog.Any("panic", r))
				}
			}()
			sub.Notify(ctx, event)
		}()
	}
}
