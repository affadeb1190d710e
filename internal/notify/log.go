package notify

import (
	"context"

	"go.uber.org/zap"

	"avvatracker/internal/model"
)

// Log writes events to the logger instead of delivering them. It stands in
// for Telegram on dry runs.
type Log struct {
	Logger  *zap.Logger
	SiteURL string
}

func (l *Log) IsEnabled() bool { return true }

func (l *Log) SendEvent(_ context.Context, ev model.Event) bool {
	msg, ok := Format(ev, l.SiteURL)
	if !ok {
		return false
	}
	l.Logger.Info("notification",
		zap.String("kind", string(ev.Kind)),
		zap.Int64("product_id", ev.ExternalID),
		zap.String("text", msg))
	return true
}
