package notifications

import (
	"context"

	"github.com/rs/zerolog"

	"cleanpro-backend/models"
)

// LogNotifier records events to the structured log instead of delivering
// them. It is the default dispatcher when SMTP is not configured.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, event models.NotificationEvent) error {
	n.Log.Info().
		Str("type", string(event.Type)).
		Str("customer_id", event.CustomerID).
		Str("recipient", event.RecipientEmail).
		Str("entity", event.EntityKind+"/"+event.EntityID).
		Str("message", event.Message).
		Msg("notification")
	return nil
}
