package models

// NotificationType tags the structured events the lifecycle managers emit.
type NotificationType string

const (
	NotifyAppointmentCancelled   NotificationType = "appointment_cancelled"
	NotifyAppointmentRescheduled NotificationType = "appointment_rescheduled"
	NotifyRunningLate            NotificationType = "running_late"
	NotifyInvoiceSent            NotificationType = "invoice_sent"
	NotifyPaymentReceived        NotificationType = "payment_received"
	NotifyZelleRejected          NotificationType = "zelle_rejected"
)

// NotificationEvent is the value object handed to the dispatcher. It is not
// persisted by the engine; delivery failure never rolls back a transition.
type NotificationEvent struct {
	Type           NotificationType `json:"type"`
	CustomerID     string           `json:"customer_id"`
	RecipientName  string           `json:"recipient_name"`
	RecipientEmail string           `json:"recipient_email"`
	Message        string           `json:"message"`
	Link           string           `json:"link,omitempty"`
	EntityKind     string           `json:"entity_kind"` // "appointment" or "invoice"
	EntityID       string           `json:"entity_id"`
}
