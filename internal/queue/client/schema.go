package client

const (
	SettlementEventsQueueName string = "settlement_events_queue"
	VerifyRequestQueueName    string = "verify_request_queue"
)

const (
	PaymentSubmittedEventType    EventType = 1
	SettlementConfirmedEventType EventType = 2
	SettlementTimeoutEventType   EventType = 3
)

type EventType int

type PaymentSubmittedEvent struct {
	EventType        EventType `json:"event_type"` // always 1
	ObligationID     string    `json:"obligation_id"`
	PaymentReference string    `json:"payment_reference"`
}

type SettlementConfirmedEvent struct {
	EventType    EventType `json:"event_type"` // always 2
	ObligationID string    `json:"obligation_id"`
	CommitRef    string    `json:"commit_ref"`
}

type SettlementTimeoutEvent struct {
	EventType    EventType `json:"event_type"` // always 3
	ObligationID string    `json:"obligation_id"`
	Reason       string    `json:"reason"`
}

// VerifyRequestMessage asks the service to run settlement verification for an
// obligation with a deadline relative to receipt.
type VerifyRequestMessage struct {
	ObligationID    string `json:"obligation_id"`
	DeadlineSeconds int64  `json:"deadline_seconds"`
}
