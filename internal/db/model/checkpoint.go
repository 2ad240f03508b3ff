package model

// CheckpointDocument is the durable crash-recovery anchor of one payment
// submission attempt, keyed by obligation ID.
type CheckpointDocument struct {
	ObligationID     string `bson:"_id"` // Primary key
	Stage            string `bson:"stage"`
	Account          string `bson:"account"`
	Token            uint32 `bson:"token"`
	PaymentReference string `bson:"payment_reference,omitempty"`
}
