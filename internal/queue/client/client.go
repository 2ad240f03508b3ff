package client

type QueueMessage struct {
	Body    string
	Receipt string
}

// A common interface for queue clients regardless of the underlying broker.
type QueueClient interface {
	SendMessage(messageBody string) error
	ReceiveMessages() (<-chan QueueMessage, error)
	DeleteMessage(receipt string) error
	Stop() error
	Ping() error
	GetQueueName() string
}

func NewQueueClient(url, user, password, queueName string) (QueueClient, error) {
	return NewRabbitMqClient(url, user, password, queueName)
}
