package mailer

import "context"

// Message is a single outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Sender delivers messages through a provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
