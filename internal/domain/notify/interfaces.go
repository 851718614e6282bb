package notify

import "context"

// Sender delivers one HTML email.
type Sender interface {
	Send(ctx context.Context, to, from, subject, htmlBody string) error
}

// Recorder observes delivery outcomes.
type Recorder interface {
	ObserveNotification(sent bool)
}
