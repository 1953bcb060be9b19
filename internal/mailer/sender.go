package mailer

import (
	"context"
	"log"
	"time"
)

const maxAttempts = 5

// Sender dispatches emails off the request path with bounded retries.
// Delivery failures are logged and never surfaced to the caller.
type Sender struct {
	mailer Mailer
	sleep  func(time.Duration)
}

func NewSender(mailer Mailer) *Sender {
	return &Sender{
		mailer: mailer,
		sleep:  time.Sleep,
	}
}

// SendAsync queues delivery in the background and returns immediately.
func (s *Sender) SendAsync(to, subject, text, html string) {
	go s.deliver(to, subject, text, html)
}

// Deliver sends synchronously with the same retry schedule. Errors are still
// swallowed after the final attempt; the boolean reports eventual success.
func (s *Sender) Deliver(to, subject, text, html string) bool {
	return s.deliver(to, subject, text, html)
}

func (s *Sender) deliver(to, subject, text, html string) bool {
	if s == nil || s.mailer == nil {
		log.Printf("mailer not configured, dropping email to %s", to)
		return false
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.mailer.Send(context.Background(), to, subject, text, html)
		if err == nil {
			return true
		}

		log.Printf("email to %s failed (attempt %d/%d): %v", to, attempt, maxAttempts, err)
		if attempt < maxAttempts {
			s.sleep(time.Duration(attempt) * 2 * time.Second)
		}
	}

	log.Printf("email to %s dropped after %d attempts", to, maxAttempts)
	return false
}
