// Package notify delivers best-effort user and admin notifications. Nothing
// here is load-bearing: callers log failures and move on.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Channel is one delivery mechanism.
type Channel interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Dispatcher renders a template and fans it out to every channel. A channel
// failure is logged and does not stop the others.
type Dispatcher struct {
	channels []Channel
	logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels, logger: logger}
}

func (d *Dispatcher) Notify(ctx context.Context, recipient, template string, data map[string]any) error {
	subject, body := render(template, data)

	var failed int
	for _, channel := range d.channels {
		if err := channel.Send(ctx, recipient, subject, body); err != nil {
			d.logger.Warn("Notification channel failed",
				zap.Error(err),
				zap.String("template", template),
			)
			failed++
		}
	}
	if failed == len(d.channels) && len(d.channels) > 0 {
		return fmt.Errorf("all notification channels failed for %q", template)
	}

	return nil
}

var templates = map[string]string{
	"welcome":               "Welcome to ExpertBridge",
	"booking_requested":     "New consultation request",
	"booking_accepted":      "Your booking was accepted",
	"booking_declined":      "Your booking was declined",
	"booking_completed":     "Session complete - leave a review",
	"match_proposed":        "You have been shortlisted for an engagement",
	"proposal_sent":         "An expert proposal is ready for you",
	"verification_changed":  "Your expert application was updated",
	"client_status_changed": "Your account verification was updated",
}

func render(template string, data map[string]any) (subject, body string) {
	subject, ok := templates[template]
	if !ok {
		subject = template
	}

	var b strings.Builder
	b.WriteString(subject)
	b.WriteString("\n\n")
	for key, value := range data {
		fmt.Fprintf(&b, "%s: %v\n", key, value)
	}
	return subject, b.String()
}
