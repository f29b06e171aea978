package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sethvargo/go-retry"
)

// EmailChannel sends transactional mail through SendGrid. Transient failures
// are retried with exponential backoff before the dispatcher gives up on the
// channel.
type EmailChannel struct {
	client   *sendgrid.Client
	from     *mail.Email
	fromAddr string
}

func NewEmailChannel(apiKey, fromAddr string) *EmailChannel {
	return &EmailChannel{
		client:   sendgrid.NewSendClient(apiKey),
		from:     mail.NewEmail("ExpertBridge", fromAddr),
		fromAddr: fromAddr,
	}
}

func (c *EmailChannel) Send(ctx context.Context, recipient, subject, body string) error {
	message := mail.NewSingleEmail(c.from, subject, mail.NewEmail("", recipient), body, "")

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		response, err := c.client.SendWithContext(ctx, message)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("send email: %w", err))
		}
		if response.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("send email: sendgrid returned %d", response.StatusCode))
		}
		if response.StatusCode >= http.StatusBadRequest {
			// Client errors will not improve on retry.
			return fmt.Errorf("send email: sendgrid returned %d", response.StatusCode)
		}
		return nil
	})
}
