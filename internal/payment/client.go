// Package payment is the HTTP client for the external payment gateway.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/go-resty/resty/v2"
)

type chargeRequest struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type chargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Client charges bookings against the gateway's /v1/charges endpoint.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiKey string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &Client{http: http}
}

// Charge captures the booking amount and returns the gateway's charge id.
// Any non-success outcome is an error; the caller decides what a failed
// charge means for the booking.
func (c *Client) Charge(ctx context.Context, booking *model.Booking) (string, error) {
	var result chargeResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chargeRequest{
			Reference: booking.ID.String(),
			Amount:    booking.Amount,
			Currency:  booking.Currency,
		}).
		SetResult(&result).
		Post("/v1/charges")

	if err != nil {
		return "", fmt.Errorf("charge request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("charge request: gateway returned %d", resp.StatusCode())
	}
	if result.Status != "succeeded" {
		return "", fmt.Errorf("charge request: charge %s in status %q", result.ID, result.Status)
	}

	return result.ID, nil
}
