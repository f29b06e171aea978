package service

import (
	"context"
	"testing"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type messagingFixture struct {
	svc          *MessagingService
	bookingRepo  *fakeBookingRepo
	clientID     uuid.UUID
	expertUserID uuid.UUID
	bookingID    uuid.UUID
}

func newMessagingFixture(t *testing.T) *messagingFixture {
	t.Helper()
	ctx := context.Background()

	expertRepo := newFakeExpertRepo()
	f := &messagingFixture{
		bookingRepo:  newFakeBookingRepo(),
		clientID:     uuid.New(),
		expertUserID: uuid.New(),
	}

	profile := &model.ExpertProfile{UserID: f.expertUserID, VerificationStatus: model.VerificationStatusActive}
	require.NoError(t, expertRepo.Create(ctx, profile))

	booking := &model.Booking{
		ClientID: f.clientID,
		ExpertID: profile.ID,
		Status:   model.BookingStatusAccepted,
	}
	require.NoError(t, f.bookingRepo.Create(ctx, booking))
	f.bookingID = booking.ID

	f.svc = NewMessagingService(newFakeThreadRepo(), newFakeMessageRepo(), f.bookingRepo, expertRepo, zap.NewNop())
	return f
}

func TestMessaging(t *testing.T) {
	ctx := context.Background()

	t.Run("both parties converse on a lazily created thread", func(t *testing.T) {
		f := newMessagingFixture(t)

		_, err := f.svc.Post(ctx, f.bookingID, f.clientID, "Could we cover liquidity risk first?")
		require.NoError(t, err)
		_, err = f.svc.Post(ctx, f.bookingID, f.expertUserID, "Yes, send the portfolio ahead of time.")
		require.NoError(t, err)

		messages, err := f.svc.List(ctx, f.bookingID, f.clientID)
		require.NoError(t, err)
		require.Len(t, messages, 2)
	})

	t.Run("listing marks the other side's messages read", func(t *testing.T) {
		f := newMessagingFixture(t)

		_, err := f.svc.Post(ctx, f.bookingID, f.clientID, "hello")
		require.NoError(t, err)

		// The sender's own read does not flag their message.
		_, err = f.svc.List(ctx, f.bookingID, f.clientID)
		require.NoError(t, err)
		messages, err := f.svc.List(ctx, f.bookingID, f.expertUserID)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.False(t, messages[0].IsRead, "read flag flips after this listing, not before")

		messages, err = f.svc.List(ctx, f.bookingID, f.clientID)
		require.NoError(t, err)
		assert.True(t, messages[0].IsRead)
	})

	t.Run("outsiders cannot post or read", func(t *testing.T) {
		f := newMessagingFixture(t)
		stranger := uuid.New()

		_, err := f.svc.Post(ctx, f.bookingID, stranger, "let me in")
		assert.ErrorIs(t, err, ErrNotAuthorized)
		_, err = f.svc.List(ctx, f.bookingID, stranger)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("terminal bookings close the conversation", func(t *testing.T) {
		f := newMessagingFixture(t)

		booking, err := f.bookingRepo.GetByID(ctx, f.bookingID)
		require.NoError(t, err)
		booking.Status = model.BookingStatusCancelled
		require.NoError(t, f.bookingRepo.Update(ctx, booking))

		_, err = f.svc.Post(ctx, f.bookingID, f.clientID, "anyone there?")
		assert.True(t, IsValidation(err))
	})

	t.Run("empty messages are rejected", func(t *testing.T) {
		f := newMessagingFixture(t)

		_, err := f.svc.Post(ctx, f.bookingID, f.clientID, "")
		assert.True(t, IsValidation(err))
	})
}
