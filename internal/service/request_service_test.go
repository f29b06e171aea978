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

type requestFixture struct {
	svc         *RequestService
	requestRepo *fakeRequestRepo
	matchRepo   *fakeMatchRepo
	eventRepo   *fakeEventRepo
	userRepo    *fakeUserRepo
	expertRepo  *fakeExpertRepo

	clientID     uuid.UUID
	adminID      uuid.UUID
	expertUserID uuid.UUID
	expertID     uuid.UUID
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	ctx := context.Background()

	f := &requestFixture{
		requestRepo: newFakeRequestRepo(),
		matchRepo:   newFakeMatchRepo(),
		eventRepo:   newFakeEventRepo(),
		userRepo:    newFakeUserRepo(),
		expertRepo:  newFakeExpertRepo(),
	}

	client := &model.User{Email: "client@example.com", Role: model.RoleClient, ClientStatus: model.ClientStatusVerified, IsActive: true}
	require.NoError(t, f.userRepo.Create(ctx, client))
	f.clientID = client.ID

	admin := &model.User{Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true}
	require.NoError(t, f.userRepo.Create(ctx, admin))
	f.adminID = admin.ID

	expertUser := &model.User{Email: "expert@example.com", Role: model.RoleExpert, IsActive: true}
	require.NoError(t, f.userRepo.Create(ctx, expertUser))
	f.expertUserID = expertUser.ID

	profile := &model.ExpertProfile{UserID: expertUser.ID, VerificationStatus: model.VerificationStatusActive}
	require.NoError(t, f.expertRepo.Create(ctx, profile))
	f.expertID = profile.ID

	f.svc = NewRequestService(
		f.requestRepo, f.matchRepo, f.eventRepo, f.userRepo, f.expertRepo,
		newFakeAuditRepo(), newFakeNotifier(), zap.NewNop(),
	)
	return f
}

func (f *requestFixture) submit(t *testing.T) *model.ClientRequest {
	t.Helper()
	req, err := f.svc.SubmitRequest(context.Background(), f.clientID, SubmitRequestInput{
		OrganisationName: "Helix Capital",
		Brief:            "Need a market microstructure expert for a two-week review",
	})
	require.NoError(t, err)
	return req
}

func TestRequestWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the full concierge path and records the trail", func(t *testing.T) {
		f := newRequestFixture(t)
		req := f.submit(t)
		assert.Equal(t, model.RequestStatusSubmitted, req.Status)

		require.NoError(t, f.svc.StartReview(ctx, req.ID, f.adminID))

		match, err := f.svc.ShortlistExpert(ctx, req.ID, f.adminID, f.expertID, "strong fit")
		require.NoError(t, err)
		assert.Equal(t, model.MatchStatusProposed, match.Status)

		require.NoError(t, f.svc.RespondToMatch(ctx, match.ID, f.expertUserID, true))
		require.NoError(t, f.svc.SendProposal(ctx, req.ID, f.adminID, match.ID, 250000))
		require.NoError(t, f.svc.Confirm(ctx, req.ID, f.clientID))
		require.NoError(t, f.svc.StartWork(ctx, req.ID, f.adminID))
		require.NoError(t, f.svc.CompleteWork(ctx, req.ID, f.adminID))

		got, err := f.requestRepo.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RequestStatusCompleted, got.Status)
		require.NotNil(t, got.MatchedExpertID)
		assert.Equal(t, f.expertID, *got.MatchedExpertID)
		assert.Equal(t, int64(250000), got.ProposedPrice)

		trail, err := f.svc.ProgressTrail(ctx, req.ID, f.clientID)
		require.NoError(t, err)
		wantEvents := []model.ProgressEventType{
			model.EventRequestSubmitted,
			model.EventRequestInReview,
			model.EventExpertShortlisted,
			model.EventExpertAccepted,
			model.EventProposalSent,
			model.EventClientConfirmed,
			model.EventWorkStarted,
			model.EventWorkCompleted,
		}
		require.Len(t, trail, len(wantEvents))
		for i, event := range trail {
			assert.Equal(t, wantEvents[i], event.EventType, "event %d", i)
		}
	})

	t.Run("rejects out-of-order transitions", func(t *testing.T) {
		f := newRequestFixture(t)
		req := f.submit(t)

		// Cannot shortlist before review starts.
		_, err := f.svc.ShortlistExpert(ctx, req.ID, f.adminID, f.expertID, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)

		// Cannot confirm before a proposal exists.
		assert.ErrorIs(t, f.svc.Confirm(ctx, req.ID, f.clientID), ErrInvalidTransition)
	})

	t.Run("proposal requires an accepted match", func(t *testing.T) {
		f := newRequestFixture(t)
		req := f.submit(t)
		require.NoError(t, f.svc.StartReview(ctx, req.ID, f.adminID))

		match, err := f.svc.ShortlistExpert(ctx, req.ID, f.adminID, f.expertID, "")
		require.NoError(t, err)

		err = f.svc.SendProposal(ctx, req.ID, f.adminID, match.ID, 100000)
		assert.True(t, IsValidation(err))
	})

	t.Run("declined match removes the expert from contention", func(t *testing.T) {
		f := newRequestFixture(t)
		req := f.submit(t)
		require.NoError(t, f.svc.StartReview(ctx, req.ID, f.adminID))

		match, err := f.svc.ShortlistExpert(ctx, req.ID, f.adminID, f.expertID, "")
		require.NoError(t, err)
		require.NoError(t, f.svc.RespondToMatch(ctx, match.ID, f.expertUserID, false))

		got, err := f.matchRepo.GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, model.MatchStatusDeclined, got.Status)

		// A declined expert may be shortlisted again later.
		_, err = f.svc.ShortlistExpert(ctx, req.ID, f.adminID, f.expertID, "reconsidered")
		require.NoError(t, err)
	})

	t.Run("shortlisting the same expert twice is rejected", func(t *testing.T) {
		f := newRequestFixture(t)
		req := f.submit(t)
		require.NoError(t, f.svc.StartReview(ctx, req.ID, f.adminID))

		_, err := f.svc.ShortlistExpert(ctx, req.ID, f.adminID, f.expertID, "")
		require.NoError(t, err)

		_, err = f.svc.ShortlistExpert(ctx, req.ID, f.adminID, f.expertID, "")
		assert.True(t, IsValidation(err))
	})

	t.Run("only admins drive review, shortlist and expiry", func(t *testing.T) {
		f := newRequestFixture(t)
		req := f.submit(t)

		assert.ErrorIs(t, f.svc.StartReview(ctx, req.ID, f.clientID), ErrNotAuthorized)
		assert.ErrorIs(t, f.svc.Expire(ctx, req.ID, f.clientID), ErrNotAuthorized)
	})

	t.Run("owner or admin may cancel, others may not", func(t *testing.T) {
		f := newRequestFixture(t)
		req := f.submit(t)

		assert.ErrorIs(t, f.svc.Cancel(ctx, req.ID, f.expertUserID, "nope"), ErrNotAuthorized)
		require.NoError(t, f.svc.Cancel(ctx, req.ID, f.clientID, "changed our minds"))

		got, err := f.requestRepo.GetByID(ctx, req.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RequestStatusCancelled, got.Status)

		// Terminal: nothing moves it again.
		assert.ErrorIs(t, f.svc.Cancel(ctx, req.ID, f.clientID, "again"), ErrInvalidTransition)
	})

	t.Run("confirmed requests never expire", func(t *testing.T) {
		f := newRequestFixture(t)
		req := f.submit(t)
		require.NoError(t, f.svc.StartReview(ctx, req.ID, f.adminID))

		match, err := f.svc.ShortlistExpert(ctx, req.ID, f.adminID, f.expertID, "")
		require.NoError(t, err)
		require.NoError(t, f.svc.RespondToMatch(ctx, match.ID, f.expertUserID, true))
		require.NoError(t, f.svc.SendProposal(ctx, req.ID, f.adminID, match.ID, 100000))
		require.NoError(t, f.svc.Confirm(ctx, req.ID, f.clientID))

		assert.ErrorIs(t, f.svc.Expire(ctx, req.ID, f.adminID), ErrInvalidTransition)
	})

	t.Run("shortlist requires a vetted expert", func(t *testing.T) {
		f := newRequestFixture(t)
		req := f.submit(t)
		require.NoError(t, f.svc.StartReview(ctx, req.ID, f.adminID))

		rawProfile := &model.ExpertProfile{UserID: uuid.New(), VerificationStatus: model.VerificationStatusApplied}
		require.NoError(t, f.expertRepo.Create(ctx, rawProfile))

		_, err := f.svc.ShortlistExpert(ctx, req.ID, f.adminID, rawProfile.ID, "")
		assert.True(t, IsValidation(err))
	})
}

func TestVisibleMatches(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*requestFixture, *model.ClientRequest) {
		f := newRequestFixture(t)
		req := f.submit(t)
		require.NoError(t, f.svc.StartReview(ctx, req.ID, f.adminID))
		return f, req
	}

	t.Run("admin sees the shortlist at any stage", func(t *testing.T) {
		f, req := setup(t)
		_, err := f.svc.ShortlistExpert(ctx, req.ID, f.adminID, f.expertID, "")
		require.NoError(t, err)

		matches, err := f.svc.VisibleMatches(ctx, req.ID, f.adminID)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("verified owner sees matches only after shortlisting", func(t *testing.T) {
		f, req := setup(t)

		matches, err := f.svc.VisibleMatches(ctx, req.ID, f.clientID)
		require.NoError(t, err)
		assert.Empty(t, matches, "gate closed before shortlisted")

		_, err = f.svc.ShortlistExpert(ctx, req.ID, f.adminID, f.expertID, "")
		require.NoError(t, err)

		matches, err = f.svc.VisibleMatches(ctx, req.ID, f.clientID)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.NotNil(t, matches[0].Expert, "expert profile attached for the client view")
	})

	t.Run("unverified owner never sees the shortlist", func(t *testing.T) {
		f, req := setup(t)
		require.NoError(t, f.userRepo.UpdateClientStatus(ctx, f.clientID, model.ClientStatusPending))

		_, err := f.svc.ShortlistExpert(ctx, req.ID, f.adminID, f.expertID, "")
		require.NoError(t, err)

		_, err = f.svc.VisibleMatches(ctx, req.ID, f.clientID)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("strangers are rejected", func(t *testing.T) {
		f, req := setup(t)
		stranger := &model.User{Email: "x@example.com", Role: model.RoleClient, ClientStatus: model.ClientStatusVerified, IsActive: true}
		require.NoError(t, f.userRepo.Create(ctx, stranger))

		_, err := f.svc.VisibleMatches(ctx, req.ID, stranger.ID)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

func TestRequestTransitionTable(t *testing.T) {
	cases := []struct {
		from model.RequestStatus
		to   model.RequestStatus
		ok   bool
	}{
		{model.RequestStatusSubmitted, model.RequestStatusInReview, true},
		{model.RequestStatusSubmitted, model.RequestStatusShortlisted, false},
		{model.RequestStatusInReview, model.RequestStatusShortlisted, true},
		{model.RequestStatusShortlisted, model.RequestStatusShortlisted, true},
		{model.RequestStatusShortlisted, model.RequestStatusProposalSent, true},
		{model.RequestStatusProposalSent, model.RequestStatusConfirmed, true},
		{model.RequestStatusProposalSent, model.RequestStatusShortlisted, true},
		{model.RequestStatusConfirmed, model.RequestStatusInProgress, true},
		{model.RequestStatusConfirmed, model.RequestStatusExpired, false},
		{model.RequestStatusInProgress, model.RequestStatusCompleted, true},
		{model.RequestStatusCompleted, model.RequestStatusCancelled, false},
		{model.RequestStatusExpired, model.RequestStatusInReview, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
