package httpapi

import (
	"context"
	"net/http"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

type createBookingRequest struct {
	ExpertID         string `json:"expert_id" validate:"required,uuid4"`
	AnchorSlotID     string `json:"anchor_slot_id" validate:"required,uuid4"`
	DurationMinutes  int    `json:"duration_minutes" validate:"required,gt=0"`
	ServiceType      string `json:"service_type" validate:"omitempty,oneof=consultation research advisory"`
	ProblemStatement string `json:"problem_statement"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (a *API) handleCreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createBookingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	expertID, _ := uuid.Parse(req.ExpertID)
	anchorID, _ := uuid.Parse(req.AnchorSlotID)
	serviceType := model.ServiceType(req.ServiceType)
	if serviceType == "" {
		serviceType = model.ServiceTypeConsultation
	}

	booking, err := a.bookings.CreateBooking(r.Context(), callerID(r), expertID, anchorID, req.DurationMinutes, serviceType, req.ProblemStatement)
	if err != nil {
		a.logError("create booking", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// handleListBookings returns the caller's side of the ledger: experts see
// bookings against their profile, everyone else sees bookings they placed.
func (a *API) handleListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var (
		bookings []*model.Booking
		err      error
	)
	if callerRole(r) == model.RoleExpert {
		profile, ok := a.callerProfile(w, r)
		if !ok {
			return
		}
		bookings, err = a.bookings.ListForExpert(r.Context(), profile.ID)
	} else {
		bookings, err = a.bookings.ListForClient(r.Context(), callerID(r))
	}
	if err != nil {
		a.logError("list bookings", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (a *API) handleGetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	booking, err := a.bookings.GetByID(r.Context(), id, callerID(r))
	if err != nil {
		a.logError("get booking", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (a *API) handleAcceptBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.bookingAction(w, r, ps, "accept booking", a.bookings.Accept)
}

func (a *API) handleScheduleBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.bookingAction(w, r, ps, "schedule booking", a.bookings.Schedule)
}

func (a *API) handleStartSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.bookingAction(w, r, ps, "start session", a.bookings.StartSession)
}

func (a *API) handleMarkComplete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.bookingAction(w, r, ps, "mark complete", a.bookings.MarkComplete)
}

func (a *API) bookingAction(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	op string,
	action func(ctx context.Context, bookingID, actorID uuid.UUID) (*model.Booking, error),
) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	booking, err := action(r.Context(), id, callerID(r))
	if err != nil {
		a.logError(op, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (a *API) handleDeclineBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.reasonedBookingAction(w, r, ps, "decline booking", a.bookings.Decline)
}

func (a *API) handleCancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.reasonedBookingAction(w, r, ps, "cancel booking", a.bookings.Cancel)
}

func (a *API) handleDisputeBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.reasonedBookingAction(w, r, ps, "dispute booking", a.bookings.Dispute)
}

func (a *API) reasonedBookingAction(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	op string,
	action func(ctx context.Context, bookingID, actorID uuid.UUID, reason string) error,
) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	var req reasonRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := action(r.Context(), id, callerID(r), req.Reason); err != nil {
		a.logError(op, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleSetPricing(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Amount int64 `json:"amount" validate:"gt=0"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.bookings.SetPricing(r.Context(), id, callerID(r), req.Amount); err != nil {
		a.logError("set pricing", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": req.Amount})
}

func (a *API) handleSubmitReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
		Comment string `json:"comment"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	review, err := a.reviews.Submit(r.Context(), id, callerID(r), req.Rating, req.Comment)
	if err != nil {
		a.logError("submit review", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (a *API) handleGetReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	review, err := a.reviews.GetForBooking(r.Context(), id)
	if err != nil {
		a.logError("get review", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (a *API) handleListMessages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	msgs, err := a.messages.List(r.Context(), id, callerID(r))
	if err != nil {
		a.logError("list messages", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (a *API) handlePostMessage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := pathID(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Content string `json:"content" validate:"required"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := a.checkInput(req); err != nil {
		writeError(w, err)
		return
	}

	msg, err := a.messages.Post(r.Context(), id, callerID(r), req.Content)
	if err != nil {
		a.logError("post message", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
