// Package httpapi is the JSON HTTP surface of the marketplace.
package httpapi

import (
	"net/http"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/expertbridge/consult_platform/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

type API struct {
	jwtSecret []byte
	logger    *zap.Logger
	validate  *validator.Validate

	users        *service.UserService
	experts      *service.ExpertService
	availability *service.AvailabilityService
	bookings     *service.BookingService
	requests     *service.RequestService
	reviews      *service.ReviewService
	messages     *service.MessagingService
}

func NewAPI(
	jwtSecret string,
	logger *zap.Logger,
	users *service.UserService,
	experts *service.ExpertService,
	availability *service.AvailabilityService,
	bookings *service.BookingService,
	requests *service.RequestService,
	reviews *service.ReviewService,
	messages *service.MessagingService,
) *API {
	return &API{
		jwtSecret:    []byte(jwtSecret),
		logger:       logger,
		validate:     validator.New(),
		users:        users,
		experts:      experts,
		availability: availability,
		bookings:     bookings,
		requests:     requests,
		reviews:      reviews,
		messages:     messages,
	}
}

// Handler builds the full middleware chain: CORS, security headers and
// request logging around the routed endpoints.
func (a *API) Handler() http.Handler {
	router := a.routes()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	return requestLogging(a.logger, securityHeaders(corsHandler))
}

func (a *API) routes() *httprouter.Router {
	router := httprouter.New()
	authLimiter := NewRateLimiter(1, 5)

	router.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth.
	router.POST("/api/auth/register", authLimiter.Limit(a.handleRegister))
	router.POST("/api/auth/login", authLimiter.Limit(a.handleLogin))

	// Expert directory and vetting.
	router.GET("/api/experts", a.handleListExperts)
	router.GET("/api/experts/:id", a.handleGetExpert)
	router.POST("/api/experts", a.authenticate(a.handleApplyExpert))
	router.POST("/api/experts/:id/vet", a.requireRole(model.RoleAdmin, a.handleVetExpert))
	router.POST("/api/experts/:id/activate", a.requireRole(model.RoleAdmin, a.handleActivateExpert))
	router.POST("/api/experts/:id/request-changes", a.requireRole(model.RoleAdmin, a.handleRequestChanges))
	router.POST("/api/experts/:id/reject", a.requireRole(model.RoleAdmin, a.handleRejectExpert))
	router.POST("/api/experts/:id/reapply", a.authenticate(a.handleReapplyExpert))
	router.POST("/api/experts/:id/tags", a.authenticate(a.handleTagExpert))

	// Expertise taxonomy.
	router.GET("/api/tags", a.handleListTags)
	router.POST("/api/tags", a.requireRole(model.RoleAdmin, a.handleCreateTag))

	// Availability (acting expert).
	router.GET("/api/availability/rules", a.requireRole(model.RoleExpert, a.handleListRules))
	router.POST("/api/availability/rules", a.requireRole(model.RoleExpert, a.handleCreateRule))
	router.PATCH("/api/availability/rules/:id", a.requireRole(model.RoleExpert, a.handleSetRuleActive))
	router.DELETE("/api/availability/rules/:id", a.requireRole(model.RoleExpert, a.handleDeleteRule))
	router.GET("/api/availability/exceptions", a.requireRole(model.RoleExpert, a.handleListExceptions))
	router.POST("/api/availability/exceptions", a.requireRole(model.RoleExpert, a.handleBlockDate))
	router.DELETE("/api/availability/exceptions/:id", a.requireRole(model.RoleExpert, a.handleUnblockDate))

	// Public calendar.
	router.GET("/api/experts/:id/slots", a.handleExpertSchedule)
	router.GET("/api/experts/:id/windows", a.handleExpertWindows)

	// Bookings.
	router.POST("/api/bookings", a.authenticate(a.handleCreateBooking))
	router.GET("/api/bookings", a.authenticate(a.handleListBookings))
	router.GET("/api/bookings/:id", a.authenticate(a.handleGetBooking))
	router.POST("/api/bookings/:id/accept", a.authenticate(a.handleAcceptBooking))
	router.POST("/api/bookings/:id/decline", a.authenticate(a.handleDeclineBooking))
	router.POST("/api/bookings/:id/schedule", a.authenticate(a.handleScheduleBooking))
	router.POST("/api/bookings/:id/start", a.authenticate(a.handleStartSession))
	router.POST("/api/bookings/:id/complete", a.authenticate(a.handleMarkComplete))
	router.POST("/api/bookings/:id/cancel", a.authenticate(a.handleCancelBooking))
	router.POST("/api/bookings/:id/dispute", a.requireRole(model.RoleAdmin, a.handleDisputeBooking))
	router.POST("/api/bookings/:id/pricing", a.requireRole(model.RoleAdmin, a.handleSetPricing))

	// Reviews and messages ride on the booking.
	router.POST("/api/bookings/:id/review", a.authenticate(a.handleSubmitReview))
	router.GET("/api/bookings/:id/review", a.authenticate(a.handleGetReview))
	router.GET("/api/bookings/:id/messages", a.authenticate(a.handleListMessages))
	router.POST("/api/bookings/:id/messages", a.authenticate(a.handlePostMessage))

	// Concierge requests.
	router.POST("/api/requests", a.authenticate(a.handleSubmitRequest))
	router.GET("/api/requests", a.authenticate(a.handleListRequests))
	router.GET("/api/requests/:id", a.authenticate(a.handleGetRequest))
	router.GET("/api/requests/:id/trail", a.authenticate(a.handleProgressTrail))
	router.GET("/api/requests/:id/matches", a.authenticate(a.handleVisibleMatches))
	router.POST("/api/requests/:id/review", a.requireRole(model.RoleAdmin, a.handleStartReview))
	router.POST("/api/requests/:id/shortlist", a.requireRole(model.RoleAdmin, a.handleShortlist))
	router.POST("/api/requests/:id/proposal", a.requireRole(model.RoleAdmin, a.handleSendProposal))
	router.POST("/api/requests/:id/confirm", a.authenticate(a.handleConfirmRequest))
	router.POST("/api/requests/:id/start", a.requireRole(model.RoleAdmin, a.handleStartWork))
	router.POST("/api/requests/:id/complete", a.requireRole(model.RoleAdmin, a.handleCompleteWork))
	router.POST("/api/requests/:id/cancel", a.authenticate(a.handleCancelRequest))
	router.POST("/api/requests/:id/expire", a.requireRole(model.RoleAdmin, a.handleExpireRequest))
	router.POST("/api/matches/:id/respond", a.requireRole(model.RoleExpert, a.handleRespondToMatch))

	// Admin.
	router.POST("/api/users/:id/client-status", a.requireRole(model.RoleAdmin, a.handleSetClientStatus))

	return router
}
