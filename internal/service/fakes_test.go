package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/expertbridge/consult_platform/internal/model"
	"github.com/google/uuid"
)

// In-memory repository fakes. The slot fake mirrors the SQL contract exactly:
// Reserve flips all rows or none under one lock, ReleaseByBooking is
// idempotent, CreateIfAbsent keys on (expert_id, start_time).

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uuid.UUID]*model.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateClientStatus(_ context.Context, id uuid.UUID, status model.ClientStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.ClientStatus = status
	}
	return nil
}

type fakeExpertRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*model.ExpertProfile
	tagLinks map[uuid.UUID][]uuid.UUID
}

func newFakeExpertRepo() *fakeExpertRepo {
	return &fakeExpertRepo{profiles: map[uuid.UUID]*model.ExpertProfile{}}
}

func (r *fakeExpertRepo) Create(_ context.Context, profile *model.ExpertProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	clone := *profile
	r.profiles[profile.ID] = &clone
	return nil
}

func (r *fakeExpertRepo) GetByID(_ context.Context, id uuid.UUID) (*model.ExpertProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	clone := *profile
	return &clone, nil
}

func (r *fakeExpertRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.ExpertProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, profile := range r.profiles {
		if profile.UserID == userID {
			clone := *profile
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeExpertRepo) ListActive(_ context.Context) ([]*model.ExpertProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ExpertProfile
	for _, profile := range r.profiles {
		if profile.VerificationStatus == model.VerificationStatusActive {
			clone := *profile
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeExpertRepo) UpdateVerification(_ context.Context, profile *model.ExpertProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *profile
	r.profiles[profile.ID] = &clone
	return nil
}

func (r *fakeExpertRepo) UpdateRatingStats(_ context.Context, id uuid.UUID, average float64, total int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile, ok := r.profiles[id]; ok {
		profile.AverageRating = average
		profile.TotalReviews = total
	}
	return nil
}

func (r *fakeExpertRepo) AccrueCompletion(_ context.Context, id uuid.UUID, earnings int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile, ok := r.profiles[id]; ok {
		profile.TotalConsultations++
		profile.TotalEarnings += earnings
	}
	return nil
}

func (r *fakeExpertRepo) AttachTag(_ context.Context, profileID, tagID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tagLinks == nil {
		r.tagLinks = map[uuid.UUID][]uuid.UUID{}
	}
	for _, existing := range r.tagLinks[profileID] {
		if existing == tagID {
			return nil
		}
	}
	r.tagLinks[profileID] = append(r.tagLinks[profileID], tagID)
	return nil
}

type fakeTagRepo struct {
	mu   sync.Mutex
	tags map[uuid.UUID]*model.ExpertiseTag
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{tags: map[uuid.UUID]*model.ExpertiseTag{}}
}

func (r *fakeTagRepo) Create(_ context.Context, tag *model.ExpertiseTag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	clone := *tag
	r.tags[tag.ID] = &clone
	return nil
}

func (r *fakeTagRepo) List(_ context.Context) ([]*model.ExpertiseTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ExpertiseTag
	for _, tag := range r.tags {
		clone := *tag
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeTagRepo) GetBySlug(_ context.Context, slug string) (*model.ExpertiseTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tag := range r.tags {
		if tag.Slug == slug {
			clone := *tag
			return &clone, nil
		}
	}
	return nil, nil
}

type fakeRuleRepo struct {
	mu    sync.Mutex
	rules map[uuid.UUID]*model.AvailabilityRule
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: map[uuid.UUID]*model.AvailabilityRule{}}
}

func (r *fakeRuleRepo) Create(_ context.Context, rule *model.AvailabilityRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	clone := *rule
	r.rules[rule.ID] = &clone
	return nil
}

func (r *fakeRuleRepo) GetByID(_ context.Context, id uuid.UUID) (*model.AvailabilityRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, nil
	}
	clone := *rule
	return &clone, nil
}

func (r *fakeRuleRepo) GetByExpertID(_ context.Context, expertID uuid.UUID) ([]*model.AvailabilityRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AvailabilityRule
	for _, rule := range r.rules {
		if rule.ExpertID == expertID {
			clone := *rule
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeRuleRepo) ListActiveByExpert(_ context.Context, expertID uuid.UUID) ([]*model.AvailabilityRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AvailabilityRule
	for _, rule := range r.rules {
		if rule.ExpertID == expertID && rule.IsActive {
			clone := *rule
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeRuleRepo) Exists(_ context.Context, expertID uuid.UUID, day, startMinute, endMinute int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rule := range r.rules {
		if rule.ExpertID == expertID && rule.DayOfWeek == day && rule.StartMinute == startMinute && rule.EndMinute == endMinute {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRuleRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule, ok := r.rules[id]; ok {
		rule.IsActive = active
	}
	return nil
}

func (r *fakeRuleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rules, id)
	return nil
}

type fakeExceptionRepo struct {
	mu         sync.Mutex
	exceptions map[uuid.UUID]*model.DateException
}

func newFakeExceptionRepo() *fakeExceptionRepo {
	return &fakeExceptionRepo{exceptions: map[uuid.UUID]*model.DateException{}}
}

func (r *fakeExceptionRepo) Create(_ context.Context, exc *model.DateException) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if exc.ID == uuid.Nil {
		exc.ID = uuid.New()
	}
	clone := *exc
	r.exceptions[exc.ID] = &clone
	return nil
}

func (r *fakeExceptionRepo) GetByID(_ context.Context, id uuid.UUID) (*model.DateException, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exc, ok := r.exceptions[id]
	if !ok {
		return nil, nil
	}
	clone := *exc
	return &clone, nil
}

func (r *fakeExceptionRepo) GetByExpertAndDate(_ context.Context, expertID uuid.UUID, date time.Time) (*model.DateException, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, exc := range r.exceptions {
		if exc.ExpertID == expertID && exc.Date.Equal(date) {
			clone := *exc
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeExceptionRepo) ListByExpertRange(_ context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.DateException, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.DateException
	for _, exc := range r.exceptions {
		if exc.ExpertID == expertID && !exc.Date.Before(from) && exc.Date.Before(to) {
			clone := *exc
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeExceptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.exceptions, id)
	return nil
}

type fakeSlotRepo struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*model.Slot
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{slots: map[uuid.UUID]*model.Slot{}}
}

func (r *fakeSlotRepo) CreateIfAbsent(_ context.Context, slot *model.Slot) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.slots {
		if existing.ExpertID == slot.ExpertID && existing.StartTime.Equal(slot.StartTime) {
			return false, nil
		}
	}
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	clone := *slot
	r.slots[slot.ID] = &clone
	return true, nil
}

func (r *fakeSlotRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, ok := r.slots[id]
	if !ok {
		return nil, nil
	}
	clone := *slot
	return &clone, nil
}

func (r *fakeSlotRepo) GetRun(_ context.Context, expertID uuid.UUID, start time.Time, n int) ([]*model.Slot, error) {
	end := start.Add(time.Duration(n) * model.SlotDuration)
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Slot
	for _, slot := range r.slots {
		if slot.ExpertID == expertID && !slot.StartTime.Before(start) && slot.StartTime.Before(end) {
			clone := *slot
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeSlotRepo) ListAvailable(_ context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Slot
	for _, slot := range r.slots {
		if slot.ExpertID == expertID && slot.Status == model.SlotStatusAvailable &&
			!slot.StartTime.Before(from) && slot.StartTime.Before(to) {
			clone := *slot
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeSlotRepo) ListByExpert(_ context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Slot
	for _, slot := range r.slots {
		if slot.ExpertID == expertID && !slot.StartTime.Before(from) && slot.StartTime.Before(to) {
			clone := *slot
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeSlotRepo) Reserve(_ context.Context, slotIDs []uuid.UUID, bookingID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range slotIDs {
		slot, ok := r.slots[id]
		if !ok || slot.Status != model.SlotStatusAvailable {
			return false, nil
		}
	}
	for _, id := range slotIDs {
		slot := r.slots[id]
		slot.Status = model.SlotStatusBooked
		id := bookingID
		slot.BookingID = &id
	}
	return true, nil
}

func (r *fakeSlotRepo) ReleaseByBooking(_ context.Context, bookingID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var released int64
	for _, slot := range r.slots {
		if slot.BookingID != nil && *slot.BookingID == bookingID {
			slot.Status = model.SlotStatusAvailable
			slot.BookingID = nil
			released++
		}
	}
	return released, nil
}

func (r *fakeSlotRepo) BlockAvailableOnDate(_ context.Context, expertID uuid.UUID, date time.Time) (int64, error) {
	next := date.AddDate(0, 0, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	var blocked int64
	for _, slot := range r.slots {
		if slot.ExpertID == expertID && slot.Status == model.SlotStatusAvailable &&
			!slot.StartTime.Before(date) && slot.StartTime.Before(next) {
			slot.Status = model.SlotStatusBlocked
			blocked++
		}
	}
	return blocked, nil
}

type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*model.Booking
	updateErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[uuid.UUID]*model.Booking{}}
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = time.Now()
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	clone := *booking
	return &clone, nil
}

func (r *fakeBookingRepo) Update(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *fakeBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bookings, id)
	return nil
}

func (r *fakeBookingRepo) ListByClient(_ context.Context, clientID uuid.UUID) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, booking := range r.bookings {
		if booking.ClientID == clientID {
			clone := *booking
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByExpert(_ context.Context, expertID uuid.UUID) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, booking := range r.bookings {
		if booking.ExpertID == expertID {
			clone := *booking
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*model.ClientRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[uuid.UUID]*model.ClientRequest{}}
}

func (r *fakeRequestRepo) Create(_ context.Context, req *model.ClientRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*model.ClientRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	clone := *req
	return &clone, nil
}

func (r *fakeRequestRepo) Update(_ context.Context, req *model.ClientRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeRequestRepo) ListByClient(_ context.Context, clientID uuid.UUID) ([]*model.ClientRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ClientRequest
	for _, req := range r.requests {
		if req.ClientID == clientID {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) ListByStatus(_ context.Context, status model.RequestStatus) ([]*model.ClientRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ClientRequest
	for _, req := range r.requests {
		if req.Status == status {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	matches map[uuid.UUID]*model.ExpertMatch
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: map[uuid.UUID]*model.ExpertMatch{}}
}

func (r *fakeMatchRepo) Create(_ context.Context, match *model.ExpertMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	match.CreatedAt = time.Now()
	clone := *match
	r.matches[match.ID] = &clone
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id uuid.UUID) (*model.ExpertMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[id]
	if !ok {
		return nil, nil
	}
	clone := *match
	return &clone, nil
}

func (r *fakeMatchRepo) ListByRequest(_ context.Context, requestID uuid.UUID) ([]*model.ExpertMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ExpertMatch
	for _, match := range r.matches {
		if match.RequestID == requestID {
			clone := *match
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMatchRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.MatchStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if match, ok := r.matches[id]; ok {
		match.Status = status
	}
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*model.ProgressEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{}
}

func (r *fakeEventRepo) Append(_ context.Context, event *model.ProgressEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()
	clone := *event
	r.events = append(r.events, &clone)
	return nil
}

func (r *fakeEventRepo) ListByRequest(_ context.Context, requestID uuid.UUID) ([]*model.ProgressEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ProgressEvent
	for _, event := range r.events {
		if event.RequestID == requestID {
			clone := *event
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[uuid.UUID]*model.Review
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{reviews: map[uuid.UUID]*model.Review{}}
}

func (r *fakeReviewRepo) Create(_ context.Context, review *model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	clone := *review
	r.reviews[review.ID] = &clone
	return nil
}

func (r *fakeReviewRepo) GetByBookingID(_ context.Context, bookingID uuid.UUID) (*model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, review := range r.reviews {
		if review.BookingID == bookingID {
			clone := *review
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeReviewRepo) AggregateForReviewee(_ context.Context, revieweeID uuid.UUID) (float64, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum, total int
	for _, review := range r.reviews {
		if review.RevieweeID == revieweeID {
			sum += review.Rating
			total++
		}
	}
	if total == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(total), total, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: map[uuid.UUID]*model.Payment{}}
}

func (r *fakePaymentRepo) Create(_ context.Context, payment *model.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	clone := *payment
	r.payments[payment.ID] = &clone
	return nil
}

func (r *fakePaymentRepo) GetByBookingID(_ context.Context, bookingID uuid.UUID) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, payment := range r.payments {
		if payment.BookingID == bookingID {
			clone := *payment
			return &clone, nil
		}
	}
	return nil, nil
}

type fakeThreadRepo struct {
	mu      sync.Mutex
	threads map[uuid.UUID]*model.MessageThread
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{threads: map[uuid.UUID]*model.MessageThread{}}
}

func (r *fakeThreadRepo) Create(_ context.Context, thread *model.MessageThread) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if thread.ID == uuid.Nil {
		thread.ID = uuid.New()
	}
	clone := *thread
	r.threads[thread.ID] = &clone
	return nil
}

func (r *fakeThreadRepo) GetByBookingID(_ context.Context, bookingID uuid.UUID) (*model.MessageThread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, thread := range r.threads {
		if thread.BookingID == bookingID {
			clone := *thread
			return &clone, nil
		}
	}
	return nil, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*model.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(_ context.Context, message *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()
	clone := *message
	r.messages = append(r.messages, &clone)
	return nil
}

func (r *fakeMessageRepo) ListByThread(_ context.Context, threadID uuid.UUID) ([]*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Message
	for _, message := range r.messages {
		if message.ThreadID == threadID {
			clone := *message
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkRead(_ context.Context, threadID, readerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, message := range r.messages {
		if message.ThreadID == threadID && message.SenderID != readerID && !message.IsRead {
			message.IsRead = true
			message.ReadAt = &now
		}
	}
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*model.AuditEntry
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) Record(_ context.Context, entry *model.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *entry
	r.entries = append(r.entries, &clone)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{}
}

func (n *fakeNotifier) Notify(_ context.Context, recipient, template string, _ map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recipient+":"+template)
	return nil
}

type fakeCharger struct {
	mu      sync.Mutex
	charges int
	fail    bool
}

func (c *fakeCharger) Charge(_ context.Context, _ *model.Booking) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return "", errors.New("gateway unavailable")
	}
	c.charges++
	return "pay_" + uuid.NewString(), nil
}
