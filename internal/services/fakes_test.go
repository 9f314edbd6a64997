package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"practico/internal/models"
	"practico/internal/pdf"
	"practico/internal/repositories"
	"practico/internal/utils"
)

// memStore is an in-memory repositories.Store. WithinTx restores a snapshot when
// fn fails, so tests can observe all-or-nothing writes.
type memStore struct {
	mu   sync.Mutex
	data *memData

	// conflicts makes the next N user updates report a version conflict
	conflicts   int
	failPayment error
}

type memData struct {
	users    map[string]models.User
	otps     map[string]models.OTPRecord
	payments []models.PaymentEntry
	practice map[int]models.PracticeTest
	subjects map[string]models.SubjectTest
	results  map[string]map[int]models.PracticeTestResult
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		users:    map[string]models.User{},
		otps:     map[string]models.OTPRecord{},
		practice: map[int]models.PracticeTest{},
		subjects: map[string]models.SubjectTest{},
		results:  map[string]map[int]models.PracticeTestResult{},
	}}
}

func (d *memData) clone() *memData {
	c := &memData{
		users:    make(map[string]models.User, len(d.users)),
		otps:     make(map[string]models.OTPRecord, len(d.otps)),
		payments: append([]models.PaymentEntry(nil), d.payments...),
		practice: make(map[int]models.PracticeTest, len(d.practice)),
		subjects: make(map[string]models.SubjectTest, len(d.subjects)),
		results:  make(map[string]map[int]models.PracticeTestResult, len(d.results)),
		nextID:   d.nextID,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.otps {
		c.otps[k] = v
	}
	for k, v := range d.practice {
		c.practice[k] = v
	}
	for k, v := range d.subjects {
		c.subjects[k] = v
	}
	for k, m := range d.results {
		cm := make(map[int]models.PracticeTestResult, len(m))
		for n, r := range m {
			cm[n] = r
		}
		c.results[k] = cm
	}
	return c
}

func (s *memStore) Users() repositories.UserRepository       { return memUsers{s} }
func (s *memStore) OTPs() repositories.OTPRepository         { return memOTPs{s} }
func (s *memStore) Payments() repositories.PaymentRepository { return memPayments{s} }
func (s *memStore) Content() repositories.ContentRepository  { return memContent{s} }
func (s *memStore) Results() repositories.ResultRepository   { return memResults{s} }

func (s *memStore) WithinTx(ctx context.Context, fn func(repositories.Store) error) error {
	s.mu.Lock()
	snap := s.data.clone()
	s.mu.Unlock()
	if err := fn(s); err != nil {
		s.mu.Lock()
		s.data = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

// hookStore runs during once, right after the first OTP or payment lookup,
// so a second request can complete in the middle of the first one.
type hookStore struct {
	*memStore
	fired  bool
	during func()
}

func (h *hookStore) fire() {
	if h.fired || h.during == nil {
		return
	}
	h.fired = true
	h.during()
}

func (h *hookStore) WithinTx(ctx context.Context, fn func(repositories.Store) error) error {
	return h.memStore.WithinTx(ctx, func(repositories.Store) error { return fn(h) })
}

func (h *hookStore) OTPs() repositories.OTPRepository { return hookOTPs{memOTPs{h.memStore}, h} }

func (h *hookStore) Payments() repositories.PaymentRepository {
	return hookPayments{memPayments{h.memStore}, h}
}

type hookOTPs struct {
	memOTPs
	h *hookStore
}

func (r hookOTPs) Get(ctx context.Context, userID string, p models.OTPPurpose) (*models.OTPRecord, error) {
	rec, err := r.memOTPs.Get(ctx, userID, p)
	r.h.fire()
	return rec, err
}

type hookPayments struct {
	memPayments
	h *hookStore
}

func (r hookPayments) GetByToken(ctx context.Context, token string) (*models.PaymentEntry, error) {
	e, err := r.memPayments.GetByToken(ctx, token)
	r.h.fire()
	return e, err
}

// seedUser stores a copy of u and returns it as stored.
func (s *memStore) seedUser(u models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Version == 0 {
		u.Version = 1
	}
	if u.PracticesSolved == nil {
		u.PracticesSolved = models.DefaultPracticesSolved()
	}
	s.data.users[u.ID] = u
	out := u
	return &out
}

// user returns a copy of the stored record.
func (s *memStore) user(id string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.data.users[id]
	return &u
}

func (s *memStore) otp(userID string, p models.OTPPurpose) (models.OTPRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.otps[otpKey(userID, p)]
	return r, ok
}

func (s *memStore) history(userID string) []models.PaymentEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PaymentEntry
	for _, e := range s.data.payments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.data.users {
		if v.Email == u.Email || v.Name == u.Name {
			return repositories.ErrDuplicate
		}
	}
	u.Version = 1
	u.CreatedAt = time.Now().UTC()
	r.s.data.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memUsers) ExistsByNameOrEmail(_ context.Context, name, email string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Name == name || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.data.users[u.ID]
	if !ok {
		return repositories.ErrVersionConflict
	}
	if r.s.conflicts > 0 {
		r.s.conflicts--
		// someone else wrote in between
		cur.Version++
		r.s.data.users[u.ID] = cur
		return repositories.ErrVersionConflict
	}
	if cur.Version != u.Version {
		return repositories.ErrVersionConflict
	}
	u.Version++
	stored := *u
	stored.PracticesSolved = append([]bool(nil), u.PracticesSolved...)
	r.s.data.users[u.ID] = stored
	return nil
}

func otpKey(userID string, p models.OTPPurpose) string { return userID + "|" + string(p) }

type memOTPs struct{ s *memStore }

func (r memOTPs) Create(_ context.Context, rec *models.OTPRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := otpKey(rec.UserID, rec.Purpose)
	if _, ok := r.s.data.otps[k]; ok {
		return repositories.ErrDuplicate
	}
	r.s.data.nextID++
	rec.ID = r.s.data.nextID
	r.s.data.otps[k] = *rec
	return nil
}

func (r memOTPs) Get(_ context.Context, userID string, p models.OTPPurpose) (*models.OTPRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.data.otps[otpKey(userID, p)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &rec, nil
}

func (r memOTPs) DeleteFor(_ context.Context, userID string, p models.OTPPurpose) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := otpKey(userID, p)
	_, ok := r.s.data.otps[k]
	delete(r.s.data.otps, k)
	return ok, nil
}

func (r memOTPs) MarkVerified(_ context.Context, id int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, rec := range r.s.data.otps {
		if rec.ID == id {
			rec.VerifiedAt = &at
			r.s.data.otps[k] = rec
			return nil
		}
	}
	return repositories.ErrNotFound
}

type memPayments struct{ s *memStore }

func (r memPayments) Insert(_ context.Context, e *models.PaymentEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failPayment != nil {
		return r.s.failPayment
	}
	if e.GatewayToken != nil {
		for _, v := range r.s.data.payments {
			if v.GatewayToken != nil && *v.GatewayToken == *e.GatewayToken {
				return repositories.ErrDuplicate
			}
		}
	}
	r.s.data.nextID++
	e.ID = r.s.data.nextID
	e.UpdatedAt = e.CreatedAt
	r.s.data.payments = append(r.s.data.payments, *e)
	return nil
}

func (r memPayments) Update(_ context.Context, e *models.PaymentEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failPayment != nil {
		return r.s.failPayment
	}
	for i, v := range r.s.data.payments {
		if v.ID == e.ID {
			r.s.data.payments[i] = *e
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r memPayments) Settle(_ context.Context, e *models.PaymentEntry) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failPayment != nil {
		return false, r.s.failPayment
	}
	idx := -1
	for i, v := range r.s.data.payments {
		if v.ID == e.ID {
			idx = i
		} else if v.Status == models.PaymentSuccess && e.PaymentID != nil && v.PaymentID != nil && *v.PaymentID == *e.PaymentID {
			return false, nil
		}
	}
	if idx < 0 || r.s.data.payments[idx].Status == models.PaymentSuccess {
		return false, nil
	}
	e.Status = models.PaymentSuccess
	r.s.data.payments[idx] = *e
	return true, nil
}

func (r memPayments) find(match func(models.PaymentEntry) bool) (*models.PaymentEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.data.payments) - 1; i >= 0; i-- {
		if e := r.s.data.payments[i]; match(e) {
			return &e, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r memPayments) GetByToken(_ context.Context, token string) (*models.PaymentEntry, error) {
	return r.find(func(e models.PaymentEntry) bool { return e.GatewayToken != nil && *e.GatewayToken == token })
}

func (r memPayments) GetByConversationID(_ context.Context, userID, conv string) (*models.PaymentEntry, error) {
	return r.find(func(e models.PaymentEntry) bool { return e.UserID == userID && e.ConversationID == conv })
}

func (r memPayments) GetSuccessByPaymentID(_ context.Context, paymentID string) (*models.PaymentEntry, error) {
	return r.find(func(e models.PaymentEntry) bool {
		return e.Status == models.PaymentSuccess && e.PaymentID != nil && *e.PaymentID == paymentID
	})
}

func (r memPayments) Last(_ context.Context, userID string) (*models.PaymentEntry, error) {
	return r.find(func(e models.PaymentEntry) bool { return e.UserID == userID })
}

func (r memPayments) CountPending(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.data.payments {
		if e.UserID == userID && e.Status == models.PaymentPending {
			n++
		}
	}
	return n, nil
}

type memContent struct{ s *memStore }

func (r memContent) CreatePracticeTest(_ context.Context, t *models.PracticeTest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.practice[t.Index]; ok {
		return repositories.ErrDuplicate
	}
	r.s.data.practice[t.Index] = *t
	return nil
}

func (r memContent) GetPracticeTest(_ context.Context, index int) (*models.PracticeTest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.practice[index]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (r memContent) ListPracticeTests(context.Context) ([]models.PracticeTest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.PracticeTest, 0, len(r.s.data.practice))
	for _, t := range r.s.data.practice {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func subjectKey(subject string, index int) string {
	return subject + "#" + strconv.Itoa(index)
}

func (r memContent) CreateSubjectTest(_ context.Context, t *models.SubjectTest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := subjectKey(t.Subject, t.Index)
	if _, ok := r.s.data.subjects[k]; ok {
		return repositories.ErrDuplicate
	}
	r.s.data.subjects[k] = *t
	return nil
}

func (r memContent) GetSubjectTest(_ context.Context, subject string, index int) (*models.SubjectTest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.subjects[subjectKey(subject, index)]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (r memContent) ListSubjectTests(_ context.Context, subject string) ([]models.SubjectTest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.SubjectTest, 0)
	for _, t := range r.s.data.subjects {
		if t.Subject == subject {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

type memResults struct{ s *memStore }

func (r memResults) Upsert(_ context.Context, userID string, res *models.PracticeTestResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.data.results[userID]
	if !ok {
		m = map[int]models.PracticeTestResult{}
		r.s.data.results[userID] = m
	}
	m[res.TestNumber] = *res
	return nil
}

func (r memResults) List(_ context.Context, userID string) ([]models.PracticeTestResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.PracticeTestResult, 0)
	for _, v := range r.s.data.results[userID] {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestNumber < out[j].TestNumber })
	return out, nil
}

func (r memResults) Delete(_ context.Context, userID string, testNumber int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.data.results[userID], testNumber)
	return nil
}

// fakeEmails records every message instead of sending it.
type fakeEmails struct {
	mu       sync.Mutex
	codes    map[string]string
	changed  []string
	payments []PaymentMail
	err      error
}

func newFakeEmails() *fakeEmails { return &fakeEmails{codes: map[string]string{}} }

func (f *fakeEmails) SendOTP(_ context.Context, to string, purpose models.OTPPurpose, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[to+"|"+string(purpose)] = code
	return f.err
}

func (f *fakeEmails) SendPasswordChanged(_ context.Context, to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changed = append(f.changed, to)
	return f.err
}

func (f *fakeEmails) SendPaymentSuccess(_ context.Context, _ string, p PaymentMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, p)
	return f.err
}

func (f *fakeEmails) code(to string, p models.OTPPurpose) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[to+"|"+string(p)]
}

func (f *fakeEmails) paymentMails() []PaymentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PaymentMail(nil), f.payments...)
}

type fakeCooldown struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeCooldown) Acquire(_ context.Context, key string, _ time.Duration) (bool, time.Duration, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return false, 0, f.err
	}
	if !f.allow {
		return false, 30 * time.Second, nil
	}
	return true, 0, nil
}

type fakeGateway struct {
	mu       sync.Mutex
	session  *utils.CheckoutSession
	initErr  error
	results  map[string]*utils.CheckoutResult
	fetchErr error
	requests []utils.CheckoutRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{results: map[string]*utils.CheckoutResult{}}
}

func (g *fakeGateway) InitializeCheckout(_ context.Context, req utils.CheckoutRequest) (*utils.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.initErr != nil {
		return nil, g.initErr
	}
	if g.session != nil {
		return g.session, nil
	}
	return &utils.CheckoutSession{
		Status:         "success",
		Token:          "tok-" + req.ConversationID,
		PaymentPageURL: "https://pay.example/" + req.ConversationID,
	}, nil
}

func (g *fakeGateway) RetrieveCheckout(_ context.Context, token string) (*utils.CheckoutResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	r, ok := g.results[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return r, nil
}

func successResult(userID, paymentID string) *utils.CheckoutResult {
	return &utils.CheckoutResult{
		Status:        "success",
		PaymentStatus: "SUCCESS",
		PaymentID:     paymentID,
		BasketID:      "basket_" + userID,
		PaidPrice:     "3970.0",
		Currency:      "TRY",
	}
}

type fixedCountry string

func (c fixedCountry) Country(string) string { return string(c) }

type fakeReceipts struct {
	mu   sync.Mutex
	seen []pdf.ReceiptData
	err  error
}

func (f *fakeReceipts) Receipt(d pdf.ReceiptData) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, d)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake"), nil
}

type fakeAlerts struct {
	mu    sync.Mutex
	users []string
}

func (f *fakeAlerts) PaymentSucceeded(_ context.Context, u *models.User, _ *models.PaymentEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, u.ID)
	return nil
}

func (f *fakeAlerts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const (
	adaID = "0b8e6b0a-3c4e-4f57-9a51-6b7f9d2c1a01"
	bobID = "0b8e6b0a-3c4e-4f57-9a51-6b7f9d2c1a02"
)
