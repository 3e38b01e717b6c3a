package businessflow

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/amirphl/marketplace-settlement/app/services"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// memStore is an in-memory ledger. memTransactor snapshots it to give rollback semantics.
type memStore struct {
	mu       sync.Mutex
	nextID   uint
	accounts map[uint]models.Account
	profiles map[uint]models.SellerProfile
	banks    map[uint]models.SellerBank // by profile id
	ads      map[uint]models.Ad
	payments map[uint]models.Payment
	events   map[string]models.ProcessorEvent
	audits   []models.AuditLog

	// failPaymentInsert makes CreateIdempotent fail
	failPaymentInsert error
	// failProfileSave makes seller profile Save fail
	failProfileSave error
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[uint]models.Account{},
		profiles: map[uint]models.SellerProfile{},
		banks:    map[uint]models.SellerBank{},
		ads:      map[uint]models.Ad{},
		payments: map[uint]models.Payment{},
		events:   map[string]models.ProcessorEvent{},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

type memSnapshot struct {
	nextID   uint
	accounts map[uint]models.Account
	profiles map[uint]models.SellerProfile
	banks    map[uint]models.SellerBank
	ads      map[uint]models.Ad
	payments map[uint]models.Payment
	events   map[string]models.ProcessorEvent
	audits   []models.AuditLog
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		nextID:   s.nextID,
		accounts: maps.Clone(s.accounts),
		profiles: maps.Clone(s.profiles),
		banks:    maps.Clone(s.banks),
		ads:      maps.Clone(s.ads),
		payments: maps.Clone(s.payments),
		events:   maps.Clone(s.events),
		audits:   slices.Clone(s.audits),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.accounts = snap.accounts
	s.profiles = snap.profiles
	s.banks = snap.banks
	s.ads = snap.ads
	s.payments = snap.payments
	s.events = snap.events
	s.audits = snap.audits
}

func (s *memStore) profileOf(accountID uint) *models.SellerProfile {
	for _, p := range s.profiles {
		if p.AccountID == accountID {
			if b, ok := s.banks[p.ID]; ok {
				p.SellerBank = &b
			}
			return &p
		}
	}
	return nil
}

func (s *memStore) paymentsFor(adID uint) []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Payment
	for _, p := range s.payments {
		if p.AdID == adID {
			out = append(out, p)
		}
	}
	return out
}

func (s *memStore) ad(id uint) models.Ad {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ads[id]
}

func (s *memStore) auditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.audits))
	for _, a := range s.audits {
		out = append(out, a.Action)
	}
	return out
}

// memTransactor serializes units of work and restores the snapshot on error
type memTransactor struct {
	store *memStore
	mu    sync.Mutex
}

func (t *memTransactor) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// Accounts

type memAccountRepo struct{ s *memStore }

func (r *memAccountRepo) ByID(_ context.Context, id uint) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *memAccountRepo) Save(_ context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.ID == 0 {
		a.ID = r.s.id()
	}
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	a.CreatedAt = time.Now()
	stored := *a
	stored.SellerProfile = nil
	r.s.accounts[a.ID] = stored
	return nil
}

func (r *memAccountRepo) Update(_ context.Context, a *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *a
	stored.SellerProfile = nil
	r.s.accounts[a.ID] = stored
	return nil
}

func (r *memAccountRepo) ByIDWithProfile(_ context.Context, id uint) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, nil
	}
	a.SellerProfile = r.s.profileOf(id)
	return &a, nil
}

func (r *memAccountRepo) ByEmail(_ context.Context, email string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *memAccountRepo) UpdateSuspension(_ context.Context, id uint, suspended bool, reason *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.IsSuspended = suspended
	a.SuspensionReason = reason
	r.s.accounts[id] = a
	return nil
}

func (r *memAccountRepo) UpdateVerification(_ context.Context, id uint, verified bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.IsVerified = verified
	r.s.accounts[id] = a
	return nil
}

func (r *memAccountRepo) TouchLastLogin(_ context.Context, id uint, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a := r.s.accounts[id]
	a.LastLoginAt = &at
	r.s.accounts[id] = a
	return nil
}

// Seller profiles

type memProfileRepo struct{ s *memStore }

func (r *memProfileRepo) ByID(_ context.Context, id uint) (*models.SellerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memProfileRepo) Save(_ context.Context, p *models.SellerProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failProfileSave != nil {
		return r.s.failProfileSave
	}
	if p.ID == 0 {
		p.ID = r.s.id()
	}
	stored := *p
	stored.SellerBank = nil
	r.s.profiles[p.ID] = stored
	return nil
}

func (r *memProfileRepo) Update(ctx context.Context, p *models.SellerProfile) error {
	return r.Save(ctx, p)
}

func (r *memProfileRepo) ByAccountID(_ context.Context, accountID uint) (*models.SellerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.profileOf(accountID), nil
}

func (r *memProfileRepo) UpsertBank(_ context.Context, bank *models.SellerBank) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if bank.ID == 0 {
		bank.ID = r.s.id()
	}
	r.s.banks[bank.SellerProfileID] = *bank
	return nil
}

// Ads

type memAdRepo struct{ s *memStore }

func (r *memAdRepo) ByID(_ context.Context, id uint) (*models.Ad, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.ads[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *memAdRepo) Save(_ context.Context, a *models.Ad) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.ID == 0 {
		a.ID = r.s.id()
	}
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	a.CreatedAt = time.Now()
	r.s.ads[a.ID] = *a
	return nil
}

func (r *memAdRepo) Update(_ context.Context, a *models.Ad) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.ads[a.ID] = *a
	return nil
}

func (r *memAdRepo) ByUUID(_ context.Context, id uuid.UUID) (*models.Ad, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.ads {
		if a.UUID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (r *memAdRepo) ListBySeller(_ context.Context, sellerID uint, limit, offset int) ([]*models.Ad, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Ad
	for _, id := range slices.Sorted(maps.Keys(r.s.ads)) {
		a := r.s.ads[id]
		if a.SellerID == sellerID {
			out = append(out, &a)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memAdRepo) CountBySeller(_ context.Context, sellerID uint, sold *bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, a := range r.s.ads {
		if a.SellerID == sellerID && (sold == nil || a.IsSold == *sold) {
			n++
		}
	}
	return n, nil
}

func (r *memAdRepo) MarkSold(_ context.Context, adID, buyerID uint, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.ads[adID]
	if !ok || a.IsSold {
		return false, nil
	}
	a.IsSold = true
	a.BuyerID = &buyerID
	a.SoldAt = &at
	r.s.ads[adID] = a
	return true, nil
}

func (r *memAdRepo) UpdatePrice(_ context.Context, adID uint, price decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a := r.s.ads[adID]
	a.Price = &price
	r.s.ads[adID] = a
	return nil
}

// Payments

type memPaymentRepo struct{ s *memStore }

func (r *memPaymentRepo) hydrate(p models.Payment) *models.Payment {
	if ad, ok := r.s.ads[p.AdID]; ok {
		p.Ad = &ad
	}
	if buyer, ok := r.s.accounts[p.BuyerID]; ok {
		p.Buyer = &buyer
	}
	return &p
}

func (r *memPaymentRepo) ByID(_ context.Context, id uint) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, nil
	}
	return r.hydrate(p), nil
}

func (r *memPaymentRepo) Save(_ context.Context, p *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.s.id()
	}
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	p.CreatedAt = time.Now()
	stored := *p
	stored.Ad, stored.Buyer = nil, nil
	r.s.payments[p.ID] = stored
	return nil
}

func (r *memPaymentRepo) Update(ctx context.Context, p *models.Payment) error {
	return r.Save(ctx, p)
}

func (r *memPaymentRepo) ByUUID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.UUID == id {
			return r.hydrate(p), nil
		}
	}
	return nil, nil
}

func (r *memPaymentRepo) ByTransactionID(_ context.Context, transactionID string) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.TransactionID == transactionID {
			return r.hydrate(p), nil
		}
	}
	return nil, nil
}

func (r *memPaymentRepo) CreateIdempotent(ctx context.Context, p *models.Payment) (bool, error) {
	if r.s.failPaymentInsert != nil {
		return false, r.s.failPaymentInsert
	}
	existing, _ := r.ByTransactionID(ctx, p.TransactionID)
	if existing != nil {
		return false, nil
	}
	return true, r.Save(ctx, p)
}

func (r *memPaymentRepo) matches(p models.Payment, f models.PaymentFilter) bool {
	if f.BuyerID != nil && p.BuyerID != *f.BuyerID {
		return false
	}
	if f.SellerID != nil && r.s.ads[p.AdID].SellerID != *f.SellerID {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.CreatedAfter != nil && p.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && p.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	return true
}

func (r *memPaymentRepo) ListByFilter(_ context.Context, f models.PaymentFilter, limit, offset int) ([]*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Payment
	for _, id := range slices.Sorted(maps.Keys(r.s.payments)) {
		if p := r.s.payments[id]; r.matches(p, f) {
			out = append(out, r.hydrate(p))
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPaymentRepo) CountByFilter(_ context.Context, f models.PaymentFilter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.payments {
		if r.matches(p, f) {
			n++
		}
	}
	return n, nil
}

func (r *memPaymentRepo) SumSellerAmount(_ context.Context, sellerID uint) (decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum := decimal.Zero
	for _, p := range r.s.payments {
		if p.IsCompleted() && r.s.ads[p.AdID].SellerID == sellerID {
			sum = sum.Add(p.SellerAmount)
		}
	}
	return sum, nil
}

// Processor events

type memEventRepo struct{ s *memStore }

func (r *memEventRepo) Record(_ context.Context, ev *models.ProcessorEvent) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[ev.EventID]; ok {
		return false, nil
	}
	ev.ID = r.s.id()
	r.s.events[ev.EventID] = *ev
	return true, nil
}

func (r *memEventRepo) MarkProcessed(_ context.Context, eventID string, at time.Time, processingErr *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev := r.s.events[eventID]
	ev.ProcessedAt = &at
	ev.ProcessingError = processingErr
	r.s.events[eventID] = ev
	return nil
}

func (r *memEventRepo) ByEventID(_ context.Context, eventID string) (*models.ProcessorEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev, ok := r.s.events[eventID]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

// Audit

type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Save(_ context.Context, a *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audits = append(r.s.audits, *a)
	return nil
}

var (
	_ repository.AccountRepository        = (*memAccountRepo)(nil)
	_ repository.SellerProfileRepository  = (*memProfileRepo)(nil)
	_ repository.AdRepository             = (*memAdRepo)(nil)
	_ repository.PaymentRepository        = (*memPaymentRepo)(nil)
	_ repository.ProcessorEventRepository = (*memEventRepo)(nil)
	_ repository.AuditLogRepository       = (*memAuditRepo)(nil)
	_ repository.Transactor               = (*memTransactor)(nil)
)

// fakeProcessor answers intents from canned values. Webhook verification uses the real stripe code.
type fakeProcessor struct {
	mu       sync.Mutex
	verifier *services.StripeProcessor

	intentCalls []services.IntentRequest
	intentErr   error
	intentDelay time.Duration

	connectedAccountID  string
	connectedAccountErr error
	account             *services.ConnectedAccount
}

func (p *fakeProcessor) Name() string { return "stripe" }

func (p *fakeProcessor) CreateIntent(_ context.Context, req *services.IntentRequest) (*services.IntentResult, error) {
	if p.intentDelay > 0 {
		time.Sleep(p.intentDelay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intentCalls = append(p.intentCalls, *req)
	if p.intentErr != nil {
		return nil, p.intentErr
	}
	return &services.IntentResult{
		TransactionID: "pi_test_" + req.IdempotencyKey[:8],
		Status:        "succeeded",
		Amount:        req.Amount,
	}, nil
}

func (p *fakeProcessor) calls() []services.IntentRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.intentCalls)
}

func (p *fakeProcessor) ConstructEvent(payload []byte, signature string) (*services.WebhookEvent, error) {
	return p.verifier.ConstructEvent(payload, signature)
}

func (p *fakeProcessor) CreateConnectedAccount(_ context.Context, _ *services.ConnectedAccountRequest) (string, error) {
	if p.connectedAccountErr != nil {
		return "", p.connectedAccountErr
	}
	return p.connectedAccountID, nil
}

func (p *fakeProcessor) CreateOnboardingLink(_ context.Context, processorAccountID string) (*services.OnboardingLink, error) {
	return &services.OnboardingLink{URL: "https://connect.example.com/setup/" + processorAccountID}, nil
}

func (p *fakeProcessor) GetAccount(_ context.Context, processorAccountID string) (*services.ConnectedAccount, error) {
	if p.account == nil {
		return &services.ConnectedAccount{ID: processorAccountID}, nil
	}
	return p.account, nil
}

// recordingNotifier remembers every notification
type recordingNotifier struct {
	mu   sync.Mutex
	sent []services.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, recipientID uint, event string, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, services.Notification{RecipientID: recipientID, Event: event, Data: data})
	return nil
}

const testWebhookSecret = "whsec_test_secret"

// fixture wires every flow to one memStore
type fixture struct {
	store     *memStore
	processor *fakeProcessor
	notifier  *recordingNotifier
	cache     *services.MemoryIntentCache

	accounts *memAccountRepo
	ads      *memAdRepo
	payments *memPaymentRepo
	events   *memEventRepo
	profiles *memProfileRepo
	audits   *memAuditRepo
	tx       *memTransactor
}

func newFixture(t interface{ Fatalf(string, ...any) }) *fixture {
	verifier, err := services.NewStripeProcessor(services.StripeConfig{SecretKey: "sk_test_123", WebhookSecret: testWebhookSecret})
	if err != nil {
		t.Fatalf("stripe processor: %v", err)
	}
	s := newMemStore()
	return &fixture{
		store:     s,
		processor: &fakeProcessor{verifier: verifier, connectedAccountID: "acct_test_1"},
		notifier:  &recordingNotifier{},
		cache:     services.NewMemoryIntentCache(time.Hour),
		accounts:  &memAccountRepo{s},
		ads:       &memAdRepo{s},
		payments:  &memPaymentRepo{s},
		events:    &memEventRepo{s},
		profiles:  &memProfileRepo{s},
		audits:    &memAuditRepo{s},
		tx:        &memTransactor{store: s},
	}
}

func (f *fixture) paymentFlow(feePercent string) PaymentFlow {
	return NewPaymentFlow(f.accounts, f.ads, f.payments, f.events, f.audits, f.tx, f.processor, f.cache, f.notifier,
		PaymentSettings{FeePercent: decimal.RequireFromString(feePercent), Currency: "usd"}, zap.NewNop())
}

func (f *fixture) account(role models.AccountRole, mutate ...func(*models.Account)) *models.Account {
	a := &models.Account{
		Email:      uuid.NewString() + "@example.com",
		Name:       "Test " + string(role),
		Role:       role,
		IsVerified: true,
	}
	for _, m := range mutate {
		m(a)
	}
	_ = f.accounts.Save(context.Background(), a)
	return a
}

// readySeller creates a seller with a payout account and a bank record
func (f *fixture) readySeller() *models.Account {
	seller := f.account(models.AccountRoleSeller)
	acct := "acct_" + uuid.NewString()[:8]
	profile := &models.SellerProfile{
		AccountID:          seller.ID,
		CompanyName:        "Acme",
		Address:            "1 Main St",
		City:               "Springfield",
		State:              "IL",
		Zip:                "62701",
		Country:            "US",
		ProcessorAccountID: &acct,
	}
	_ = f.profiles.Save(context.Background(), profile)
	_ = f.profiles.UpsertBank(context.Background(), &models.SellerBank{SellerProfileID: profile.ID, ExternalAccountID: "ba_1", Last4: "6789"})
	return seller
}

func (f *fixture) ad(sellerID uint, price string) *models.Ad {
	p := decimal.RequireFromString(price)
	ad := &models.Ad{SellerID: sellerID, Title: "Bike", Price: &p}
	_ = f.ads.Save(context.Background(), ad)
	return ad
}
