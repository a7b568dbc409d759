package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bibbank/finance-service/internal/application/usecase"
	"github.com/bibbank/finance-service/internal/domain/model"
	"github.com/bibbank/finance-service/internal/domain/port"
	"github.com/bibbank/finance-service/internal/domain/valueobject"
	"github.com/bibbank/finance-service/pkg/events"
	"github.com/bibbank/finance-service/pkg/money"
	"github.com/bibbank/finance-service/pkg/testutil"
)

var (
	tenantID = testutil.TestTenantID.String()
	clock    = testutil.Date(2025, 1, 1)
)

// mockOwnerRepository keeps snapshots in memory and enforces the same
// version check as the Postgres repository.
type mockOwnerRepository struct {
	mu     sync.Mutex
	states map[string]model.OwnerState
	saves  int

	saveFunc     func(ctx context.Context, o model.Owner) error
	findByIDFunc func(ctx context.Context, tenantID, id string) (model.Owner, error)
}

func newMockOwnerRepository() *mockOwnerRepository {
	return &mockOwnerRepository{states: make(map[string]model.OwnerState)}
}

func (m *mockOwnerRepository) Save(ctx context.Context, o model.Owner) error {
	if m.saveFunc != nil {
		if err := m.saveFunc(ctx, o); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := o.TenantID() + "/" + o.ID()
	state := o.State()
	if stored, ok := m.states[key]; ok {
		if stored.Version != o.Version() {
			return fmt.Errorf("%w: %s at version %d, stored %d",
				port.ErrConcurrentModification, o.ID(), o.Version(), stored.Version)
		}
		state.Version = o.Version() + 1
	}
	m.states[key] = state
	m.saves++
	return nil
}

func (m *mockOwnerRepository) FindByID(ctx context.Context, tenantID, id string) (model.Owner, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, tenantID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[tenantID+"/"+id]
	if !ok {
		return nil, fmt.Errorf("%w: owner %s", port.ErrNotFound, id)
	}
	return model.ReconstructOwner(state)
}

func (m *mockOwnerRepository) ListActiveAssets(_ context.Context, tenantID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for _, s := range m.states {
		if s.TenantID == tenantID && s.Kind.Equal(valueobject.OwnerKindFixedAsset) && s.Status.AcceptsPayments() {
			ids = append(ids, s.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockOwnerRepository) ListTenantsWithActiveAssets(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]bool{}
	var tenants []string
	for _, s := range m.states {
		if s.Kind.Equal(valueobject.OwnerKindFixedAsset) && s.Status.AcceptsPayments() && !seen[s.TenantID] {
			seen[s.TenantID] = true
			tenants = append(tenants, s.TenantID)
		}
	}
	sort.Strings(tenants)
	return tenants, nil
}

func (m *mockOwnerRepository) state(id string) model.OwnerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[tenantID+"/"+id]
}

type mockEventPublisher struct {
	mu              sync.Mutex
	publishedEvents []events.DomainEvent
	publishFunc     func(ctx context.Context, evts ...events.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		if err := m.publishFunc(ctx, evts...); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

func (m *mockEventPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.publishedEvents))
	for _, e := range m.publishedEvents {
		out = append(out, e.EventType())
	}
	return out
}

// mockOutbox records which events the command path reported as published.
type mockOutbox struct {
	mu     sync.Mutex
	marked []string
}

func (m *mockOutbox) FetchUnpublished(context.Context, int) ([]events.OutboxEntry, error) {
	return nil, nil
}

func (m *mockOutbox) MarkPublished(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, ids...)
	return nil
}

func (m *mockOutbox) markedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.marked...)
}

type mockJournal struct {
	mu       sync.Mutex
	entries  []port.JournalEntry
	postFunc func(ctx context.Context, e port.JournalEntry) error
}

func (m *mockJournal) Post(ctx context.Context, e port.JournalEntry) (string, error) {
	if m.postFunc != nil {
		if err := m.postFunc(ctx, e); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return fmt.Sprintf("JE-%04d", len(m.entries)), nil
}

func (m *mockJournal) posted() []port.JournalEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]port.JournalEntry(nil), m.entries...)
}

// mockPeriodGate refuses every date for which closed returns true.
type mockPeriodGate struct {
	closed func(date time.Time, kind valueobject.TransactionKind) bool
}

func (m *mockPeriodGate) CanPost(_ context.Context, _ string, date time.Time, kind valueobject.TransactionKind) (bool, error) {
	if m.closed == nil {
		return true, nil
	}
	return !m.closed(date, kind), nil
}

type mockExchangeRates struct {
	rate decimal.Decimal
	err  error
}

func (m *mockExchangeRates) Rate(_ context.Context, _, _ money.Currency, _ time.Time) (decimal.Decimal, error) {
	return m.rate, m.err
}

type fixture struct {
	repo      *mockOwnerRepository
	publisher *mockEventPublisher
	outbox    *mockOutbox
	journal   *mockJournal
	gate      *mockPeriodGate
	rates     *mockExchangeRates
}

func newFixture() *fixture {
	return &fixture{
		repo:      newMockOwnerRepository(),
		publisher: &mockEventPublisher{},
		outbox:    &mockOutbox{},
		journal:   &mockJournal{},
		gate:      &mockPeriodGate{},
		rates:     &mockExchangeRates{rate: decimal.NewFromInt(1)},
	}
}

func (f *fixture) deps() usecase.Dependencies {
	return usecase.Dependencies{
		Owners:             f.repo,
		Publisher:          f.publisher,
		Outbox:             f.outbox,
		Journal:            f.journal,
		Periods:            f.gate,
		Rates:              f.rates,
		FunctionalCurrency: money.TRY,
		Now:                func() time.Time { return clock },
	}
}
