package persistence

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/mishloach/modules/registry/domain/aggregates/person"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/ingestion"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/outerorder"
	"github.com/iota-uz/mishloach/modules/registry/domain/entities/street"
)

type inmemTxKey struct{}

// InmemRegistry keeps the whole registry in memory. It backs dry runs and tests.
// InTx serializes writers and restores the previous state when fn fails. The
// missing-street and outcome logs are append-only and survive a rollback, as their
// Postgres counterparts are written outside the row transaction.
type InmemRegistry struct {
	txMu sync.Mutex

	persons      *SafeMap[int64, person.Person]
	streets      *SafeMap[int64, street.Street]
	fallbackCode int64

	mu       sync.Mutex
	sequence int64
	missing  []street.MissingStreet
	outcomes []ingestion.Outcome
	orders   []outerorder.OuterOrder
}

func NewInmemRegistry(fallback street.Street) *InmemRegistry {
	r := &InmemRegistry{
		persons:      NewSafeMap[int64, person.Person](),
		streets:      NewSafeMap[int64, street.Street](),
		fallbackCode: fallback.Code,
	}
	r.streets.Set(fallback.Code, street.Street{Code: fallback.Code, Name: street.NormalizeName(fallback.Name)})
	return r
}

func (r *InmemRegistry) Persons() person.Repository        { return (*inmemPersons)(r) }
func (r *InmemRegistry) Streets() street.Repository        { return (*inmemStreets)(r) }
func (r *InmemRegistry) OuterOrders() outerorder.Repository { return (*inmemOrders)(r) }
func (r *InmemRegistry) Outcomes() ingestion.Repository    { return (*inmemOutcomes)(r) }

type inmemSnapshot struct {
	persons  map[int64]person.Person
	streets  map[int64]street.Street
	sequence int64
	orders   []outerorder.OuterOrder
}

func (r *InmemRegistry) snapshot() inmemSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return inmemSnapshot{
		persons:  r.persons.Snapshot(),
		streets:  r.streets.Snapshot(),
		sequence: r.sequence,
		orders:   slices.Clone(r.orders),
	}
}

func (r *InmemRegistry) restore(s inmemSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.persons.Restore(s.persons)
	r.streets.Restore(s.streets)
	r.sequence = s.sequence
	r.orders = s.orders
}

func (r *InmemRegistry) InTx(ctx context.Context, fn func(context.Context) error) error {
	if ctx.Value(inmemTxKey{}) == nil {
		r.txMu.Lock()
		defer r.txMu.Unlock()
		ctx = context.WithValue(ctx, inmemTxKey{}, r)
	}
	snap := r.snapshot()
	if err := fn(ctx); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

type inmemPersons InmemRegistry

func (p *inmemPersons) reg() *InmemRegistry { return (*InmemRegistry)(p) }

func (p *inmemPersons) GetByID(_ context.Context, id int64) (person.Person, error) {
	found, ok := p.persons.Get(id)
	if !ok {
		return person.Person{}, person.ErrNotFound
	}
	return found, nil
}

func (p *inmemPersons) sorted() []person.Person {
	all := p.persons.Values()
	slices.SortFunc(all, func(a, b person.Person) int { return cmp.Compare(a.ID(), b.ID()) })
	return all
}

func (p *inmemPersons) FindByPhone(_ context.Context, phone string) (person.Person, error) {
	phone = person.NormalizePhone(phone)
	if phone == "" {
		return person.Person{}, person.ErrNotFound
	}
	for _, candidate := range p.sorted() {
		if candidate.Phone() == phone {
			return candidate, nil
		}
	}
	return person.Person{}, person.ErrNotFound
}

func (p *inmemPersons) GetPaginated(_ context.Context, params *person.FindParams) ([]person.Person, int64, error) {
	if params == nil {
		params = &person.FindParams{}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := max(params.Offset, 0)
	q := strings.TrimSpace(params.Q)

	matched := make([]person.Person, 0)
	for _, candidate := range p.sorted() {
		if q == "" || strings.Contains(strings.ToLower(candidate.Lastname()), strings.ToLower(q)) ||
			candidate.Phone() == q || candidate.Mobile() == q {
			matched = append(matched, candidate)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return []person.Person{}, total, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], total, nil
}

func (p *inmemPersons) Count(_ context.Context) (int64, error) {
	return int64(p.persons.Len()), nil
}

func (p *inmemPersons) checkStreet(f person.Fields) error {
	if f.StreetCode == nil {
		return nil
	}
	if _, ok := p.streets.Get(*f.StreetCode); !ok {
		return person.ErrUnknownStreet
	}
	return nil
}

func (p *inmemPersons) Create(_ context.Context, np person.Person) (person.Person, error) {
	if np.ID() <= 0 {
		return person.Person{}, errors.New("person id must be positive")
	}
	if _, exists := p.persons.Get(np.ID()); exists {
		return person.Person{}, person.ErrIDTaken
	}
	if err := p.checkStreet(np.Fields()); err != nil {
		return person.Person{}, err
	}
	now := time.Now()
	stored := person.Hydrate(np.ID(), np.Fields(), now, now)
	p.persons.Set(stored.ID(), stored)
	return stored, nil
}

func (p *inmemPersons) Upsert(ctx context.Context, np person.Person) (person.Person, error) {
	existing, ok := p.persons.Get(np.ID())
	if !ok {
		return p.Create(ctx, np)
	}
	lastname := np.Lastname()
	fields := existing.Fields()
	fields.Lastname = lastname
	stored := person.Hydrate(existing.ID(), fields, existing.CreatedAt(), time.Now())
	p.persons.Set(stored.ID(), stored)
	return stored, nil
}

func (p *inmemPersons) Update(_ context.Context, id int64, patch person.Patch) (person.Person, error) {
	existing, ok := p.persons.Get(id)
	if !ok {
		return person.Person{}, person.ErrNotFound
	}
	updated := existing.Apply(patch, time.Now())
	if err := p.checkStreet(updated.Fields()); err != nil {
		return person.Person{}, err
	}
	p.persons.Set(id, updated)
	return updated, nil
}

func (p *inmemPersons) MaxID(_ context.Context) (int64, error) {
	var maxID int64
	for _, candidate := range p.persons.Values() {
		maxID = max(maxID, candidate.ID())
	}
	return maxID, nil
}

// LockSequence is a no-op; InTx already serializes writers.
func (p *inmemPersons) LockSequence(context.Context) error { return nil }

func (p *inmemPersons) SequenceValue(context.Context) (int64, error) {
	return p.reg().Sequence(), nil
}

func (p *inmemPersons) AdvanceSequence(_ context.Context, id int64) error {
	r := p.reg()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequence = max(r.sequence, id)
	return nil
}

func (p *inmemPersons) DeleteAll(context.Context) error {
	r := p.reg()
	r.persons.Clear()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequence = 0
	return nil
}

// Sequence reports the persisted sequence position.
func (r *InmemRegistry) Sequence() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sequence
}

type inmemStreets InmemRegistry

func (s *inmemStreets) FindByName(_ context.Context, name string) (street.Street, error) {
	name = street.NormalizeName(name)
	for _, candidate := range s.streets.Values() {
		if street.NormalizeName(candidate.Name) == name {
			return candidate, nil
		}
	}
	return street.Street{}, street.ErrNotFound
}

func (s *inmemStreets) Create(ctx context.Context, name string) (street.Street, error) {
	name = street.NormalizeName(name)
	if name == "" {
		return street.Street{}, errors.New("street name is empty")
	}
	if existing, err := s.FindByName(ctx, name); err == nil {
		return existing, nil
	}
	var maxCode int64
	for _, candidate := range s.streets.Values() {
		if candidate.Code != s.fallbackCode {
			maxCode = max(maxCode, candidate.Code)
		}
	}
	code := maxCode + 1
	if code == s.fallbackCode {
		code++
	}
	created := street.Street{Code: code, Name: name}
	s.streets.Set(code, created)
	return created, nil
}

func (s *inmemStreets) EnsureFallback(_ context.Context, fallback street.Street) error {
	if _, ok := s.streets.Get(fallback.Code); !ok {
		s.streets.Set(fallback.Code, street.Street{Code: fallback.Code, Name: street.NormalizeName(fallback.Name)})
	}
	return nil
}

func (s *inmemStreets) List(context.Context) ([]street.Street, error) {
	all := s.streets.Values()
	slices.SortFunc(all, func(a, b street.Street) int { return cmp.Compare(a.Code, b.Code) })
	return all, nil
}

func (s *inmemStreets) LogMissing(_ context.Context, m street.MissingStreet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.missing = append(s.missing, m)
	return nil
}

func (s *inmemStreets) ListMissing(_ context.Context, limit int) ([]street.MissingStreet, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]street.MissingStreet, 0, min(limit, len(s.missing)))
	for i := len(s.missing) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.missing[i])
	}
	return out, nil
}

func (s *inmemStreets) DeleteMissing(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missing = nil
	return nil
}

type inmemOrders InmemRegistry

func (o *inmemOrders) Append(_ context.Context, orders []outerorder.OuterOrder) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	for _, order := range orders {
		order.ID = int64(len(o.orders) + 1)
		if order.Status == "" {
			order.Status = outerorder.StatusWaiting
		}
		order.CreatedAt = now
		o.orders = append(o.orders, order)
	}
	return len(orders), nil
}

func (o *inmemOrders) CountByStatus(_ context.Context, status string) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var n int64
	for _, order := range o.orders {
		if order.Status == status {
			n++
		}
	}
	return n, nil
}

func (o *inmemOrders) DeleteAll(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orders = nil
	return nil
}

// Orders returns a copy of every appended order in insertion order.
func (r *InmemRegistry) Orders() []outerorder.OuterOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.orders)
}

type inmemOutcomes InmemRegistry

func (o *inmemOutcomes) LogOutcome(_ context.Context, outcome ingestion.Outcome) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if outcome.CreatedAt.IsZero() {
		outcome.CreatedAt = time.Now()
	}
	o.outcomes = append(o.outcomes, outcome)
	return nil
}

func (o *inmemOutcomes) ListByBatch(_ context.Context, batchID uuid.UUID) ([]ingestion.Outcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]ingestion.Outcome, 0)
	for _, outcome := range o.outcomes {
		if outcome.BatchID == batchID {
			out = append(out, outcome)
		}
	}
	return out, nil
}

func (o *inmemOutcomes) DeleteAll(context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = nil
	return nil
}
