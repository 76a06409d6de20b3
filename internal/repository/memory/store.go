// Package memory is an in-process Store with the same transactional
// contract as the Postgres one. It backs the service when no DSN is
// configured and every service test.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/assistencia-service/internal/clock"
	"github.com/spec-kit/assistencia-service/internal/domain"
	"github.com/spec-kit/assistencia-service/internal/repository"
)

type storedItem struct {
	item domain.Item
	seq  int64
}

type dataset struct {
	tickets      map[string]domain.Ticket
	items        map[string]storedItem
	movements    map[string]domain.Movement
	movementKeys map[string]string
	movementSeq  map[string]int64
	logs         []domain.AuditLogEntry
	seq          int64
}

func newDataset() *dataset {
	return &dataset{
		tickets:      make(map[string]domain.Ticket),
		items:        make(map[string]storedItem),
		movements:    make(map[string]domain.Movement),
		movementKeys: make(map[string]string),
		movementSeq:  make(map[string]int64),
	}
}

func (d *dataset) clone() *dataset {
	cp := newDataset()
	for k, v := range d.tickets {
		cp.tickets[k] = v
	}
	for k, v := range d.items {
		cp.items[k] = storedItem{item: *v.item.Clone(), seq: v.seq}
	}
	for k, v := range d.movements {
		cp.movements[k] = v
	}
	for k, v := range d.movementKeys {
		cp.movementKeys[k] = v
	}
	for k, v := range d.movementSeq {
		cp.movementSeq[k] = v
	}
	cp.logs = append([]domain.AuditLogEntry(nil), d.logs...)
	cp.seq = d.seq
	return cp
}

func (d *dataset) next() int64 {
	d.seq++
	return d.seq
}

// Store keeps everything in maps. Units of work run one at a time against a
// copy of the data that replaces the committed copy only when fn succeeds.
type Store struct {
	mu    sync.Mutex
	data  *dataset
	clock clock.Clock

	dirMu       sync.RWMutex
	deposits    map[string]domain.Deposit
	assistances map[string]domain.Assistance
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for created_at and updated_at stamps.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data:        newDataset(),
		clock:       clock.System{},
		deposits:    make(map[string]domain.Deposit),
		assistances: make(map[string]domain.Assistance),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ repository.Store = (*Store)(nil)

// AddDeposit registers a deposit in the directory.
func (s *Store) AddDeposit(id, nome string) {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()
	s.deposits[id] = domain.Deposit{ID: id, Nome: nome}
}

// AddAssistance registers an assistance in the directory.
func (s *Store) AddAssistance(id, nome string) {
	s.dirMu.Lock()
	defer s.dirMu.Unlock()
	s.assistances[id] = domain.Assistance{ID: id, Nome: nome}
}

func (s *Store) Tickets() repository.TicketRepository {
	return autoCommit{s}.Tickets()
}

func (s *Store) Items() repository.ItemRepository {
	return autoCommit{s}.Items()
}

func (s *Store) Movements() repository.MovementRepository {
	return autoCommit{s}.Movements()
}

func (s *Store) AuditLog() repository.AuditLogRepository {
	return autoCommit{s}.AuditLog()
}

func (s *Store) Directory() repository.DirectoryRepository {
	return directory{s}
}

// WithinTx must not call back into the Store's own repositories from fn;
// use tx instead.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(ctx, &txRepos{data: work, clock: s.clock}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = work
	return nil
}

// autoCommit runs each call as its own unit of work.
type autoCommit struct {
	s *Store
}

func (a autoCommit) run(ctx context.Context, fn func(tx *txRepos) error) error {
	return a.s.WithinTx(ctx, func(_ context.Context, tx repository.Repositories) error {
		return fn(tx.(*txRepos))
	})
}

func (a autoCommit) Tickets() repository.TicketRepository     { return acTickets{a} }
func (a autoCommit) Items() repository.ItemRepository         { return acItems{a} }
func (a autoCommit) Movements() repository.MovementRepository { return acMovements{a} }
func (a autoCommit) AuditLog() repository.AuditLogRepository  { return acAuditLog{a} }

type txRepos struct {
	data  *dataset
	clock clock.Clock
}

func (t *txRepos) Tickets() repository.TicketRepository     { return tickets{t} }
func (t *txRepos) Items() repository.ItemRepository         { return items{t} }
func (t *txRepos) Movements() repository.MovementRepository { return movements{t} }
func (t *txRepos) AuditLog() repository.AuditLogRepository  { return auditLog{t} }

type tickets struct{ t *txRepos }

func (r tickets) Create(_ context.Context, ticket *domain.Ticket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if _, exists := r.t.data.tickets[ticket.ID]; exists {
		return repository.ErrDuplicate
	}
	for _, existing := range r.t.data.tickets {
		if existing.Numero == ticket.Numero {
			return repository.ErrDuplicate
		}
	}
	now := r.t.clock.Now().UTC()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.t.data.tickets[ticket.ID] = *ticket
	return nil
}

func (r tickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.t.data.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ticket, nil
}

type items struct{ t *txRepos }

func (r items) Create(_ context.Context, item *domain.Item) error {
	if _, ok := r.t.data.tickets[item.TicketID]; !ok {
		return repository.ErrNotFound
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if _, exists := r.t.data.items[item.ID]; exists {
		return repository.ErrDuplicate
	}
	now := r.t.clock.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.t.data.items[item.ID] = storedItem{item: *item.Clone(), seq: r.t.data.next()}
	return nil
}

func (r items) GetByID(_ context.Context, id string) (*domain.Item, error) {
	stored, ok := r.t.data.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return stored.item.Clone(), nil
}

// GetForUpdate needs no row lock: units of work never overlap.
func (r items) GetForUpdate(ctx context.Context, id string) (*domain.Item, error) {
	return r.GetByID(ctx, id)
}

func (r items) Update(_ context.Context, item *domain.Item) error {
	stored, ok := r.t.data.items[item.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.item = *item.Clone()
	r.t.data.items[item.ID] = stored
	return nil
}

func (r items) ListByTicket(_ context.Context, ticketID string) ([]domain.Item, error) {
	var found []storedItem
	for _, stored := range r.t.data.items {
		if stored.item.TicketID == ticketID {
			found = append(found, stored)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	out := make([]domain.Item, 0, len(found))
	for _, stored := range found {
		out = append(out, *stored.item.Clone())
	}
	return out, nil
}

type movements struct{ t *txRepos }

func (r movements) Create(_ context.Context, movement *domain.Movement) error {
	if _, ok := r.t.data.items[movement.ItemID]; !ok {
		return repository.ErrNotFound
	}
	if movement.IdempotencyKey != "" {
		if _, exists := r.t.data.movementKeys[movement.IdempotencyKey]; exists {
			return repository.ErrDuplicate
		}
	}
	movement.ID = uuid.NewString()
	movement.CreatedAt = r.t.clock.Now().UTC()
	r.t.data.movements[movement.ID] = *movement
	r.t.data.movementSeq[movement.ID] = r.t.data.next()
	if movement.IdempotencyKey != "" {
		r.t.data.movementKeys[movement.IdempotencyKey] = movement.ID
	}
	return nil
}

func (r movements) GetByID(_ context.Context, id string) (*domain.Movement, error) {
	movement, ok := r.t.data.movements[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &movement, nil
}

func (r movements) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Movement, error) {
	id, ok := r.t.data.movementKeys[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r movements) ListByItem(_ context.Context, itemID string) ([]domain.Movement, error) {
	out := []domain.Movement{}
	for _, movement := range r.t.data.movements {
		if movement.ItemID == itemID {
			out = append(out, movement)
		}
	}
	seq := r.t.data.movementSeq
	sort.Slice(out, func(i, j int) bool { return seq[out[i].ID] < seq[out[j].ID] })
	return out, nil
}

type auditLog struct{ t *txRepos }

func (r auditLog) Append(_ context.Context, entry *domain.AuditLogEntry) error {
	if entry.ItemID != nil && entry.IdempotencyKey != "" {
		for _, existing := range r.t.data.logs {
			if existing.ItemID != nil && *existing.ItemID == *entry.ItemID && existing.IdempotencyKey == entry.IdempotencyKey {
				return repository.ErrDuplicate
			}
		}
	}
	entry.ID = strconv.FormatInt(r.t.data.next(), 10)
	entry.CreatedAt = r.t.clock.Now().UTC()
	r.t.data.logs = append(r.t.data.logs, *entry)
	return nil
}

func (r auditLog) FindByIdempotencyKey(_ context.Context, itemID, key string) (*domain.AuditLogEntry, error) {
	for _, existing := range r.t.data.logs {
		if existing.ItemID != nil && *existing.ItemID == itemID && existing.IdempotencyKey == key {
			entry := existing
			return &entry, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r auditLog) ListByTicket(_ context.Context, ticketID string) ([]domain.AuditLogEntry, error) {
	out := []domain.AuditLogEntry{}
	for _, entry := range r.t.data.logs {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type directory struct{ s *Store }

func (d directory) GetDeposit(_ context.Context, id string) (*domain.Deposit, error) {
	d.s.dirMu.RLock()
	defer d.s.dirMu.RUnlock()
	dep, ok := d.s.deposits[strings.TrimSpace(id)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &dep, nil
}

func (d directory) GetAssistance(_ context.Context, id string) (*domain.Assistance, error) {
	d.s.dirMu.RLock()
	defer d.s.dirMu.RUnlock()
	a, ok := d.s.assistances[strings.TrimSpace(id)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}
