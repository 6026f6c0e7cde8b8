package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/scooter-reservation/internal/model"
)

// MemoryStore keeps users, pools, scooters and bookings in process.  It
// satisfies the same contracts as the MySQL repositories and serializes
// every write behind one lock, which makes allocation atomic.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*model.User
	pools    map[string]model.ScooterPool
	scooters map[string]model.Scooter
	access   map[string]map[string]bool // customer -> pool
	bookings map[string]*model.Booking
	clock    func() time.Time
}

// NewMemoryStore returns an empty store.  A nil clock uses time.Now.
func NewMemoryStore(clock func() time.Time) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		users:    make(map[string]*model.User),
		pools:    make(map[string]model.ScooterPool),
		scooters: make(map[string]model.Scooter),
		access:   make(map[string]map[string]bool),
		bookings: make(map[string]*model.Booking),
		clock:    clock,
	}
}

// AddUser registers a user with its profiles.
func (m *MemoryStore) AddUser(u model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := u
	m.users[u.ID] = &cp
}

// AddPool registers a scooter pool.
func (m *MemoryStore) AddPool(p model.ScooterPool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[p.ID] = p
}

// AddScooter registers a scooter.  An empty status means Available.
func (m *MemoryStore) AddScooter(s model.Scooter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Status == "" {
		s.Status = model.ScooterAvailable
	}
	m.scooters[s.ID] = s
}

// GrantAccess links a customer to a pool.
func (m *MemoryStore) GrantAccess(customerID, poolID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.access[customerID] == nil {
		m.access[customerID] = make(map[string]bool)
	}
	m.access[customerID][poolID] = true
}

// AddBooking stores b as is, bypassing every check.
func (m *MemoryStore) AddBooking(b model.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := b
	m.bookings[b.ID] = &cp
}

// Bookings returns a copy of every stored booking ordered by ID.
func (m *MemoryStore) Bookings() []model.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) HasPoolAccess(ctx context.Context, customerID, poolID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access[customerID][poolID], nil
}

func overlaps(b *model.Booking, from, to time.Time) bool {
	return b.BookingDate.Before(to) && b.BookingEndDate.After(from)
}

// sortedScooters returns the in-service scooters of a pool ordered by ID.
func (m *MemoryStore) sortedScooters(poolID string) []model.Scooter {
	out := make([]model.Scooter, 0)
	for _, s := range m.scooters {
		if s.PoolID == poolID && s.Status != model.ScooterUnavailable {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MemoryStore) scooterBusy(scooterID, excludeID string, from, to time.Time, statuses []model.BookingStatus) bool {
	for _, b := range m.bookings {
		if b.ScooterID != scooterID || b.ID == excludeID {
			continue
		}
		if hasStatus(statuses, b.BookingStatus) && overlaps(b, from, to) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) ScootersWithBookings(ctx context.Context, poolID string, from, to time.Time, statuses []model.BookingStatus) ([]model.ScooterWithBookings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.ScooterWithBookings, 0)
	for _, s := range m.sortedScooters(poolID) {
		sw := model.ScooterWithBookings{Scooter: s, Bookings: []model.Booking{}}
		for _, b := range m.bookings {
			if b.ScooterID == s.ID && hasStatus(statuses, b.BookingStatus) && overlaps(b, from, to) {
				sw.Bookings = append(sw.Bookings, *b)
			}
		}
		sort.Slice(sw.Bookings, func(i, j int) bool { return sw.Bookings[i].BookingDate.Before(sw.Bookings[j].BookingDate) })
		out = append(out, sw)
	}
	return out, nil
}

func (m *MemoryStore) FindAvailableScooter(ctx context.Context, poolID string, from, to time.Time, statuses []model.BookingStatus) (*model.Scooter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findFree(poolID, from, to, statuses), nil
}

func (m *MemoryStore) findFree(poolID string, from, to time.Time, statuses []model.BookingStatus) *model.Scooter {
	for _, s := range m.sortedScooters(poolID) {
		if !m.scooterBusy(s.ID, "", from, to, statuses) {
			cp := s
			return &cp
		}
	}
	return nil
}

func (m *MemoryStore) ScooterAvailable(ctx context.Context, c ScooterCheck) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scooters[c.ScooterID]
	if !ok {
		return false, ErrNotFound
	}
	if s.Status == model.ScooterUnavailable {
		return false, nil
	}
	return !m.scooterBusy(c.ScooterID, c.ExcludeBookingID, c.From, c.To, c.Statuses), nil
}

func (m *MemoryStore) withRelations(b *model.Booking) *model.Booking {
	cp := *b
	if s, ok := m.scooters[b.ScooterID]; ok {
		sc := s
		if p, ok := m.pools[s.PoolID]; ok {
			pool := p
			sc.Pool = &pool
		}
		cp.Scooter = &sc
	}
	for _, u := range m.users {
		if u.Customer != nil && u.Customer.ID == b.CustomerID {
			c := *u.Customer
			cp.Customer = &c
			break
		}
	}
	return &cp
}

func (m *MemoryStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.withRelations(b), nil
}

func (m *MemoryStore) CustomerBookingAt(ctx context.Context, customerID string, start time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookings {
		if b.CustomerID == customerID && b.BookingDate.Equal(start) && b.BookingStatus != model.BookingCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) ListCustomerBookings(ctx context.Context, f CustomerBookingFilter) ([]model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Booking, 0)
	for _, b := range m.bookings {
		if b.CustomerID != f.CustomerID || !hasStatus(f.Statuses, b.BookingStatus) {
			continue
		}
		if b.BookingDate.Before(f.StartsAfter) {
			continue
		}
		out = append(out, *m.withRelations(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Descending {
			return out[i].BookingDate.After(out[j].BookingDate)
		}
		return out[i].BookingDate.Before(out[j].BookingDate)
	})
	return out, nil
}

func (m *MemoryStore) ListBookings(ctx context.Context, q BookingListQuery) ([]model.Booking, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := make([]model.Booking, 0)
	for _, b := range m.bookings {
		full := m.withRelations(b)
		if q.InstitutionID != "" && (full.Customer == nil || full.Customer.InstitutionID != q.InstitutionID) {
			continue
		}
		if q.Search != "" && !strings.HasPrefix(b.ScooterID, q.Search) && b.CustomerID != q.Search {
			continue
		}
		matched = append(matched, *full)
	}
	less := func(a, b model.Booking) bool {
		switch q.SortBy {
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		case "duration":
			return a.Duration < b.Duration
		default:
			return a.BookingDate.Before(b.BookingDate)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if q.Descending {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return matched[i].ID < matched[j].ID
	})
	total := len(matched)
	start := q.Page * q.Limit
	if start >= total {
		return []model.Booking{}, total, nil
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *MemoryStore) AllocateBooking(ctx context.Context, a Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc := m.findFree(a.PoolID, a.From, a.To, a.Statuses)
	if sc == nil {
		return ErrNoCandidate
	}
	now := m.clock().UTC()
	b := a.Booking
	b.ScooterID = sc.ID
	b.CreatedAt = now
	b.UpdatedAt = now
	cp := *b
	cp.Scooter = nil
	cp.Customer = nil
	m.bookings[b.ID] = &cp
	b.Scooter = sc
	return nil
}

func (m *MemoryStore) TransitionStatus(ctx context.Context, c StatusChange) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[c.BookingID]
	if !ok {
		return nil, ErrNotFound
	}
	if b.BookingStatus != c.From {
		return nil, ErrStatusChanged
	}
	b.BookingStatus = c.To
	if c.StartedAt != nil {
		t := c.StartedAt.UTC()
		b.StartedAt = &t
	}
	if c.ReturnedAt != nil {
		t := c.ReturnedAt.UTC()
		b.ReturnedAt = &t
	}
	b.UpdatedAt = m.clock().UTC()
	return m.withRelations(b), nil
}

func (m *MemoryStore) ResizeBooking(ctx context.Context, rz Resize) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[rz.BookingID]
	if !ok {
		return nil, ErrNotFound
	}
	if b.BookingStatus != model.BookingOpen {
		return nil, ErrStatusChanged
	}
	if m.scooterBusy(b.ScooterID, b.ID, rz.From, rz.To, rz.Statuses) {
		return nil, ErrConflict
	}
	b.Duration = rz.Duration
	b.BookingEndDate = rz.EndDate.UTC()
	b.UpdatedAt = m.clock().UTC()
	return m.withRelations(b), nil
}
