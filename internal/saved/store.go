package saved

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/amount"
)

// Store keeps each owner's favorites and scheduled bills in memory. It is
// safe for concurrent use. Every change swaps in a new Collection, so a
// List result is a consistent snapshot. Data is lost on restart.
type Store struct {
	mu        sync.RWMutex
	favorites map[string]Collection[Favorite]
	schedules map[string]Collection[ScheduledBill]

	validate *validator.Validate
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		favorites: make(map[string]Collection[Favorite]),
		schedules: make(map[string]Collection[ScheduledBill]),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		now:       time.Now,
	}
}

// AddFavorite saves f, assigning an ID and creation time when unset.
func (s *Store) AddFavorite(ctx context.Context, f Favorite) (Favorite, error) {
	if err := s.validate.StructCtx(ctx, f); err != nil {
		return Favorite{}, fmt.Errorf("AddFavorite: %w", err)
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.favorites[f.OwnerID].Add(f)
	if err != nil {
		return Favorite{}, fmt.Errorf("AddFavorite: %w", err)
	}
	s.favorites[f.OwnerID] = next
	return f, nil
}

// UpdateFavorite replaces a saved favorite.
func (s *Store) UpdateFavorite(ctx context.Context, f Favorite) error {
	if err := s.validate.StructCtx(ctx, f); err != nil {
		return fmt.Errorf("UpdateFavorite: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.favorites[f.OwnerID].Update(f)
	if err != nil {
		return fmt.Errorf("UpdateFavorite: %w", err)
	}
	s.favorites[f.OwnerID] = next
	return nil
}

// RemoveFavorite deletes one of owner's favorites.
func (s *Store) RemoveFavorite(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.favorites[ownerID].Remove(id)
	if err != nil {
		return fmt.Errorf("RemoveFavorite: %w", err)
	}
	s.favorites[ownerID] = next
	return nil
}

// GetFavorite returns one of owner's favorites.
func (s *Store) GetFavorite(ctx context.Context, ownerID, id string) (Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.favorites[ownerID].Get(id)
	if !ok {
		return Favorite{}, fmt.Errorf("GetFavorite %s: %w", id, ErrNotFound)
	}
	return f, nil
}

// Favorites returns owner's favorites in the order they were saved.
func (s *Store) Favorites(ctx context.Context, ownerID string) Collection[Favorite] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favorites[ownerID]
}

// AddSchedule saves a scheduled bill. New schedules start active.
func (s *Store) AddSchedule(ctx context.Context, b ScheduledBill) (ScheduledBill, error) {
	if err := s.checkSchedule(ctx, b); err != nil {
		return ScheduledBill{}, fmt.Errorf("AddSchedule: %w", err)
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
		b.Active = true
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.schedules[b.OwnerID].Add(b)
	if err != nil {
		return ScheduledBill{}, fmt.Errorf("AddSchedule: %w", err)
	}
	s.schedules[b.OwnerID] = next
	return b, nil
}

// ToggleSchedule flips a schedule between active and inactive and returns
// the new value.
func (s *Store) ToggleSchedule(ctx context.Context, ownerID, id string) (ScheduledBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.schedules[ownerID]
	b, ok := cur.Get(id)
	if !ok {
		return ScheduledBill{}, fmt.Errorf("ToggleSchedule %s: %w", id, ErrNotFound)
	}
	b = b.Toggle()
	next, err := cur.Update(b)
	if err != nil {
		return ScheduledBill{}, fmt.Errorf("ToggleSchedule: %w", err)
	}
	s.schedules[ownerID] = next
	return b, nil
}

// RemoveSchedule deletes one of owner's schedules.
func (s *Store) RemoveSchedule(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.schedules[ownerID].Remove(id)
	if err != nil {
		return fmt.Errorf("RemoveSchedule: %w", err)
	}
	s.schedules[ownerID] = next
	return nil
}

// Schedules returns owner's scheduled bills in the order they were saved.
func (s *Store) Schedules(ctx context.Context, ownerID string) Collection[ScheduledBill] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedules[ownerID]
}

// Due lists owner's active schedules falling due on t.
func (s *Store) Due(ctx context.Context, ownerID string, t time.Time) []ScheduledBill {
	var due []ScheduledBill
	for _, b := range s.Schedules(ctx, ownerID).List() {
		if b.DueOn(t) {
			due = append(due, b)
		}
	}
	return due
}

// Owners lists, sorted, every owner with at least one schedule.
func (s *Store) Owners(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]string, 0, len(s.schedules))
	for owner, c := range s.schedules {
		if c.Len() > 0 {
			owners = append(owners, owner)
		}
	}
	slices.Sort(owners)
	return owners
}

func (s *Store) checkSchedule(ctx context.Context, b ScheduledBill) error {
	if err := s.validate.StructCtx(ctx, b); err != nil {
		return err
	}
	if !b.Amount.IsPositive() || !amount.IsMinorUnit(b.Amount) {
		return fmt.Errorf("amount %s is not a positive amount in minor units", b.Amount)
	}
	return nil
}
