package leads

import (
	"context"
	"sync"
)

// Repository defines the interface for lead storage.
type Repository interface {
	Create(ctx context.Context, lead *Lead) error
	GetByID(ctx context.Context, id string) (*Lead, error)
	ListByUser(ctx context.Context, userID int64) ([]*Lead, error)
}

// InMemoryRepository keeps leads in memory for development and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	order []string
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{leads: make(map[string]*Lead)}
}

// Create stores the lead.
func (r *InMemoryRepository) Create(_ context.Context, lead *Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads[lead.ID] = lead
	r.order = append(r.order, lead.ID)
	return nil
}

// GetByID retrieves a lead by ID.
func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

// ListByUser returns the user's leads in creation order.
func (r *InMemoryRepository) ListByUser(_ context.Context, userID int64) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Lead
	for _, id := range r.order {
		if lead := r.leads[id]; lead.UserID == userID {
			out = append(out, lead)
		}
	}
	return out, nil
}
