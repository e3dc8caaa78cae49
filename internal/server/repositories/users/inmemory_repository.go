package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/astroprofile/internal/common"
	"github.com/dmitrijs2005/astroprofile/internal/server/models"
)

// InMemoryRepository is a volatile Repository. Records are kept in
// insertion order; callers only ever see copies.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records []*models.User
	index   map[string]int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{index: make(map[string]int)}
}

func (r *InMemoryRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if username != "" {
		if i, ok := r.index[username]; ok {
			return r.records[i].Clone(), nil
		}
	}

	if email != "" {
		for _, u := range r.records {
			if u.Email == email {
				return u.Clone(), nil
			}
		}
	}

	return nil, common.ErrorNotFound
}

func (r *InMemoryRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.index[username]
	return ok, nil
}

func (r *InMemoryRepository) Insert(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[user.Username]; ok {
		return common.ErrDuplicateUsername
	}

	r.index[user.Username] = len(r.records)
	r.records = append(r.records, user.Clone())
	return nil
}

func (r *InMemoryRepository) UpdateProfile(ctx context.Context, username string, mutate ProfileMutator) (models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[username]
	if !ok {
		return nil, common.ErrorNotFound
	}

	rec := r.records[i]
	next, err := mutate(rec.Profile.Clone())
	if err != nil {
		return nil, err
	}

	rec.Profile = next.Clone()
	return next, nil
}

// Len reports the number of stored records.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
