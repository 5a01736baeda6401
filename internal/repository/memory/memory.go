// Package memory holds map-backed stores with the same semantics as the
// Postgres repositories. Tests and local demos use them in place of a database.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"koomia/api/internal/models"
	"koomia/api/internal/repository"
	"koomia/api/internal/service"
)

func NewStores() service.Stores {
	products := NewProductStore()
	carts := NewCartStore()
	return service.Stores{
		Accounts:   NewAccountStore(),
		Categories: NewCategoryStore(),
		Products:   products,
		Carts:      carts,
		Wishlists:  NewWishlistStore(),
		Addresses:  NewAddressStore(),
		Orders:     NewOrderStore(products, carts),
		Reviews:    NewReviewStore(),
		Blogs:      NewBlogStore(),
	}
}

func page[T any](items []T, pageNum, limit int) []T {
	if limit <= 0 {
		return items
	}
	start := 0
	if pageNum > 1 {
		start = (pageNum - 1) * limit
	}
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	seq      []string
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: map[string]models.Account{}}
}

func (s *AccountStore) Create(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account.Email = strings.ToLower(account.Email)
	if s.clashes(account) {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	account.CreatedAt, account.UpdatedAt = now, now
	s.accounts[account.ID] = account
	s.seq = append(s.seq, account.ID)
	return nil
}

func (s *AccountStore) clashes(account models.Account) bool {
	for id, existing := range s.accounts {
		if id == account.ID {
			continue
		}
		if existing.Email == account.Email || existing.Mobile == account.Mobile {
			return true
		}
	}
	return false
}

func (s *AccountStore) GetByID(_ context.Context, id string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, repository.ErrNotFound
	}
	return account, nil
}

func (s *AccountStore) FindByEmail(_ context.Context, email string) (models.Account, error) {
	email = strings.ToLower(email)
	return s.find(func(a models.Account) bool { return a.Email == email })
}

func (s *AccountStore) FindByMobile(_ context.Context, mobile string) (models.Account, error) {
	return s.find(func(a models.Account) bool { return a.Mobile == mobile })
}

func (s *AccountStore) find(match func(models.Account) bool) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if match(account) {
			return account, nil
		}
	}
	return models.Account{}, repository.ErrNotFound
}

// mutate applies fn to the stored account under the write lock. fn returns
// false to leave the account untouched and report ErrNotFound.
func (s *AccountStore) mutate(id string, fn func(*models.Account) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok || !fn(&account) {
		return repository.ErrNotFound
	}
	account.UpdatedAt = time.Now().UTC()
	s.accounts[id] = account
	return nil
}

func (s *AccountStore) UpdateProfile(_ context.Context, id string, profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	email := strings.ToLower(profile.Email)
	if email != account.Email {
		account.IsVerified = false
		account.OTP = nil
		account.RefreshToken = ""
	}
	account.FirstName = profile.FirstName
	account.LastName = profile.LastName
	account.Email = email
	account.Mobile = profile.Mobile
	if s.clashes(account) {
		return repository.ErrDuplicate
	}
	account.UpdatedAt = time.Now().UTC()
	s.accounts[id] = account
	return nil
}

func (s *AccountStore) SetPassword(_ context.Context, id string, hash []byte) error {
	return s.mutate(id, func(a *models.Account) bool {
		a.PasswordHash = hash
		a.PasswordResetDigest = ""
		return true
	})
}

func (s *AccountStore) ConsumeReset(_ context.Context, id, digest string, hash []byte) error {
	return s.mutate(id, func(a *models.Account) bool {
		if a.PasswordResetDigest == "" || a.PasswordResetDigest != digest {
			return false
		}
		a.PasswordHash = hash
		a.PasswordResetDigest = ""
		a.RefreshToken = ""
		return true
	})
}

func (s *AccountStore) SetResetDigest(_ context.Context, id, digest string) error {
	return s.mutate(id, func(a *models.Account) bool {
		a.PasswordResetDigest = digest
		return true
	})
}

func (s *AccountStore) SetAvatar(_ context.Context, id string, avatar *models.Media) error {
	return s.mutate(id, func(a *models.Account) bool {
		a.Avatar = avatar
		return true
	})
}

func (s *AccountStore) SetRefreshToken(_ context.Context, id, token string) error {
	return s.mutate(id, func(a *models.Account) bool {
		a.RefreshToken = token
		return true
	})
}

func (s *AccountStore) SetOTP(_ context.Context, id string, otp *models.OTP) error {
	return s.mutate(id, func(a *models.Account) bool {
		a.OTP = otp
		return true
	})
}

func (s *AccountStore) MarkVerified(_ context.Context, id string) error {
	return s.mutate(id, func(a *models.Account) bool {
		a.IsVerified = true
		a.OTP = nil
		return true
	})
}

func (s *AccountStore) SetRole(_ context.Context, id string, role models.Role) error {
	return s.mutate(id, func(a *models.Account) bool {
		a.Role = role
		return true
	})
}

func (s *AccountStore) SetBlocked(_ context.Context, id string, blocked bool) error {
	return s.mutate(id, func(a *models.Account) bool {
		a.IsBlocked = blocked
		return true
	})
}

func (s *AccountStore) List(_ context.Context, role models.Role, pageNum, limit int) ([]models.Account, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.Account
	for i := len(s.seq) - 1; i >= 0; i-- {
		if account := s.accounts[s.seq[i]]; account.Role == role {
			matched = append(matched, account)
		}
	}
	return page(matched, pageNum, limit), len(matched), nil
}

func (s *AccountStore) ClearExpiredOTPs(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cleared int64
	for id, account := range s.accounts {
		if account.OTP != nil && account.OTP.Expired(now) {
			account.OTP = nil
			s.accounts[id] = account
			cleared++
		}
	}
	return cleared, nil
}

type CategoryStore struct {
	mu         sync.RWMutex
	categories map[string]models.Category
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{categories: map[string]models.Category{}}
}

func (s *CategoryStore) Create(_ context.Context, category models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.ID == category.ID || existing.Name == category.Name {
			return repository.ErrDuplicate
		}
	}
	s.categories[category.ID] = category
	return nil
}

func (s *CategoryStore) GetByID(_ context.Context, id string) (models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, ok := s.categories[id]
	if !ok {
		return models.Category{}, repository.ErrNotFound
	}
	return category, nil
}

func (s *CategoryStore) List(_ context.Context, categoryType models.CategoryType) ([]models.Category, error) {
	return s.filter(func(c models.Category) bool { return categoryType == "" || c.Type == categoryType }), nil
}

func (s *CategoryStore) ListChildren(_ context.Context, parentID string) ([]models.Category, error) {
	return s.filter(func(c models.Category) bool { return c.ParentID != nil && *c.ParentID == parentID }), nil
}

func (s *CategoryStore) filter(match func(models.Category) bool) []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Category
	for _, category := range s.categories {
		if match(category) {
			out = append(out, category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *CategoryStore) Rename(_ context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.categories[id]
	if !ok {
		return repository.ErrNotFound
	}
	for otherID, other := range s.categories {
		if otherID != id && other.Name == name {
			return repository.ErrDuplicate
		}
	}
	category.Name = name
	s.categories[id] = category
	return nil
}

func (s *CategoryStore) DeleteMany(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, id := range ids {
		if _, ok := s.categories[id]; ok {
			delete(s.categories, id)
			deleted++
		}
	}
	if deleted == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var (
	_ service.AccountStore  = (*AccountStore)(nil)
	_ service.CategoryStore = (*CategoryStore)(nil)
	_ service.ProductStore  = (*ProductStore)(nil)
	_ service.CartStore     = (*CartStore)(nil)
	_ service.WishlistStore = (*WishlistStore)(nil)
	_ service.AddressStore  = (*AddressStore)(nil)
	_ service.OrderStore    = (*OrderStore)(nil)
	_ service.ReviewStore   = (*ReviewStore)(nil)
	_ service.BlogStore     = (*BlogStore)(nil)
)
