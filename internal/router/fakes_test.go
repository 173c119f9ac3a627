package router_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/kasirku/internal/model"
	"github.com/iliyamo/kasirku/internal/queue"
	"github.com/iliyamo/kasirku/internal/repository"
)

type fakeUsers struct {
	mu      sync.Mutex
	byName  map[string]model.User
	nextID  uint64
	creates int
	// racing makes the pre-insert lookup miss a user the insert then collides with
	racing bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: map[string]model.User{}, nextID: 1}
}

func (f *fakeUsers) add(u model.User) model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.nextID
	f.nextID++
	f.byName[u.Username] = u
	return u
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byName[username]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.racing {
		return false, nil
	}
	_, ok := f.byName[username]
	return ok, nil
}

func (f *fakeUsers) Create(_ context.Context, username, hash, role string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[username]; ok {
		return 0, repository.ErrUsernameTaken
	}
	f.creates++
	u := model.User{ID: f.nextID, Username: username, PasswordHash: hash, Role: role, CreatedAt: time.Now()}
	f.nextID++
	f.byName[username] = u
	return u.ID, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, u := range f.byName {
		if u.ID == id {
			u.PasswordHash = hash
			f.byName[name] = u
			return nil
		}
	}
	return repository.ErrUserNotFound
}

type fakeProducts struct {
	mu     sync.Mutex
	items  map[uint64]model.Product
	nextID uint64
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{items: map[uint64]model.Product{}, nextID: 1}
}

func (f *fakeProducts) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *fakeProducts) ListActive(context.Context) ([]*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Product, 0, len(f.items))
	for _, p := range f.items {
		if p.IsActive {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id uint64) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeProducts) Create(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.nextID
	f.nextID++
	p.IsActive = true
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.items[p.ID]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.IsActive = old.IsActive
	p.CreatedAt = old.CreatedAt
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeProducts) Stats(context.Context) (model.ProductStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var s model.ProductStats
	for _, p := range f.items {
		if !p.IsActive {
			continue
		}
		s.ActiveProducts++
		if p.LowStock() {
			s.LowStock++
		}
		s.StockValue += p.Price * float64(p.Stock)
	}
	return s, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []queue.InventoryEvent
	err    error
}

func (f *fakeEvents) PublishInventory(_ context.Context, ev queue.InventoryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Action)
	}
	return out
}
