package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-auth/internal/rbac"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Principal
	calls  int
}

func newMemoryRepo(seed ...Principal) *memoryRepo {
	repo := &memoryRepo{rows: make(map[int64]Principal)}
	for _, p := range seed {
		if p.ID > repo.nextID {
			repo.nextID = p.ID
		}
		repo.rows[p.ID] = p
	}
	return repo
}

func (m *memoryRepo) FindByID(_ context.Context, id int64) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.rows[id]
	if !ok {
		return Principal{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) FindByUsername(_ context.Context, username string) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, p := range m.rows {
		if p.Username == username {
			return p, nil
		}
	}
	return Principal{}, shared.ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	var out []Principal
	for _, p := range m.rows {
		if filter.Roles != nil && !containsRole(filter.Roles, p.Role) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepo) Create(_ context.Context, p Principal) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, existing := range m.rows {
		if existing.Username == p.Username {
			return Principal{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	p.ID = m.nextID
	p.CreatedAt = time.Unix(1700000000, 0).UTC()
	p.UpdatedAt = p.CreatedAt
	m.rows[p.ID] = p
	return p, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, c Changes) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.rows[id]
	if !ok {
		return Principal{}, shared.ErrNotFound
	}
	if c.Email != nil {
		p.Email = *c.Email
	}
	if c.FirstName != nil {
		p.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		p.LastName = *c.LastName
	}
	if c.Role != nil {
		p.Role = *c.Role
	}
	if c.IsActive != nil {
		p.IsActive = *c.IsActive
	}
	if c.PasswordHash != nil {
		p.PasswordHash = *c.PasswordHash
	}
	m.rows[id] = p
	return p, nil
}

func (m *memoryRepo) Deactivate(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	p, ok := m.rows[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.IsActive = false
	m.rows[id] = p
	return nil
}

func (m *memoryRepo) get(id int64) Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

func containsRole(roles []rbac.Role, r rbac.Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

// population seeds an Admin (1), a Manager (2) and two Employees (3, 4).
func population() []Principal {
	return []Principal{
		{ID: 1, Username: "admin", Role: rbac.RoleAdmin, IsActive: true},
		{ID: 2, Username: "manager", Role: rbac.RoleManager, IsActive: true},
		{ID: 3, Username: "emp1", Role: rbac.RoleEmployee, IsActive: true},
		{ID: 4, Username: "emp2", Role: rbac.RoleEmployee, IsActive: true},
	}
}

var (
	adminActor    = &rbac.Actor{ID: 1, Role: rbac.RoleAdmin}
	managerActor  = &rbac.Actor{ID: 2, Role: rbac.RoleManager}
	employeeActor = &rbac.Actor{ID: 3, Role: rbac.RoleEmployee}
)

func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }
