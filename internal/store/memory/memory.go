// Package memory implementa los repositorios en maps protegidos por mutex.
// Mismo contrato que el driver mongo, incluidos los conflictos de índice
// único. Pensado para desarrollo y tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/tasknest/internal/domain/repository"
)

type Store struct {
	mu       sync.RWMutex
	users    map[string]repository.User               // por ID interno
	refresh  map[string]repository.RefreshToken       // por userID (uno por usuario)
	resets   map[string]repository.PasswordResetToken // por ID
	projects map[string]repository.Project            // por ID
}

func New() *Store {
	return &Store{
		users:    make(map[string]repository.User),
		refresh:  make(map[string]repository.RefreshToken),
		resets:   make(map[string]repository.PasswordResetToken),
		projects: make(map[string]repository.Project),
	}
}

func (s *Store) Users() repository.UserRepository                     { return usersRepo{s} }
func (s *Store) RefreshTokens() repository.RefreshTokenRepository     { return refreshRepo{s} }
func (s *Store) ResetTokens() repository.PasswordResetTokenRepository { return resetsRepo{s} }
func (s *Store) Projects() repository.ProjectRepository               { return projectsRepo{s} }

// ─── UserRepository ───

type usersRepo struct{ s *Store }

func (r usersRepo) Create(ctx context.Context, u *repository.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ex := range r.s.users {
		if ex.Email == u.Email || ex.PublicID == u.PublicID {
			return repository.ErrConflict
		}
		if u.PhoneNumber != "" && ex.PhoneNumber == u.PhoneNumber {
			return repository.ErrConflict
		}
		if u.FederatedSubjectID != "" && ex.Provider == u.Provider && ex.FederatedSubjectID == u.FederatedSubjectID {
			return repository.ErrConflict
		}
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.s.users[u.ID] = *u
	return nil
}

func (r usersRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		cp := u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r usersRepo) GetByPublicID(ctx context.Context, publicID string) (*repository.User, error) {
	return r.find(func(u repository.User) bool { return u.PublicID == publicID })
}

func (r usersRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return r.find(func(u repository.User) bool { return u.Email == email })
}

func (r usersRepo) GetByFederatedSubject(ctx context.Context, provider repository.Provider, subjectID string) (*repository.User, error) {
	return r.find(func(u repository.User) bool {
		return u.Provider == provider && u.FederatedSubjectID == subjectID
	})
}

func (r usersRepo) ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email || (phone != "" && u.PhoneNumber == phone) {
			return true, nil
		}
	}
	return false, nil
}

func (r usersRepo) UpdateCredentialHash(ctx context.Context, userID, newHash string) error {
	return r.mutate(userID, func(u *repository.User) { u.CredentialHash = newHash })
}

func (r usersRepo) UpdateRole(ctx context.Context, userID string, role repository.Role) error {
	return r.mutate(userID, func(u *repository.User) { u.Role = role })
}

func (r usersRepo) SetTOTPRequired(ctx context.Context, userID string, required bool) error {
	return r.mutate(userID, func(u *repository.User) { u.TOTPRequired = required })
}

func (r usersRepo) LinkFederated(ctx context.Context, userID string, provider repository.Provider, subjectID string) error {
	return r.mutate(userID, func(u *repository.User) {
		u.Provider = provider
		u.FederatedSubjectID = subjectID
		u.IsVerified = true
	})
}

func (r usersRepo) find(match func(repository.User) bool) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r usersRepo) mutate(userID string, fn func(*repository.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.s.users[userID] = u
	return nil
}

// ─── RefreshTokenRepository ───

type refreshRepo struct{ s *Store }

func (r refreshRepo) Upsert(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	t, ok := r.s.refresh[userID]
	if !ok {
		t = repository.RefreshToken{ID: userID, UserID: userID, CreatedAt: now}
	}
	t.TokenHash = tokenHash
	t.ExpiresAt = expiresAt
	t.Revoked = false
	t.UpdatedAt = now
	r.s.refresh[userID] = t
	return nil
}

func (r refreshRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.refresh {
		if t.TokenHash == tokenHash {
			cp := t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r refreshRepo) Revoke(ctx context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for uid, t := range r.s.refresh {
		if t.TokenHash == tokenHash {
			t.Revoked = true
			t.UpdatedAt = time.Now().UTC()
			r.s.refresh[uid] = t
			return nil
		}
	}
	return repository.ErrNotFound
}

// ─── PasswordResetTokenRepository ───

type resetsRepo struct{ s *Store }

func (r resetsRepo) Create(ctx context.Context, t *repository.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.CreatedAt = time.Now().UTC()
	r.s.resets[t.ID] = *t
	return nil
}

func (r resetsRepo) GetByHash(ctx context.Context, tokenHash string) (*repository.PasswordResetToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.resets {
		if t.TokenHash == tokenHash {
			cp := t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r resetsRepo) MarkUsed(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.resets[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Used = true
	r.s.resets[id] = t
	return nil
}

// ─── ProjectRepository ───

type projectsRepo struct{ s *Store }

func (r projectsRepo) Create(ctx context.Context, p *repository.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.s.projects[p.ID] = *p
	return nil
}

func (r projectsRepo) GetByID(ctx context.Context, id string) (*repository.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if p, ok := r.s.projects[id]; ok {
		cp := p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r projectsRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.projects, id)
	return nil
}

func (r projectsRepo) ListByOwner(ctx context.Context, ownerID string) ([]repository.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []repository.Project
	for _, p := range r.s.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}
