package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sua-a1/cram-app-sub001/app/domain"
)

// memoryIdentityProvider is an identity provider with a unique email index.
type memoryIdentityProvider struct {
	mu         sync.Mutex
	identities map[uuid.UUID]*domain.Identity
}

func newMemoryIdentityProvider() *memoryIdentityProvider {
	return &memoryIdentityProvider{identities: map[uuid.UUID]*domain.Identity{}}
}

func (p *memoryIdentityProvider) VerifyCredentials(context.Context, string, string) (*domain.Session, error) {
	return nil, domain.ErrInvalidCredentials
}

func (p *memoryIdentityProvider) CreateIdentity(_ context.Context, email, _ string, meta domain.IdentityMetadata) (*domain.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.identities {
		if existing.Email == email {
			return nil, domain.ErrDuplicateIdentity
		}
	}
	identity := &domain.Identity{ID: uuid.New(), Email: email, DisplayName: meta.DisplayName, RoleHint: meta.Role.String(), CreatedAt: time.Now()}
	p.identities[identity.ID] = identity
	return identity, nil
}

func (p *memoryIdentityProvider) RefreshSession(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrSessionInvalid
}

func (p *memoryIdentityProvider) DeleteIdentity(_ context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.identities, id)
	return nil
}

func (p *memoryIdentityProvider) SendPasswordReset(context.Context, string, string) error { return nil }
func (p *memoryIdentityProvider) RevokeSession(context.Context, string) error             { return nil }
func (p *memoryIdentityProvider) UpdatePassword(context.Context, string, string) error    { return nil }

func (p *memoryIdentityProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.identities)
}

// memoryProfileRepository mirrors the unique email index of the profiles table.
type memoryProfileRepository struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*domain.Profile
}

func newMemoryProfileRepository() *memoryProfileRepository {
	return &memoryProfileRepository{profiles: map[uuid.UUID]*domain.Profile{}}
}

func (r *memoryProfileRepository) GetProfile(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryProfileRepository) GetProfileByEmail(_ context.Context, email string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrProfileNotFound
}

func (r *memoryProfileRepository) InsertProfile(_ context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.Email == profile.Email || p.IdentityID == profile.IdentityID {
			return domain.ErrDuplicateIdentity
		}
	}
	cp := *profile
	r.profiles[profile.IdentityID] = &cp
	return nil
}

func (r *memoryProfileRepository) UpdateProfile(_ context.Context, id uuid.UUID, patch domain.ProfilePatch) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	next, err := p.Apply(patch)
	if err != nil {
		return nil, err
	}
	r.profiles[id] = next
	cp := *next
	return &cp, nil
}

func (r *memoryProfileRepository) countByEmail(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.profiles {
		if p.Email == email {
			n++
		}
	}
	return n
}
