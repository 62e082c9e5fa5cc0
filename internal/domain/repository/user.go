package repository

import (
	"context"
	"time"
)

// Role es el rol del usuario. Dos variantes, chequeadas en el boundary
// HTTP con RequireAdmin; nada de strings sueltos por las rutas.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

// Valid reporta si r es una de las dos variantes conocidas.
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleMember }

// CanManageProjects es el chequeo de capacidad usado por el boundary.
func (r Role) CanManageProjects() bool { return r == RoleAdmin }

// Provider identifica el origen de la identidad.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderGithub Provider = "github"
)

// User es el agregado credencial + perfil.
//
// En el camino de creación vale exactamente uno de:
//   - CredentialHash != "" y Provider == local (registro con password)
//   - Provider != local (alta federada, sin password)
//
// Un registro puede acumular ambos con el tiempo: la política de merge
// adjunta Provider/FederatedSubjectID a una cuenta local preexistente
// cuando el email federado verificado coincide.
type User struct {
	ID                 string   `bson:"_id"`
	PublicID           string   `bson:"publicId"`
	Email              string   `bson:"email"`
	CredentialHash     string   `bson:"credentialHash,omitempty"`
	Role               Role     `bson:"role"`
	Provider           Provider `bson:"provider"`
	FederatedSubjectID string   `bson:"federatedSubjectId,omitempty"`
	IsVerified         bool     `bson:"isVerified"`
	TOTPSecretEnc      string   `bson:"totpSecret,omitempty"` // cifrado en reposo
	TOTPRequired       bool     `bson:"totpRequired"`

	Name        string `bson:"name,omitempty"`
	Gender      string `bson:"gender,omitempty"`
	DateOfBirth string `bson:"dateOfBirth,omitempty"` // YYYY-MM-DD
	PhoneNumber string `bson:"phoneNumber,omitempty"`
	AvatarURL   string `bson:"avatarUrl,omitempty"`

	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// Create inserta un usuario nuevo. Retorna ErrConflict si email,
	// publicId, phoneNumber o subject federado ya existen.
	Create(ctx context.Context, u *User) error

	// GetByID busca por ID interno. ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByPublicID busca por el ID público de 8 dígitos.
	GetByPublicID(ctx context.Context, publicID string) (*User, error)

	// GetByEmail busca por email normalizado (lowercase).
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByFederatedSubject busca por (provider, subjectID).
	GetByFederatedSubject(ctx context.Context, provider Provider, subjectID string) (*User, error)

	// ExistsByEmailOrPhone reporta si algún usuario ya reclama ese email
	// o teléfono (pre-chequeo de registro; el índice único es la garantía).
	ExistsByEmailOrPhone(ctx context.Context, email, phone string) (bool, error)

	// UpdateCredentialHash reemplaza el hash de password.
	UpdateCredentialHash(ctx context.Context, userID, newHash string) error

	// UpdateRole cambia el rol (promoción Member->Admin al crear el
	// primer proyecto).
	UpdateRole(ctx context.Context, userID string, role Role) error

	// SetTOTPRequired prende/apaga la exigencia de segundo factor en login.
	SetTOTPRequired(ctx context.Context, userID string, required bool) error

	// LinkFederated adjunta provider+subject a una cuenta existente
	// (política de merge por email) y la marca verificada.
	LinkFederated(ctx context.Context, userID string, provider Provider, subjectID string) error
}
