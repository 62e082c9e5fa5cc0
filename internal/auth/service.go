// Package auth orquesta registro, login, logout, refresh, revocación,
// sign-in federado, reset de password y segundo factor TOTP.
//
// Máquina de estados de una sesión, por usuario:
//
//	Anonymous -> Authenticated(access, refresh) -> Expired/Revoked -> Anonymous
//
// La persistencia multi-paso es secuencial best-effort: un crash entre
// emitir un token y persistir su hash deja un refresh que no valida
// (falla cerrado, que es la dirección segura).
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/tasknest/internal/audit"
	"github.com/dropDatabas3/tasknest/internal/domain/repository"
	"github.com/dropDatabas3/tasknest/internal/jwt"
	"github.com/dropDatabas3/tasknest/internal/oauth"
	"github.com/dropDatabas3/tasknest/internal/security/identity"
	"github.com/dropDatabas3/tasknest/internal/security/password"
	"github.com/dropDatabas3/tasknest/internal/security/secretbox"
	tokens "github.com/dropDatabas3/tasknest/internal/security/token"
	"github.com/dropDatabas3/tasknest/internal/security/totp"
	"github.com/dropDatabas3/tasknest/internal/util"
)

const (
	resetTokenTTL   = time.Hour
	challengeTTL    = 5 * time.Minute
	scopeMFA        = "mfa"
	opaqueTokenSize = 32
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Mailer manda el token de reset. Fire-and-forget: un fallo de envío no
// afecta al flujo.
type Mailer interface {
	SendPasswordReset(to, token string)
}

// Service compone hasher, codec, stores y oráculos federados.
// Seguro para uso concurrente: no tiene estado mutable propio.
type Service struct {
	Users   repository.UserRepository
	Refresh repository.RefreshTokenRepository
	Resets  repository.PasswordResetTokenRepository

	Issuer    *jwt.Issuer
	Box       *secretbox.Box
	Policy    password.Policy
	Providers map[repository.Provider]oauth.Verifier
	Mailer    Mailer // opcional

	TOTPIssuer string // label del provisioning URI

	now func() time.Time
}

func NewService(users repository.UserRepository, refresh repository.RefreshTokenRepository, resets repository.PasswordResetTokenRepository, issuer *jwt.Issuer, box *secretbox.Box) *Service {
	return &Service{
		Users:      users,
		Refresh:    refresh,
		Resets:     resets,
		Issuer:     issuer,
		Box:        box,
		Policy:     password.Policy{MinLength: 8},
		Providers:  map[repository.Provider]oauth.Verifier{},
		TOTPIssuer: "TaskNest",
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Session es el resultado de una autenticación completa.
type Session struct {
	User           *repository.User
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
	// EnrollmentURI solo viene en el registro: otpauth:// para el QR.
	EnrollmentURI string
}

// LoginResult distingue sesión completa de challenge MFA pendiente.
type LoginResult struct {
	Session *Session
	// MFARequired indica que el usuario exige TOTP en login: no hay
	// tokens todavía, solo un challenge corto para el segundo paso.
	MFARequired    bool
	ChallengeToken string
}

// RegisterInput son los campos del registro local. Todos requeridos.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	Gender      string
	DateOfBirth string // YYYY-MM-DD
}

func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Gender = strings.TrimSpace(in.Gender)
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)
}

func (in *RegisterInput) validate() error {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.PhoneNumber == "" || in.Gender == "" || in.DateOfBirth == "" {
		return fmt.Errorf("%w: missing fields", ErrValidation)
	}
	if !emailRe.MatchString(in.Email) {
		return fmt.Errorf("%w: bad email", ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", in.DateOfBirth); err != nil {
		return fmt.Errorf("%w: bad dateOfBirth", ErrValidation)
	}
	switch strings.ToLower(in.Gender) {
	case "male", "female", "other":
	default:
		return fmt.Errorf("%w: bad gender", ErrValidation)
	}
	return nil
}

// Register da de alta un usuario local: deriva el publicId, hashea el
// password, provisiona el secreto TOTP (cifrado) y abre sesión.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	if ok, reasons := s.Policy.Validate(in.Password); !ok {
		return nil, fmt.Errorf("%w: weak password (%s)", ErrValidation, strings.Join(reasons, ","))
	}

	exists, err := s.Users.ExistsByEmailOrPhone(ctx, in.Email, in.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("register: exists check: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	now := s.now()
	hash, err := password.Hash(in.Password, password.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash: %w", err)
	}

	_, secretB32, err := totp.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("register: totp secret: %w", err)
	}
	secretEnc, err := s.Box.Encrypt(secretB32)
	if err != nil {
		return nil, fmt.Errorf("register: encrypt totp secret: %w", err)
	}

	gender := strings.ToUpper(in.Gender[:1]) + strings.ToLower(in.Gender[1:])
	u := &repository.User{
		ID:             uuid.NewString(),
		PublicID:       identity.Derive(in.DateOfBirth, in.PhoneNumber, now),
		Email:          in.Email,
		CredentialHash: hash,
		Role:           repository.RoleMember,
		Provider:       repository.ProviderLocal,
		IsVerified:     false,
		TOTPSecretEnc:  secretEnc,
		Name:           in.Name,
		Gender:         gender,
		DateOfBirth:    in.DateOfBirth,
		PhoneNumber:    in.PhoneNumber,
		AvatarURL:      avatarURL(in.Gender, in.Name),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Incluye la colisión (improbable) del publicId derivado.
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	sess, err := s.openSession(ctx, u)
	if err != nil {
		return nil, err
	}
	sess.EnrollmentURI = totp.OTPAuthURL(s.TOTPIssuer, u.Email, secretB32)
	audit.Event("user_registered", map[string]any{
		"user_id":   u.ID,
		"public_id": u.PublicID,
		"email":     util.MaskEmail(u.Email),
	})
	return sess, nil
}

// Login acepta publicId o email más password. Un fallo de lookup y un
// password incorrecto producen el mismo ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, id, pass string) (*LoginResult, error) {
	id = strings.TrimSpace(id)
	if id == "" || pass == "" {
		return nil, fmt.Errorf("%w: missing fields", ErrValidation)
	}

	var (
		u   *repository.User
		err error
	)
	if strings.Contains(id, "@") {
		u, err = s.Users.GetByEmail(ctx, strings.ToLower(id))
	} else {
		u, err = s.Users.GetByPublicID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: lookup: %w", err)
	}
	if u.CredentialHash == "" || !password.Verify(pass, u.CredentialHash) {
		audit.Event("login_failed", map[string]any{"user_id": u.ID})
		return nil, ErrInvalidCredentials
	}

	return s.finishLogin(ctx, u)
}

// finishLogin corta a challenge MFA si el usuario lo exige; si no, abre
// sesión directo.
func (s *Service) finishLogin(ctx context.Context, u *repository.User) (*LoginResult, error) {
	if u.TOTPRequired {
		ch, _, err := s.Issuer.Issue(u.ID, string(u.Role), scopeMFA, challengeTTL)
		if err != nil {
			return nil, fmt.Errorf("login: challenge: %w", err)
		}
		return &LoginResult{MFARequired: true, ChallengeToken: ch}, nil
	}
	sess, err := s.openSession(ctx, u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Session: sess}, nil
}

// CompleteTOTP es el segundo paso del login con MFA: challenge + código.
func (s *Service) CompleteTOTP(ctx context.Context, challengeToken, code string) (*Session, error) {
	claims, err := s.Issuer.Verify(challengeToken)
	if err != nil || claims.Scope != scopeMFA {
		return nil, ErrInvalidOrExpiredToken
	}
	u, err := s.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, ErrInvalidOrExpiredToken
	}
	if err := s.checkTOTP(u, code); err != nil {
		return nil, err
	}
	return s.openSession(ctx, u)
}

// VerifyTOTP chequea un código contra el secreto del usuario autenticado.
// Sin lockout ni backoff: el fallo es terminal por request.
func (s *Service) VerifyTOTP(ctx context.Context, userID, code string) error {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.checkTOTP(u, code)
}

// EnableTOTP exige un código válido antes de prender el gate de login.
func (s *Service) EnableTOTP(ctx context.Context, userID, code string) error {
	if err := s.VerifyTOTP(ctx, userID, code); err != nil {
		return err
	}
	return s.Users.SetTOTPRequired(ctx, userID, true)
}

// EnrollmentURI reconstruye el otpauth:// del usuario para re-mostrar el QR.
func (s *Service) EnrollmentURI(ctx context.Context, userID string) (string, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if u.TOTPSecretEnc == "" {
		return "", ErrNotFound
	}
	secretB32, err := s.Box.Decrypt(u.TOTPSecretEnc)
	if err != nil {
		return "", fmt.Errorf("totp: decrypt secret: %w", err)
	}
	return totp.OTPAuthURL(s.TOTPIssuer, u.Email, secretB32), nil
}

func (s *Service) checkTOTP(u *repository.User, code string) error {
	if u.TOTPSecretEnc == "" {
		return ErrInvalidCode
	}
	secretB32, err := s.Box.Decrypt(u.TOTPSecretEnc)
	if err != nil {
		return fmt.Errorf("totp: decrypt secret: %w", err)
	}
	raw, err := totp.DecodeSecret(secretB32)
	if err != nil {
		return fmt.Errorf("totp: decode secret: %w", err)
	}
	if !totp.Verify(raw, code, s.now(), 1) {
		return ErrInvalidCode
	}
	return nil
}

// RefreshAccess canjea un refresh token por un access token nuevo. El
// refresh NO rota: se reemite solo el access (diseño actual).
// Inexistente, revocado y vencido devuelven la misma falla.
func (s *Service) RefreshAccess(ctx context.Context, rawToken string) (string, time.Time, error) {
	if rawToken == "" {
		return "", time.Time{}, fmt.Errorf("%w: missing token", ErrValidation)
	}
	rec, err := s.Refresh.GetByHash(ctx, tokens.SHA256Base64URL(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, ErrInvalidOrExpiredToken
		}
		return "", time.Time{}, fmt.Errorf("refresh: lookup: %w", err)
	}
	if !rec.Usable(s.now()) {
		return "", time.Time{}, ErrInvalidOrExpiredToken
	}
	u, err := s.Users.GetByID(ctx, rec.UserID)
	if err != nil {
		return "", time.Time{}, ErrInvalidOrExpiredToken
	}
	access, exp, err := s.Issuer.IssueAccess(u.ID, string(u.Role))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("refresh: issue: %w", err)
	}
	return access, exp, nil
}

// RevokeRefresh es el logout-everywhere: marca revocado el registro.
func (s *Service) RevokeRefresh(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return fmt.Errorf("%w: missing token", ErrValidation)
	}
	err := s.Refresh.Revoke(ctx, tokens.SHA256Base64URL(rawToken))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err == nil {
		audit.Event("refresh_revoked", nil)
	}
	return err
}

// Federated resuelve un sign-in google/github: login si la identidad ya
// existe, merge por email verificado, o alta automática. Idempotente:
// repetir con el mismo subject nunca duplica cuentas.
func (s *Service) Federated(ctx context.Context, provider repository.Provider, providerToken string) (*LoginResult, error) {
	v, ok := s.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", ErrValidation, provider)
	}
	if strings.TrimSpace(providerToken) == "" {
		return nil, fmt.Errorf("%w: missing provider token", ErrValidation)
	}
	ident, err := v.Verify(ctx, providerToken)
	if err != nil {
		log.Printf(`{"level":"warn","msg":"federated_verify_failed","provider":"%s","err":"%v"}`, provider, err)
		return nil, ErrInvalidCredentials
	}

	// 1. Por subject federado
	u, err := s.Users.GetByFederatedSubject(ctx, provider, ident.SubjectID)
	if err == nil {
		return s.finishLogin(ctx, u)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("federated: lookup subject: %w", err)
	}

	// 2. Merge por email: cuenta local preexistente queda linkeada al
	// proveedor (política documentada en DESIGN.md). Solo con email
	// verificado por el proveedor.
	if ident.EmailVerified {
		if u, err = s.Users.GetByEmail(ctx, ident.Email); err == nil {
			if err := s.Users.LinkFederated(ctx, u.ID, provider, ident.SubjectID); err != nil {
				return nil, fmt.Errorf("federated: link: %w", err)
			}
			audit.Event("federated_linked", map[string]any{
				"user_id":  u.ID,
				"provider": string(provider),
				"email":    util.MaskEmail(u.Email),
			})
			u.Provider = provider
			u.FederatedSubjectID = ident.SubjectID
			return s.finishLogin(ctx, u)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("federated: lookup email: %w", err)
		}
	}

	// 3. Alta automática: verificada por construcción, sin password,
	// secreto TOTP provisionado igual que en el registro local.
	now := s.now()
	_, secretB32, err := totp.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("federated: totp secret: %w", err)
	}
	secretEnc, err := s.Box.Encrypt(secretB32)
	if err != nil {
		return nil, fmt.Errorf("federated: encrypt: %w", err)
	}
	nu := &repository.User{
		ID: uuid.NewString(),
		// Sin dob/teléfono: el subject del proveedor alimenta la derivación.
		PublicID:           identity.Derive("", ident.SubjectID, now),
		Email:              ident.Email,
		Role:               repository.RoleMember,
		Provider:           provider,
		FederatedSubjectID: ident.SubjectID,
		IsVerified:         true,
		TOTPSecretEnc:      secretEnc,
		Name:               ident.Name,
		AvatarURL:          ident.AvatarURL,
	}
	if err := s.Users.Create(ctx, nu); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Carrera con otro sign-in del mismo subject: re-leer y loguear.
			if u, lerr := s.Users.GetByFederatedSubject(ctx, provider, ident.SubjectID); lerr == nil {
				return s.finishLogin(ctx, u)
			}
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("federated: create: %w", err)
	}
	audit.Event("federated_provisioned", map[string]any{
		"user_id":  nu.ID,
		"provider": string(provider),
	})
	return s.finishLogin(ctx, nu)
}

// CreateResetToken genera el token de reset (crudo, retornado una sola
// vez) y dispara el mail best-effort.
func (s *Service) CreateResetToken(ctx context.Context, userID string) (string, *repository.PasswordResetToken, error) {
	if userID == "" {
		return "", nil, fmt.Errorf("%w: missing userId", ErrValidation)
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrNotFound
		}
		return "", nil, fmt.Errorf("reset create: lookup: %w", err)
	}

	raw, err := tokens.GenerateOpaqueToken(opaqueTokenSize)
	if err != nil {
		return "", nil, fmt.Errorf("reset create: random: %w", err)
	}
	rec := &repository.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenHash: tokens.SHA256Base64URL(raw),
		ExpiresAt: s.now().Add(resetTokenTTL),
	}
	if err := s.Resets.Create(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("reset create: persist: %w", err)
	}
	if s.Mailer != nil {
		go s.Mailer.SendPasswordReset(u.Email, raw)
	}
	audit.Event("reset_token_created", map[string]any{
		"user_id": u.ID,
		"email":   util.MaskEmail(u.Email),
	})
	return raw, rec, nil
}

// VerifyResetToken es read-only: valida sin consumir.
func (s *Service) VerifyResetToken(ctx context.Context, rawToken string) error {
	_, err := s.loadUsableReset(ctx, rawToken)
	return err
}

// UseResetToken consume el token y aplica el password nuevo. Orden: se
// marca usado DESPUÉS de grabar la credencial; si grabar falla, el token
// sigue consumible.
func (s *Service) UseResetToken(ctx context.Context, rawToken, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: missing newPassword", ErrValidation)
	}
	if ok, reasons := s.Policy.Validate(newPassword); !ok {
		return fmt.Errorf("%w: weak password (%s)", ErrValidation, strings.Join(reasons, ","))
	}
	rec, err := s.loadUsableReset(ctx, rawToken)
	if err != nil {
		return err
	}

	// Costo más alto que el registro: el path de reset es el más sensible.
	hash, err := password.Hash(newPassword, password.ResetCost)
	if err != nil {
		return fmt.Errorf("reset use: hash: %w", err)
	}
	if err := s.Users.UpdateCredentialHash(ctx, rec.UserID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("reset use: update credential: %w", err)
	}
	if err := s.Resets.MarkUsed(ctx, rec.ID); err != nil {
		// La credencial ya cambió; el token queda técnicamente vivo pero
		// reutilizarlo solo re-aplica un password elegido por el dueño.
		log.Printf(`{"level":"error","msg":"reset_mark_used_err","token_id":"%s","err":"%v"}`, rec.ID, err)
		return fmt.Errorf("reset use: mark used: %w", err)
	}
	audit.Event("password_reset_done", map[string]any{"user_id": rec.UserID})
	return nil
}

func (s *Service) loadUsableReset(ctx context.Context, rawToken string) (*repository.PasswordResetToken, error) {
	if rawToken == "" {
		return nil, fmt.Errorf("%w: missing token", ErrValidation)
	}
	rec, err := s.Resets.GetByHash(ctx, tokens.SHA256Base64URL(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reset: lookup: %w", err)
	}
	if rec.Used {
		return nil, ErrTokenUsed
	}
	if !s.now().Before(rec.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return rec, nil
}

// openSession emite el par access+refresh y persiste el hash del refresh.
// El upsert pisa cualquier sesión previa del usuario: una sola viva.
func (s *Service) openSession(ctx context.Context, u *repository.User) (*Session, error) {
	access, accessExp, err := s.Issuer.IssueAccess(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("session: issue access: %w", err)
	}
	refresh, refreshExp, err := s.Issuer.IssueRefresh(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("session: issue refresh: %w", err)
	}
	if err := s.Refresh.Upsert(ctx, u.ID, tokens.SHA256Base64URL(refresh), refreshExp); err != nil {
		return nil, fmt.Errorf("session: persist refresh: %w", err)
	}
	return &Session{
		User:           u,
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
	}, nil
}

// avatarURL replica la convención del frontend original para el avatar
// por defecto.
func avatarURL(gender, name string) string {
	label := "girl"
	if strings.EqualFold(gender, "male") {
		label = "boy"
	}
	return fmt.Sprintf("https://avatar.iran.liara.run/public/%s?username=%s", label, strings.ReplaceAll(name, " ", ""))
}
