package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/tasknest/internal/domain/repository"
	"github.com/dropDatabas3/tasknest/internal/jwt"
	"github.com/dropDatabas3/tasknest/internal/oauth"
	"github.com/dropDatabas3/tasknest/internal/security/identity"
	"github.com/dropDatabas3/tasknest/internal/security/secretbox"
	"github.com/dropDatabas3/tasknest/internal/security/totp"
	"github.com/dropDatabas3/tasknest/internal/store/memory"
)

var t0 = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st := memory.New()
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	box, err := secretbox.New(key)
	if err != nil {
		t.Fatalf("secretbox: %v", err)
	}
	issuer := jwt.NewIssuer("tasknest-test", []byte("clave-simetrica-de-test-32bytes!"))
	svc := NewService(st.Users(), st.RefreshTokens(), st.ResetTokens(), issuer, box)
	svc.now = func() time.Time { return t0 }
	return svc
}

func validRegister() RegisterInput {
	return RegisterInput{
		Name:        "Ana García",
		Email:       "ana@example.com",
		Password:    "SuperSecreta1!",
		PhoneNumber: "5551234567",
		Gender:      "female",
		DateOfBirth: "1990-01-01",
	}
}

func TestRegister_DerivesPublicID(t *testing.T) {
	svc := newTestService(t)
	sess, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("Register err: %v", err)
	}
	want := identity.Derive("1990-01-01", "5551234567", t0)
	if sess.User.PublicID != want {
		t.Fatalf("publicId = %q, esperaba %q", sess.User.PublicID, want)
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Fatal("registro sin par de tokens")
	}
	if sess.EnrollmentURI == "" {
		t.Fatal("registro sin otpauth:// de enrolamiento")
	}
	if sess.User.CredentialHash == "" || sess.User.TOTPSecretEnc == "" {
		t.Fatal("usuario sin hash o sin secreto TOTP provisionado")
	}
	if sess.User.Role != repository.RoleMember {
		t.Fatalf("rol inicial = %v, esperaba Member", sess.User.Role)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(t)
	cases := []func(*RegisterInput){
		func(in *RegisterInput) { in.Email = "" },
		func(in *RegisterInput) { in.Email = "no-es-email" },
		func(in *RegisterInput) { in.DateOfBirth = "01/01/1990" },
		func(in *RegisterInput) { in.Gender = "robot" },
		func(in *RegisterInput) { in.Password = "corta" },
		func(in *RegisterInput) { in.PhoneNumber = "" },
	}
	for i, mutate := range cases {
		in := validRegister()
		mutate(&in)
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrValidation) {
			t.Fatalf("caso %d: esperaba ErrValidation, hubo %v", i, err)
		}
	}
}

func TestRegister_Conflicts(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Register(context.Background(), validRegister()); err != nil {
		t.Fatal(err)
	}

	// mismo email
	in := validRegister()
	in.PhoneNumber = "5559999999"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrConflict) {
		t.Fatalf("email repetido: esperaba ErrConflict, hubo %v", err)
	}

	// mismo teléfono
	in = validRegister()
	in.Email = "otra@example.com"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrConflict) {
		t.Fatalf("teléfono repetido: esperaba ErrConflict, hubo %v", err)
	}
}

func TestLogin_ByPublicIDAndEmail(t *testing.T) {
	svc := newTestService(t)
	reg, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}

	// iat tiene resolución de segundos: sin esto dos emisiones en el
	// mismo segundo serían byte a byte iguales
	time.Sleep(1100 * time.Millisecond)

	res, err := svc.Login(context.Background(), reg.User.PublicID, "SuperSecreta1!")
	if err != nil {
		t.Fatalf("login por publicId: %v", err)
	}
	if res.Session.User.ID != reg.User.ID {
		t.Fatal("login devolvió otro usuario")
	}
	if res.Session.AccessToken == reg.AccessToken {
		t.Fatal("el access token del login debería diferir del de registro")
	}

	if _, err := svc.Login(context.Background(), "ANA@example.com", "SuperSecreta1!"); err != nil {
		t.Fatalf("login por email (case-insensitive): %v", err)
	}
}

func TestLogin_CollapsedFailures(t *testing.T) {
	svc := newTestService(t)
	reg, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}

	// password incorrecto y usuario inexistente: misma salida
	if _, err := svc.Login(context.Background(), reg.User.PublicID, "incorrecta!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("password malo: esperaba ErrInvalidCredentials, hubo %v", err)
	}
	if _, err := svc.Login(context.Background(), "00000000", "SuperSecreta1!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("id desconocido: esperaba ErrInvalidCredentials, hubo %v", err)
	}
	if _, err := svc.Login(context.Background(), "nadie@example.com", "SuperSecreta1!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("email desconocido: esperaba ErrInvalidCredentials, hubo %v", err)
	}
}

func TestRefresh_OneLiveTokenPerUser(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Register(context.Background(), validRegister()); err != nil {
		t.Fatal(err)
	}

	a, err := svc.Login(context.Background(), "ana@example.com", "SuperSecreta1!")
	if err != nil {
		t.Fatal(err)
	}
	// iat con resolución de segundos: dos logins en el mismo segundo
	// emitirían refresh tokens idénticos
	time.Sleep(1100 * time.Millisecond)
	b, err := svc.Login(context.Background(), "ana@example.com", "SuperSecreta1!")
	if err != nil {
		t.Fatal(err)
	}

	// el segundo login pisa el hash: el refresh de A queda muerto
	if _, _, err := svc.RefreshAccess(context.Background(), a.Session.RefreshToken); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("refresh viejo: esperaba ErrInvalidOrExpiredToken, hubo %v", err)
	}
	access, _, err := svc.RefreshAccess(context.Background(), b.Session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh vigente: %v", err)
	}
	if access == "" {
		t.Fatal("refresh sin access token nuevo")
	}
	// el refresh NO rota: el mismo token sigue sirviendo
	if _, _, err := svc.RefreshAccess(context.Background(), b.Session.RefreshToken); err != nil {
		t.Fatalf("segundo canje del mismo refresh: %v", err)
	}
}

func TestRefresh_RevokedMissingSameFailure(t *testing.T) {
	svc := newTestService(t)
	reg, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.RevokeRefresh(context.Background(), reg.RefreshToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	// revocado e inexistente colapsan en la misma falla
	if _, _, err := svc.RefreshAccess(context.Background(), reg.RefreshToken); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("revocado: esperaba ErrInvalidOrExpiredToken, hubo %v", err)
	}
	if _, _, err := svc.RefreshAccess(context.Background(), "token-que-no-existe"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("inexistente: esperaba ErrInvalidOrExpiredToken, hubo %v", err)
	}

	if err := svc.RevokeRefresh(context.Background(), "token-que-no-existe"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("revoke inexistente: esperaba ErrNotFound, hubo %v", err)
	}
}

func TestPasswordReset_FullFlow(t *testing.T) {
	svc := newTestService(t)
	reg, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}

	raw, rec, err := svc.CreateResetToken(context.Background(), reg.User.ID)
	if err != nil {
		t.Fatalf("CreateResetToken: %v", err)
	}
	if rec.TokenHash == raw {
		t.Fatal("el hash persistido no puede ser el token crudo")
	}

	if err := svc.VerifyResetToken(context.Background(), raw); err != nil {
		t.Fatalf("verify (read-only): %v", err)
	}
	// verify no consume
	if err := svc.VerifyResetToken(context.Background(), raw); err != nil {
		t.Fatalf("segundo verify: %v", err)
	}

	if err := svc.UseResetToken(context.Background(), raw, "corta"); !errors.Is(err, ErrValidation) {
		t.Fatalf("password débil: esperaba ErrValidation, hubo %v", err)
	}
	if err := svc.UseResetToken(context.Background(), raw, "NuevaSecreta2!"); err != nil {
		t.Fatalf("use: %v", err)
	}

	// token consumido
	if err := svc.UseResetToken(context.Background(), raw, "OtraMas3!xxx"); !errors.Is(err, ErrTokenUsed) {
		t.Fatalf("re-uso: esperaba ErrTokenUsed, hubo %v", err)
	}
	if err := svc.VerifyResetToken(context.Background(), raw); !errors.Is(err, ErrTokenUsed) {
		t.Fatalf("verify tras uso: esperaba ErrTokenUsed, hubo %v", err)
	}

	// password viejo muerto, nuevo vivo
	if _, err := svc.Login(context.Background(), "ana@example.com", "SuperSecreta1!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("password viejo: esperaba ErrInvalidCredentials, hubo %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana@example.com", "NuevaSecreta2!"); err != nil {
		t.Fatalf("password nuevo: %v", err)
	}
}

func TestPasswordReset_Expiry(t *testing.T) {
	svc := newTestService(t)
	reg, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}
	raw, _, err := svc.CreateResetToken(context.Background(), reg.User.ID)
	if err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return t0.Add(2 * time.Hour) }
	if err := svc.VerifyResetToken(context.Background(), raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("esperaba ErrTokenExpired, hubo %v", err)
	}
	if err := svc.UseResetToken(context.Background(), raw, "NuevaSecreta2!"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("use vencido: esperaba ErrTokenExpired, hubo %v", err)
	}
}

func TestPasswordReset_UnknownInputs(t *testing.T) {
	svc := newTestService(t)
	if _, _, err := svc.CreateResetToken(context.Background(), "user-inexistente"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperaba ErrNotFound, hubo %v", err)
	}
	if err := svc.VerifyResetToken(context.Background(), "token-inexistente"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperaba ErrNotFound, hubo %v", err)
	}
}

// ─── Federated ───

type fakeVerifier struct {
	ident oauth.Identity
	err   error
}

func (f fakeVerifier) Verify(ctx context.Context, providerToken string) (*oauth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	ident := f.ident
	return &ident, nil
}

func TestFederated_Idempotent(t *testing.T) {
	svc := newTestService(t)
	svc.Providers[repository.ProviderGoogle] = fakeVerifier{ident: oauth.Identity{
		SubjectID:     "goog-123",
		Email:         "ana@example.com",
		EmailVerified: true,
		Name:          "Ana García",
	}}

	a, err := svc.Federated(context.Background(), repository.ProviderGoogle, "tok")
	if err != nil {
		t.Fatalf("primer sign-in: %v", err)
	}
	if !a.Session.User.IsVerified || a.Session.User.Provider != repository.ProviderGoogle {
		t.Fatalf("alta federada mal formada: %+v", a.Session.User)
	}

	b, err := svc.Federated(context.Background(), repository.ProviderGoogle, "tok")
	if err != nil {
		t.Fatalf("segundo sign-in: %v", err)
	}
	if a.Session.User.ID != b.Session.User.ID {
		t.Fatal("el mismo subject creó dos cuentas")
	}
}

func TestFederated_MergeByVerifiedEmail(t *testing.T) {
	svc := newTestService(t)
	reg, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}
	svc.Providers[repository.ProviderGithub] = fakeVerifier{ident: oauth.Identity{
		SubjectID:     "gh-77",
		Email:         "ana@example.com",
		EmailVerified: true,
	}}

	res, err := svc.Federated(context.Background(), repository.ProviderGithub, "tok")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Session.User.ID != reg.User.ID {
		t.Fatal("el merge por email debería linkear la cuenta local, no crear otra")
	}
	// y el password local sigue funcionando
	if _, err := svc.Login(context.Background(), "ana@example.com", "SuperSecreta1!"); err != nil {
		t.Fatalf("login local tras merge: %v", err)
	}
}

func TestFederated_UnverifiedEmailNoMerge(t *testing.T) {
	svc := newTestService(t)
	reg, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}
	svc.Providers[repository.ProviderGithub] = fakeVerifier{ident: oauth.Identity{
		SubjectID:     "gh-88",
		Email:         "sin-verificar@example.com",
		EmailVerified: false,
	}}

	res, err := svc.Federated(context.Background(), repository.ProviderGithub, "tok")
	if err != nil {
		t.Fatalf("alta: %v", err)
	}
	if res.Session.User.ID == reg.User.ID {
		t.Fatal("email sin verificar no debe mergear con la cuenta local")
	}
}

func TestFederated_VerifierFailure(t *testing.T) {
	svc := newTestService(t)
	svc.Providers[repository.ProviderGoogle] = fakeVerifier{err: errors.New("token inválido")}
	if _, err := svc.Federated(context.Background(), repository.ProviderGoogle, "tok"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("esperaba ErrInvalidCredentials, hubo %v", err)
	}
	if _, err := svc.Federated(context.Background(), "facebook", "tok"); !errors.Is(err, ErrValidation) {
		t.Fatalf("provider desconocido: esperaba ErrValidation, hubo %v", err)
	}
}

// ─── TOTP ───

// userCode calcula el código vigente del usuario desencriptando el
// secreto, igual que haría una app authenticator.
func userCode(t *testing.T, svc *Service, u *repository.User) string {
	t.Helper()
	b32, err := svc.Box.Decrypt(u.TOTPSecretEnc)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	raw, err := totp.DecodeSecret(b32)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return totp.Code(raw, svc.now())
}

func TestVerifyTOTP(t *testing.T) {
	svc := newTestService(t)
	reg, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.VerifyTOTP(context.Background(), reg.User.ID, userCode(t, svc, reg.User)); err != nil {
		t.Fatalf("código correcto rechazado: %v", err)
	}
	if err := svc.VerifyTOTP(context.Background(), reg.User.ID, "000001"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("esperaba ErrInvalidCode, hubo %v", err)
	}
}

func TestEnableTOTP_GatesLogin(t *testing.T) {
	svc := newTestService(t)
	reg, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}

	// enable exige código válido
	if err := svc.EnableTOTP(context.Background(), reg.User.ID, "000001"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("enable con código malo: esperaba ErrInvalidCode, hubo %v", err)
	}
	if err := svc.EnableTOTP(context.Background(), reg.User.ID, userCode(t, svc, reg.User)); err != nil {
		t.Fatalf("enable: %v", err)
	}

	// con el gate prendido el login devuelve challenge, no tokens
	res, err := svc.Login(context.Background(), "ana@example.com", "SuperSecreta1!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.MFARequired || res.Session != nil || res.ChallengeToken == "" {
		t.Fatalf("esperaba challenge MFA, hubo %+v", res)
	}

	// completar con challenge + código abre sesión
	sess, err := svc.CompleteTOTP(context.Background(), res.ChallengeToken, userCode(t, svc, reg.User))
	if err != nil {
		t.Fatalf("CompleteTOTP: %v", err)
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Fatal("sesión incompleta tras el segundo factor")
	}

	// un access token normal no sirve como challenge (scope distinto)
	if _, err := svc.CompleteTOTP(context.Background(), sess.AccessToken, userCode(t, svc, reg.User)); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("access como challenge: esperaba ErrInvalidOrExpiredToken, hubo %v", err)
	}
}

func TestEnrollmentURI(t *testing.T) {
	svc := newTestService(t)
	reg, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatal(err)
	}
	uri, err := svc.EnrollmentURI(context.Background(), reg.User.ID)
	if err != nil {
		t.Fatalf("EnrollmentURI: %v", err)
	}
	if uri != reg.EnrollmentURI {
		t.Fatalf("URI reconstruido difiere: %q vs %q", uri, reg.EnrollmentURI)
	}
}
