// Package jwt emite y valida los tokens de sesión (HS256, clave simétrica
// de proceso). El access token es stateless a propósito: la revocación vive
// entera en la capa de refresh tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Errores de verificación. El caller decide cuánto de esto expone.
var (
	ErrExpired     = errors.New("jwt: expired")
	ErrNotYetValid = errors.New("jwt: not yet valid")
	ErrMalformed   = errors.New("jwt: malformed or bad signature")
)

// Claims son las claims propias que viajan en cada token de sesión.
type Claims struct {
	Subject  string // ID interno del usuario
	Role     string // "Admin" | "Member"
	IssuedAt time.Time
	Expiry   time.Time
	Scope    string // "" para sesión normal; "mfa" para el challenge TOTP
}

// Issuer firma tokens con la clave simétrica del proceso.
// La clave se inyecta una vez en el arranque; nunca por request.
type Issuer struct {
	Iss        string
	Secret     []byte
	AccessTTL  time.Duration // default 1h
	RefreshTTL time.Duration // default 30d
}

func NewIssuer(iss string, secret []byte) *Issuer {
	return &Issuer{
		Iss:        iss,
		Secret:     secret,
		AccessTTL:  time.Hour,
		RefreshTTL: 30 * 24 * time.Hour,
	}
}

// Issue firma un token con TTL explícito.
func (i *Issuer) Issue(sub, role, scope string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwtv5.MapClaims{
		"iss":  i.Iss,
		"sub":  sub,
		"role": role,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  exp.Unix(),
	}
	if scope != "" {
		claims["scope"] = scope
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign: %w", err)
	}
	return signed, exp, nil
}

// IssueAccess emite el access token corto (default 1h).
func (i *Issuer) IssueAccess(sub, role string) (string, time.Time, error) {
	return i.Issue(sub, role, "", i.AccessTTL)
}

// IssueRefresh emite el refresh token largo (default 30d). Solo su hash
// SHA-256 se persiste.
func (i *Issuer) IssueRefresh(sub, role string) (string, time.Time, error) {
	return i.Issue(sub, role, "", i.RefreshTTL)
}

// Verify valida firma, iss y ventana temporal. Distingue Expired /
// NotYetValid / Malformed para que el middleware responda acorde.
func (i *Issuer) Verify(token string) (*Claims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) { return i.Secret, nil }
	tok, err := jwtv5.Parse(token, keyfunc,
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithIssuer(i.Iss),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwtv5.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwtv5.ErrTokenNotValidYet):
			return nil, ErrNotYetValid
		default:
			return nil, ErrMalformed
		}
	}
	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}

	c := &Claims{}
	c.Subject, _ = mc["sub"].(string)
	c.Role, _ = mc["role"].(string)
	c.Scope, _ = mc["scope"].(string)
	if f, ok := mc["iat"].(float64); ok {
		c.IssuedAt = time.Unix(int64(f), 0).UTC()
	}
	if f, ok := mc["exp"].(float64); ok {
		c.Expiry = time.Unix(int64(f), 0).UTC()
	}
	if c.Subject == "" {
		return nil, ErrMalformed
	}
	return c, nil
}
