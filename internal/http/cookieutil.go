package http

import (
	"net/http"
	"time"
)

// RefreshCookieName es la cookie donde viaja el refresh token. Nunca va
// en el body de la respuesta.
const RefreshCookieName = "refreshToken"

// BuildRefreshCookie arma la cookie del refresh token: httpOnly,
// SameSite=Strict y Secure (configurable para ambientes http://localhost).
func BuildRefreshCookie(value string, secure bool, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().UTC().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// BuildDeletionCookie devuelve una cookie que "borra" el refresh del
// browser. Mismos flags para que el user-agent la sobreescriba.
func BuildDeletionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(), // pasado
		MaxAge:   -1,                    // eliminar
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
