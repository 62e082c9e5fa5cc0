package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/tasknest/internal/domain/repository"
	"github.com/dropDatabas3/tasknest/internal/jwt"
)

type ctxKey int

const userKey ctxKey = iota

// UserFrom devuelve el usuario autenticado que dejó el middleware Auth.
func UserFrom(ctx context.Context) (*repository.User, bool) {
	u, ok := ctx.Value(userKey).(*repository.User)
	return u, ok
}

// WithRequestID asigna un request id y lo expone en el header de salida.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithAccessLog loguea método, path, status y latencia por request.
func WithAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Printf(`{"level":"info","msg":"http_request","method":"%s","path":"%s","status":%d,"dur_ms":%d,"request_id":"%s"}`,
			r.Method, r.URL.Path, rec.status, time.Since(start).Milliseconds(), w.Header().Get("X-Request-ID"))
	})
}

// Auth exige un access token válido en Authorization: Bearer (canal
// canónico único; el fallback por cookie/body del diseño previo quedó
// afuera a propósito). Carga el usuario y lo deja en el contexto.
func Auth(issuer *jwt.Issuer, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				WriteError(w, http.StatusUnauthorized, "token_missing", "token no provisto")
				return
			}
			claims, err := issuer.Verify(raw)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrExpired):
					WriteError(w, http.StatusUnauthorized, "token_expired", "el token expiró")
				case errors.Is(err, jwt.ErrNotYetValid):
					WriteError(w, http.StatusUnauthorized, "token_not_active", "el token todavía no es válido")
				default:
					WriteError(w, http.StatusUnauthorized, "invalid_token", "token inválido")
				}
				return
			}
			// Un challenge MFA no autoriza requests normales.
			if claims.Scope != "" {
				WriteError(w, http.StatusUnauthorized, "invalid_token", "token inválido")
				return
			}
			u, err := users.GetByID(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					WriteError(w, http.StatusNotFound, "user_not_found", "usuario no encontrado")
					return
				}
				log.Printf(`{"level":"error","msg":"auth_user_load_err","err":"%v"}`, err)
				WriteError(w, http.StatusInternalServerError, "internal_error", "error interno")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
		})
	}
}

// RequireAdmin corta con 403 si el usuario autenticado no es Admin.
// El chequeo de capacidad vive en el enum de rol, no repartido por rutas.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFrom(r.Context())
		if !ok || !u.Role.CanManageProjects() {
			WriteError(w, http.StatusForbidden, "forbidden", "se requiere rol Admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extrae el token del header Authorization, si hay.
func BearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" {
		return ""
	}
	// tolerante a "bearer xxx" (case-insensitive)
	if i := strings.IndexByte(ah, ' '); i > 0 && strings.EqualFold(ah[:i], "Bearer") {
		return strings.TrimSpace(ah[i+1:])
	}
	return ""
}
