// Package github verifica access tokens de GitHub. GitHub no emite ID
// tokens: la identidad sale de la API con el token del usuario.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/tasknest/internal/oauth"
)

const (
	userEndpoint  = "https://api.github.com/user"
	emailEndpoint = "https://api.github.com/user/emails"
)

// OAuth consulta la API de GitHub con el access token presentado.
type OAuth struct {
	http *http.Client
}

func New() *OAuth {
	return &OAuth{http: &http.Client{Timeout: 10 * time.Second}}
}

type userInfo struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type emailInfo struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Verify valida el access token contra la API y devuelve la identidad.
func (g *OAuth) Verify(ctx context.Context, accessToken string) (*oauth.Identity, error) {
	var info userInfo
	if err := g.get(ctx, userEndpoint, accessToken, &info); err != nil {
		return nil, err
	}
	if info.ID == 0 {
		return nil, fmt.Errorf("github: empty user id")
	}

	email := info.Email
	verified := false
	if email == "" {
		// Algunos usuarios tienen el email privado: va por la API de emails.
		var emails []emailInfo
		if err := g.get(ctx, emailEndpoint, accessToken, &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					email, verified = e.Email, true
					break
				}
			}
			if email == "" {
				for _, e := range emails {
					if e.Verified {
						email, verified = e.Email, true
						break
					}
				}
			}
		}
	}
	if email == "" {
		return nil, fmt.Errorf("github: no email available")
	}

	name := info.Name
	if name == "" {
		name = info.Login
	}
	return &oauth.Identity{
		SubjectID:     fmt.Sprintf("%d", info.ID),
		Email:         strings.ToLower(email),
		EmailVerified: verified || info.Email != "",
		Name:          name,
		AvatarURL:     info.AvatarURL,
	}, nil
}

func (g *OAuth) get(ctx context.Context, endpoint, accessToken string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api error: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
