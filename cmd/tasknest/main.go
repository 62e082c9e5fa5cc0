// tasknest es el cliente de línea de comandos del servicio: operaciones
// de auth contra la API HTTP, pensado para smoke tests y soporte.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL     string
	AccessToken string
	OutFormat   string // "json" | "text"
	HTTP        *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func (c *client) post(path string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	status, body, err := c.do("POST", path, b)
	if err != nil {
		return err
	}
	c.print(status, body)
	if status >= 400 {
		return fmt.Errorf("status=%d", status)
	}
	return nil
}

func main() {
	var (
		baseURL = envOr("TASKNEST_URL", "http://localhost:8080")
		token   = envOr("TASKNEST_TOKEN", "")
		out     = envOr("TASKNEST_OUT", "text")
	)

	cl := &client{
		BaseURL:   baseURL,
		OutFormat: out,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}

	root := &cobra.Command{
		Use:   "tasknest",
		Short: "CLI para la API de TaskNest",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.BaseURL = baseURL
			cl.AccessToken = token
			cl.OutFormat = out
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base de la API (env TASKNEST_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "access token Bearer (env TASKNEST_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "formato de salida: json|text")

	// ping
	root.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Chequea /healthz",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/healthz", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	})

	// login
	var loginPass string
	loginCmd := &cobra.Command{
		Use:   "login <publicId|email>",
		Short: "Login con publicId o email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.post("/v1/auth/login", map[string]string{
				"id":       args[0],
				"password": loginPass,
			})
		},
	}
	loginCmd.Flags().StringVarP(&loginPass, "password", "p", "", "password")
	_ = loginCmd.MarkFlagRequired("password")
	root.AddCommand(loginCmd)

	// me
	root.AddCommand(&cobra.Command{
		Use:   "me",
		Short: "Usuario autenticado actual",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/v1/me", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	})

	// reset: grupo del flujo de password reset
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Flujo de password reset",
	}
	resetCmd.AddCommand(&cobra.Command{
		Use:   "create <userId>",
		Short: "Crea un reset token para el usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.post("/v1/auth/password-reset-token", map[string]string{"userId": args[0]})
		},
	})
	resetCmd.AddCommand(&cobra.Command{
		Use:   "verify <token>",
		Short: "Verifica un reset token sin consumirlo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.post("/v1/auth/verify-password-reset-token", map[string]string{"token": args[0]})
		},
	})
	var newPass string
	useCmd := &cobra.Command{
		Use:   "use <token>",
		Short: "Consume un reset token y aplica el password nuevo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.post("/v1/auth/use-password-reset-token", map[string]string{
				"token":       args[0],
				"newPassword": newPass,
			})
		},
	}
	useCmd.Flags().StringVarP(&newPass, "password", "p", "", "password nuevo")
	_ = useCmd.MarkFlagRequired("password")
	resetCmd.AddCommand(useCmd)
	root.AddCommand(resetCmd)

	// revoke
	root.AddCommand(&cobra.Command{
		Use:   "revoke <refreshToken>",
		Short: "Revoca un refresh token (logout everywhere)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.post("/v1/auth/revoke-refresh-token", map[string]string{"token": args[0]})
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
