package handlers

import (
	"net/http"

	"github.com/dropDatabas3/tasknest/internal/app"
	"github.com/dropDatabas3/tasknest/internal/auth"
	httpx "github.com/dropDatabas3/tasknest/internal/http"
)

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"dateOfBirth"`
}

// Register maneja POST /v1/auth/register.
func Register(c *app.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !httpx.ReadJSON(w, r, &req) {
			return
		}
		sess, err := c.Auth.Register(r.Context(), auth.RegisterInput{
			Name:        req.Name,
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
			Gender:      req.Gender,
			DateOfBirth: req.DateOfBirth,
		})
		if err != nil {
			httpx.CountAuthFlow("register", "failure")
			writeServiceError(w, err)
			return
		}
		httpx.CountAuthFlow("register", "success")
		writeSession(w, c, http.StatusCreated, "usuario registrado", sess)
	}
}
