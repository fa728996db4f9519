// Package login serves the credential check that hands out bearer tokens.
package login

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/render"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
)

const Path = "/api/v1/login_check"

// TokenHeader duplicates the issued token for clients that read headers.
const TokenHeader = "X-Token"

const maxBody = 64 << 10

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*entity.User, error)
}

type Issuer interface {
	Issue(u entity.User) (string, error)
}

type Handler struct {
	users  Authenticator
	tokens Issuer
	logger *zap.SugaredLogger
}

func NewHandler(users Authenticator, tokens Issuer, logger *zap.SugaredLogger) *Handler {
	return &Handler{users: users, tokens: tokens, logger: logger}
}

// TokenResponse is the success body.
type TokenResponse struct {
	Token string `json:"token"`
}

type credentials struct {
	Email    string
	Password string
}

// readCredentials accepts a form body, a JSON object, or a raw
// key=value&key=value body, in that order of precedence.
func readCredentials(r *http.Request) (credentials, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return credentials{}, err
	}
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/x-www-form-urlencoded" {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return credentials{}, err
		}
		return credentials{Email: values.Get("email"), Password: values.Get("password")}, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil && obj != nil {
		email, _ := obj["email"].(string)
		password, _ := obj["password"].(string)
		return credentials{Email: email, Password: password}, nil
	}
	return rawCredentials(string(body)), nil
}

// rawCredentials splits a key=value&key=value body by hand; malformed pairs
// are skipped.
func rawCredentials(body string) credentials {
	var c credentials
	for _, pair := range strings.Split(body, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		decoded, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		switch key {
		case "email":
			c.Email = decoded
		case "password":
			c.Password = decoded
		}
	}
	return c
}

func (h *Handler) LoginCheck(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		h.logger.Debugw("unreadable login body", "err", err)
		render.Error(w, r, apperr.ErrUnauthenticated)
		return
	}
	u, err := h.users.Authenticate(r.Context(), creds.Email, creds.Password)
	if err != nil {
		if !apperr.IsClientError(err) {
			h.logger.Errorw("login failed", "err", err)
			render.Error(w, r, err)
			return
		}
		h.logger.Debugw("bad credentials", "email", creds.Email)
		render.Error(w, r, apperr.ErrUnauthenticated)
		return
	}
	tok, err := h.tokens.Issue(*u)
	if err != nil {
		h.logger.Errorw("issue token", "err", err, "user_id", u.ID)
		render.Error(w, r, err)
		return
	}
	h.logger.Infow("user logged in", "user_id", u.ID)
	w.Header().Set(TokenHeader, tok)
	h.writeJSON(w, http.StatusOK, TokenResponse{Token: tok})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
