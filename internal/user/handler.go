package user

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/render"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user/entity"
)

// Handler exposes the users resource.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// CreateRequest is the POST body.
type CreateRequest struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// UpdateRequest is the PUT body; absent fields are left unchanged.
type UpdateRequest struct {
	Email    *string       `json:"email"`
	Password *string       `json:"password"`
	Roles    *entity.Roles `json:"roles"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.IsClientError(err) {
		h.logger.Debugw("users request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		h.logger.Errorw("users request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	render.Error(w, r, err)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if err := auth.Authorize(auth.PrincipalFrom(r.Context()), auth.Users, auth.List, 0); err != nil {
		h.fail(w, r, err)
		return
	}
	users, err := h.svc.List(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Respond(w, r, http.StatusOK, NewCollectionDocument(users))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if err := auth.Authorize(auth.PrincipalFrom(r.Context()), auth.Users, auth.Get, 0); err != nil {
		h.fail(w, r, err)
		return
	}
	id, ok := render.PathID(r)
	if !ok {
		h.fail(w, r, apperr.ErrNotFound)
		return
	}
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Respond(w, r, http.StatusOK, Document{User: NewView(*u)})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := auth.Authorize(auth.PrincipalFrom(r.Context()), auth.Users, auth.Create, 0); err != nil {
		h.fail(w, r, err)
		return
	}
	var req CreateRequest
	if err := render.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, apperr.ErrUnprocessable)
		return
	}
	in := CreateInput{Email: req.Email, Password: req.Password}
	if req.Roles != nil {
		in.Roles = entity.Roles(req.Roles)
	}
	u, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Infow("user created", "id", u.ID)
	render.Created(w, r, ItemPath(u.ID), Document{User: NewView(*u)})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	id, ok := render.PathID(r)
	if !ok {
		h.fail(w, r, apperr.ErrNotFound)
		return
	}
	if err := auth.Authorize(p, auth.Users, auth.Update, id); err != nil {
		h.fail(w, r, err)
		return
	}
	// an unknown id is 404 whatever the body holds
	if _, err := h.svc.Get(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	var req UpdateRequest
	if err := render.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.svc.Update(r.Context(), p, id, UpdateInput{Email: req.Email, Password: req.Password, Roles: req.Roles})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Respond(w, r, render.StatusContentReturned, Document{User: NewView(*u)})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := auth.Authorize(auth.PrincipalFrom(r.Context()), auth.Users, auth.Delete, 0); err != nil {
		h.fail(w, r, err)
		return
	}
	id, ok := render.PathID(r)
	if !ok {
		h.fail(w, r, apperr.ErrNotFound)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Infow("user deleted", "id", id)
	render.NoContent(w)
}

func (h *Handler) OptionsCollection(w http.ResponseWriter, r *http.Request) {
	render.Options(w, http.MethodGet, http.MethodPost, http.MethodOptions)
}

func (h *Handler) OptionsItem(w http.ResponseWriter, r *http.Request) {
	if _, ok := render.PathID(r); !ok {
		render.Error(w, r, apperr.ErrNotFound)
		return
	}
	render.Options(w, http.MethodGet, http.MethodPut, http.MethodDelete, http.MethodOptions)
}
