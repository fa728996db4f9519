package result

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/render"
)

// Handler exposes the results resource.
type Handler struct {
	svc    *ResultService
	logger *zap.SugaredLogger
}

func NewHandler(svc *ResultService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Request is the POST and PUT body. On POST result and user are required.
type Request struct {
	Result *int64  `json:"result"`
	User   *int64  `json:"user"`
	Time   *string `json:"time"`
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.IsClientError(err) {
		h.logger.Debugw("results request rejected", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		h.logger.Errorw("results request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	render.Error(w, r, err)
}

// authorize runs the policy and, for item routes, parses the id.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, act auth.Action, item bool) (int64, bool) {
	if err := auth.Authorize(auth.PrincipalFrom(r.Context()), auth.Results, act, 0); err != nil {
		h.fail(w, r, err)
		return 0, false
	}
	if !item {
		return 0, true
	}
	id, ok := render.PathID(r)
	if !ok {
		h.fail(w, r, apperr.ErrNotFound)
		return 0, false
	}
	return id, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.List, false); !ok {
		return
	}
	results, err := h.svc.List(r.Context(), r.URL.Query().Get("sort"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Respond(w, r, http.StatusOK, NewCollectionDocument(results))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, auth.Get, true)
	if !ok {
		return
	}
	res, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Respond(w, r, http.StatusOK, Document{Result: NewView(*res)})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.Create, false); !ok {
		return
	}
	var req Request
	if err := render.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, apperr.ErrUnprocessable)
		return
	}
	res, err := h.svc.Create(r.Context(), CreateInput{Value: req.Result, UserID: req.User, Time: req.Time})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Infow("result created", "id", res.ID, "user_id", res.UserID)
	render.Created(w, r, ItemPath(res.ID), Document{Result: NewView(*res)})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, auth.Update, true)
	if !ok {
		return
	}
	if _, err := h.svc.Get(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	var req Request
	if err := render.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Update(r.Context(), id, UpdateInput{Value: req.Result, UserID: req.User, Time: req.Time})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Respond(w, r, render.StatusContentReturned, Document{Result: NewView(*res)})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, auth.Delete, true)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.Infow("result deleted", "id", id)
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
