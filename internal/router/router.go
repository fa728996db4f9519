package router

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/login"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/render"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/result"
	resultrepo "github.com/ovaphlow/pitchfork/service-results-go/internal/result/repo"
	"github.com/ovaphlow/pitchfork/service-results-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-results-go/internal/user/repo"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	DB     *sqlx.DB
	Tokens *auth.TokenService
	// Hasher defaults to argon2id with the standard parameters.
	Hasher user.PasswordHasher
}

type resource interface {
	List(http.ResponseWriter, *http.Request)
	Get(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	Update(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
	OptionsCollection(http.ResponseWriter, *http.Request)
	OptionsItem(http.ResponseWriter, *http.Request)
}

// mount registers a collection at base, base.json and base.xml and its
// items at base/{id}. Everything but OPTIONS requires a bearer token.
func mount(mux *http.ServeMux, base string, h resource, v auth.Verifier) {
	for _, p := range []string{base, base + ".json", base + ".xml"} {
		mux.HandleFunc("GET "+p, auth.Required(v, h.List))
		mux.HandleFunc("POST "+p, auth.Required(v, h.Create))
		mux.HandleFunc("OPTIONS "+p, h.OptionsCollection)
	}
	item := base + "/{id}"
	mux.HandleFunc("GET "+item, auth.Required(v, h.Get))
	mux.HandleFunc("PUT "+item, auth.Required(v, h.Update))
	mux.HandleFunc("DELETE "+item, auth.Required(v, h.Delete))
	mux.HandleFunc("OPTIONS "+item, h.OptionsItem)
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, deps Deps) http.Handler {
	mux := http.NewServeMux()

	users := userrepo.NewUserRepo(deps.DB)
	userSvc := user.NewUserService(users, deps.Hasher).WithLogger(logger)
	resultSvc := result.NewResultService(resultrepo.NewResultRepo(deps.DB), users)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := deps.DB.PingContext(ctx); err != nil {
			logger.Warnw("health check failed", "err", err)
			render.Status(w, r, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST "+login.Path, login.NewHandler(userSvc, deps.Tokens, logger).LoginCheck)
	mount(mux, user.BasePath, user.NewHandler(userSvc, logger), deps.Tokens)
	mount(mux, result.BasePath, result.NewHandler(resultSvc, logger), deps.Tokens)

	// unknown paths and format suffixes
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		render.Status(w, r, http.StatusNotFound)
	})

	return RequestIDMiddleware()(
		LoggingMiddleware(logger)(
			RecoverMiddleware(logger)(
				SecurityHeadersMiddleware()(mux))))
}
