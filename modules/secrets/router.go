package secrets

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/saasadmin/handler"
	"github.com/dmitrymomot/saasadmin/pkg/binder"
	secretssvc "github.com/dmitrymomot/saasadmin/svc/secrets"
)

// Store is the secret store as seen by the HTTP layer.
type Store interface {
	SaveSecret(ctx context.Context, in secretssvc.Input) (string, error)
	GetSecret(ctx context.Context, name string) (*secretssvc.View, error)
	GetAllSecrets(ctx context.Context) ([]secretssvc.View, error)
	SecretExists(ctx context.Context, name string) (bool, error)
	DeleteSecret(ctx context.Context, name string) error
}

// Module serves the tenant secret endpoints. Responses carry plaintext
// tokens and are never cached.
type Module struct {
	store        Store
	errorHandler handler.ErrorHandler
}

func New(store Store, log *slog.Logger) *Module {
	return &Module{
		store:        store,
		errorHandler: handler.NewErrorHandler(log, MapError),
	}
}

func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(noStore)

	r.Get("/", handler.Wrap(m.list,
		handler.WithErrorHandler[struct{}](m.errorHandler),
	))
	r.Post("/upsert", handler.Wrap(m.upsert,
		handler.WithBinders[secretssvc.Input](binder.JSON(), binder.Validate()),
		handler.WithErrorHandler[secretssvc.Input](m.errorHandler),
	))
	r.Get("/check/{name}", handler.Wrap(m.check,
		handler.WithBinders[NameRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[NameRequest](m.errorHandler),
	))
	r.Get("/{name}", handler.Wrap(m.get,
		handler.WithBinders[NameRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[NameRequest](m.errorHandler),
	))
	r.Delete("/{name}", handler.Wrap(m.delete,
		handler.WithBinders[NameRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[NameRequest](m.errorHandler),
	))

	return r
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

type NameRequest struct {
	Name string `path:"name"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

func (m *Module) list(ctx handler.Context, _ struct{}) handler.Response {
	secrets, err := m.store.GetAllSecrets(ctx)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(secrets)
}

func (m *Module) upsert(ctx handler.Context, in secretssvc.Input) handler.Response {
	if _, err := m.store.SaveSecret(ctx, in); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(MessageResponse{Message: "Secret saved successfully"}, handler.WithJSONStatus(http.StatusCreated))
}

func (m *Module) check(ctx handler.Context, req NameRequest) handler.Response {
	exists, err := m.store.SecretExists(ctx, req.Name)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(ExistsResponse{Exists: exists})
}

func (m *Module) get(ctx handler.Context, req NameRequest) handler.Response {
	secret, err := m.store.GetSecret(ctx, req.Name)
	if err != nil {
		return handler.Error(err)
	}
	if secret == nil {
		return handler.Error(secretssvc.ErrSecretNotFound)
	}
	return handler.JSON(secret)
}

func (m *Module) delete(ctx handler.Context, req NameRequest) handler.Response {
	if err := m.store.DeleteSecret(ctx, req.Name); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}
