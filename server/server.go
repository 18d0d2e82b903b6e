// Package server exposes grocery sessions over HTTP.
//
// Every cart and order route acts on the session named by the X-Session-ID
// header. A request without the header starts a new session; its id is
// returned in the same header.
//
//	GET    /health
//	GET    /catalog[?q=query]
//	GET    /sessions
//	DELETE /session               ends the session named by X-Session-ID
//	GET    /cart
//	DELETE /cart
//	POST   /cart/items            {"item": "milk", "quantity": 2}
//	PUT    /cart/items/{item}     {"quantity": 3}
//	DELETE /cart/items/{item}
//	POST   /recipes/{name}
//	POST   /orders                {"name": "...", "address": "..."}
//	GET    /orders
//	GET    /orders/{id}
//	GET    /orders/{id}/status
//	POST   /chat                  {"text": "add 2 milk"}
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/grocerymesh/catalog"
	"github.com/hupe1980/grocerymesh/logging"
	"github.com/hupe1980/grocerymesh/session"
)

const tracerName = "github.com/hupe1980/grocerymesh/server"

// Options configure a Server.
type Options struct {
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
	Logger         logging.Logger
}

// Server routes HTTP requests to session engines.
type Server struct {
	sessions *session.Registry
	catalog  *catalog.Catalog
	tracer   trace.Tracer
	logger   logging.Logger
	router   *mux.Router
}

// New builds a server over a session registry and the shared catalog.
func New(sessions *session.Registry, cat *catalog.Catalog, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}

	s := &Server{
		sessions: sessions,
		catalog:  cat,
		tracer:   opts.TracerProvider.Tracer(tracerName),
		logger:   opts.Logger,
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware, s.traceMiddleware)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/catalog", s.listCatalog).Methods(http.MethodGet)
	r.HandleFunc("/sessions", s.listSessions).Methods(http.MethodGet)
	r.HandleFunc("/session", s.deleteSession).Methods(http.MethodDelete)

	api := r.NewRoute().Subrouter()
	api.Use(s.sessionMiddleware)
	api.HandleFunc("/cart", s.getCart).Methods(http.MethodGet)
	api.HandleFunc("/cart", s.clearCart).Methods(http.MethodDelete)
	api.HandleFunc("/cart/items", s.addItem).Methods(http.MethodPost)
	api.HandleFunc("/cart/items/{item}", s.updateItem).Methods(http.MethodPut)
	api.HandleFunc("/cart/items/{item}", s.removeItem).Methods(http.MethodDelete)
	api.HandleFunc("/recipes/{name}", s.expandRecipe).Methods(http.MethodPost)
	api.HandleFunc("/orders", s.placeOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", s.listOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", s.trackOrder).Methods(http.MethodGet)
	api.HandleFunc("/chat", s.chat).Methods(http.MethodPost)

	return r
}
