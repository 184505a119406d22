package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

type Options struct {
	// AllowedOrigins enables CORS for these origins. "*" allows any origin
	// but without cookies or auth headers; empty disables CORS.
	AllowedOrigins []string
	// TrustedProxies lists proxy IPs/CIDRs whose forwarding headers are believed.
	TrustedProxies []string
	// LoginRPS bounds /auth requests per client IP. Zero disables the limit.
	LoginRPS int
}

type Server struct {
	mux   *chi.Mux
	limit func(http.Handler) http.Handler
}

func New(opts Options) *Server {
	m := chi.NewRouter()

	trusted, err := ParseTrustedProxies(opts.TrustedProxies)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring TRUSTED_PROXIES, forwarding headers will not be trusted")
		trusted = nil
	}

	// middlewares go before any route
	m.Use(ClientIP(trusted))
	m.Use(chimw.RequestID)
	m.Use(chimw.Recoverer)
	if origins, credentials := corsOrigins(opts.AllowedOrigins); len(origins) > 0 {
		m.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match"},
			ExposedHeaders:   []string{"ETag"},
			AllowCredentials: credentials,
			MaxAge:           300,
		}))
	}
	m.Use(Timeout(15 * time.Second))
	m.Use(Metrics)
	m.Use(Logger(log.Logger))

	limit := func(next http.Handler) http.Handler { return next }
	if opts.LoginRPS > 0 {
		limit = RateLimit(opts.LoginRPS, opts.LoginRPS)
	}
	return &Server{mux: m, limit: limit}
}

// corsOrigins drops blanks and reports whether credentials may be allowed:
// never together with the "*" wildcard.
func corsOrigins(in []string) ([]string, bool) {
	var out []string
	wildcard := false
	for _, o := range in {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			wildcard = true
		}
		out = append(out, o)
	}
	if wildcard {
		log.Warn().Msg("CORS allows any origin, credentialed cross-origin requests are disabled")
	}
	return out, !wildcard
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
