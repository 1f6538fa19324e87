package api

import (
	"golang.org/x/time/rate"

	log "github.com/sirupsen/logrus"

	"loadnav/internal/config"
	"loadnav/internal/store"
)

// Server bundles the dependencies of the HTTP surface.
type Server struct {
	Store   store.Store
	Broker  EventBroker
	Cfg     config.Config
	limiter *rate.Limiter
}

// NewServer creates a Server. Without DATABASE_URL the in-memory store
// is used; without REDIS_URL progress events stay in-process.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if cfg.DatabaseURL == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s = sp
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		rb, err := NewRedisBroker(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("redis broker unavailable, falling back to in-process")
			broker = NewBroker()
		} else {
			broker = rb
		}
	} else {
		broker = NewBroker()
	}

	perMin := cfg.SolveRatePerMin
	if perMin <= 0 {
		perMin = 30
	}
	burst := cfg.SolveBurst
	if burst <= 0 {
		burst = 5
	}

	return &Server{
		Store:   s,
		Broker:  broker,
		Cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(float64(perMin)/60), burst),
	}, nil
}
