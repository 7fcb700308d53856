package mainserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evidenceledger/proxybid/internal/authn"
	"github.com/evidenceledger/proxybid/internal/bidconfig"
	"github.com/evidenceledger/proxybid/internal/bidserver"
	"github.com/evidenceledger/proxybid/internal/cache"
	"github.com/evidenceledger/proxybid/internal/courtclient"
	"github.com/evidenceledger/proxybid/internal/courts"
	"github.com/evidenceledger/proxybid/internal/database"
	"github.com/evidenceledger/proxybid/internal/payment"
	"github.com/evidenceledger/proxybid/internal/sealbox"
	"github.com/evidenceledger/proxybid/internal/submission"
	"github.com/evidenceledger/proxybid/internal/wizard"
	"github.com/redis/go-redis/v9"
)

const (
	janitorInterval = time.Minute

	// Templates edited in a checkout are picked up without rebuilding, only in development
	devTemplateDir = "internal/bidserver/views"
)

// Server owns the database, the shared cache and the HTTP server
type Server struct {
	cfg       *bidconfig.Config
	db        *database.Database
	cache     *cache.Cache
	redis     *redis.Client
	bidServer *bidserver.Server
}

// New wires all the services from the configuration.
// The database is opened here but its tables are created in Start.
func New(ctx context.Context, cfg *bidconfig.Config) (*Server, error) {

	// Create a global in-memory cache, used for case lookups, key sets and wizards
	c := cache.New(cfg.LookupCacheTTL)

	db := database.New(database.Config{
		Driver: cfg.DatabaseDriver,
		DSN:    cfg.DatabaseDSN,
	})

	dir, err := courts.Load()
	if err != nil {
		return nil, fmt.Errorf("loading court directory: %w", err)
	}

	s := &Server{cfg: cfg, db: db, cache: c}

	// Wizards live in Redis when configured, so that they survive restarts
	var wizards wizard.Store
	if cfg.RedisURL != "" {
		client, err := wizard.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s.redis = client
		wizards = wizard.NewRedisStore(client, cfg.WizardTTL)
		slog.Info("Wizard state stored in Redis")
	} else {
		wizards = wizard.NewMemoryStore(c, cfg.WizardTTL)
		slog.Info("Wizard state stored in memory")
	}

	box, err := sealbox.New(cfg.SealSecret)
	if err != nil {
		return nil, err
	}

	verifier, err := authn.NewVerifier(authn.Config{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		HMACSecret: cfg.AuthHMACSecret,
		JWKSURL:    cfg.AuthJWKSURL,
	}, c)
	if err != nil {
		return nil, err
	}

	client := courtclient.New(courtclient.Config{
		BaseURL:      cfg.CourtBaseURL,
		CaseTimeout:  cfg.CourtCaseTimeout,
		ImageTimeout: cfg.CourtImageTimeout,
	})

	s.bidServer, err = bidserver.New(bidserver.Config{
		Port:           cfg.Port,
		Development:    cfg.Development,
		AdminPassword:  cfg.AdminPassword,
		LookupCacheTTL: cfg.LookupCacheTTL,
		TemplateDir:    templateDir(cfg.Development),
	}, bidserver.Deps{
		Courts:      dir,
		Client:      client,
		Store:       db,
		Wizards:     wizards,
		Submissions: submission.NewService(db, box, dir),
		Verifier:    verifier,
		Payment: payment.New(payment.Config{
			ServiceFee:    cfg.PaymentServiceFee,
			Bank:          cfg.PaymentBank,
			AccountNumber: cfg.PaymentAccount,
			AccountHolder: cfg.PaymentHolder,
			PayURL:        cfg.PaymentURL,
		}),
		Cache: c,
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Start initializes the database and serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {

	if s.db == nil || s.bidServer == nil {
		return errors.New("server not initialized")
	}

	if err := s.db.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer s.close()

	stop := make(chan struct{})
	defer close(stop)
	s.cache.StartJanitor(janitorInterval, stop)

	slog.Info("Server started",
		"port", s.cfg.Port,
		"database", s.cfg.DatabaseDriver,
		"court", s.cfg.CourtBaseURL,
		"development", s.cfg.Development)

	if err := s.bidServer.Start(ctx); err != nil {
		return fmt.Errorf("proxybid server failed: %w", err)
	}

	slog.Info("Shutting down server")
	return nil
}

// templateDir returns the external template directory, or "" to use the embedded templates
func templateDir(development bool) string {
	if development {
		return devTemplateDir
	}
	return ""
}

func (s *Server) close() {
	if err := s.db.Close(); err != nil {
		slog.Error("Closing database", "error", err)
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Error("Closing redis", "error", err)
		}
	}
}
