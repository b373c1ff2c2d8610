package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/saferent-network/saferent/internal/api"
	"github.com/saferent-network/saferent/internal/app/ledger"
	"github.com/saferent-network/saferent/internal/app/requests"
	"github.com/saferent-network/saferent/internal/app/validation"
	"github.com/saferent-network/saferent/internal/infra/signer"
	"github.com/saferent-network/saferent/internal/infra/sqlite"
)

// Daemon is the running SafeRent service.
type Daemon struct {
	cfg    Config
	db     *sqlite.DB
	server *http.Server
}

// New opens storage, loads the signing key, replays the ledger, and
// wires the API server. Nothing listens yet; call Run for that.
func New(cfg Config) (*Daemon, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	auth, err := signer.LoadFile(cfg.Validator.KeyFile)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load signing key (run 'saferent keygen' first): %w", err)
	}

	chain, err := ledger.Open(db, auth, cfg.Validator.Name)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	store := requests.NewStore(db)
	notices := validation.NewNotices(db)
	engine := validation.NewEngine(store, chain, notices, cfg.Validator.AccessKey)

	srv := api.NewServer(store, engine, notices, chain)
	if cfg.Metrics.Enabled {
		srv.EnableMetrics()
	}

	length, err := chain.Length()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	log.Printf("[daemon] ledger open: %d blocks, validator %q, key %s",
		length, cfg.Validator.Name, chain.PublicKeyHex()[:16])

	return &Daemon{
		cfg: cfg,
		db:  db,
		server: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      srv.Handler(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}, nil
}

// Run serves the API until ctx is cancelled or SIGINT/SIGTERM arrives,
// then shuts down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[daemon] listening on http://%s", d.cfg.Addr())
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		d.db.Close()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Printf("[daemon] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.db.Close()
		return fmt.Errorf("shutdown: %w", err)
	}
	return d.db.Close()
}
