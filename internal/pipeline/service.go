package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/citeshield/internal/chunker"
	"github.com/dgallion1/citeshield/internal/document"
	"github.com/dgallion1/citeshield/internal/progress"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Options configure a Service.
type Options struct {
	Chunk           chunker.Config
	OverviewLimit   int
	SessionTTL      time.Duration
	CleanupInterval time.Duration
	Observer        progress.Observer
}

// Service owns the live sessions and the janitor that expires them.
type Service struct {
	store *Store
	opts  Options
	log   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(opts Options, log *slog.Logger) *Service {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store: NewStore(opts.SessionTTL),
		opts:  opts,
		log:   log,
	}
}

// DefaultChunkConfig returns the chunk settings used when a caller does not
// override them.
func (s *Service) DefaultChunkConfig() chunker.Config {
	return s.opts.Chunk
}

// Open prepares a session for doc and registers it.
func (s *Service) Open(doc *document.Document, cfg chunker.Config) (*Session, error) {
	sess, err := Prepare(doc, cfg, s.opts.OverviewLimit, s.opts.Observer)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", doc.Name, err)
	}
	s.store.Put(sess)
	return sess, nil
}

func (s *Service) Get(id string) (*Session, error) {
	sess := s.store.Get(id)
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

func (s *Service) Delete(id string) error {
	if !s.store.Delete(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// Len returns the number of live sessions.
func (s *Service) Len() int {
	return s.store.Len()
}

// Start launches the session janitor.
func (s *Service) Start(ctx context.Context) {
	janitorCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-janitorCtx.Done():
				return
			case <-ticker.C:
				if n := s.store.Cleanup(); n > 0 {
					s.log.Info("expired sessions", "removed", n, "live", s.store.Len())
				}
			}
		}
	}()
}

// Stop halts the janitor and waits for it to exit.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
