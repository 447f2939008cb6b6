package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/gamenight/backend/internal/models"
)

// SnapshotSource collects the state of a session.
type SnapshotSource interface {
	Snapshot(ctx context.Context, sessionID int) (models.SessionSnapshot, error)
}

// Storage persists archive documents and returns their location.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Config controls the concurrency and layout of the archiver.
type Config struct {
	QueueSize int
	Workers   int
	Prefix    string
}

// Archiver asynchronously writes snapshots of ended sessions to storage.
type Archiver struct {
	storage Storage
	prefix  string
	logger  *slog.Logger

	mu     sync.RWMutex
	source SnapshotSource

	closeMu sync.RWMutex
	jobs    chan int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

var (
	// ErrArchiverClosed is returned by Enqueue after Shutdown.
	ErrArchiverClosed = errors.New("session archiver closed")
	// ErrQueueFull is returned by Enqueue when every queue slot is taken.
	ErrQueueFull = errors.New("session archive queue full")
)

// New starts a worker pool archiving sessions. The snapshot source is attached
// later with SetSource because it usually depends on the archiver itself.
func New(storage Storage, cfg Config, logger *slog.Logger) *Archiver {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &Archiver{
		storage: storage,
		prefix:  cfg.Prefix,
		logger:  logger,
		jobs:    make(chan int, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	a.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go a.worker()
	}

	return a
}

// SetSource attaches the snapshot source used by the workers.
func (a *Archiver) SetSource(source SnapshotSource) {
	a.mu.Lock()
	a.source = source
	a.mu.Unlock()
}

// Enqueue schedules the archive of an ended session. It never waits for a
// worker: when the queue is full the session is dropped with ErrQueueFull.
func (a *Archiver) Enqueue(ctx context.Context, sessionID int) error {
	a.closeMu.RLock()
	defer a.closeMu.RUnlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-a.ctx.Done():
		return ErrArchiverClosed
	default:
	}

	select {
	case a.jobs <- sessionID:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops accepting work and waits for queued archives to be written.
func (a *Archiver) Shutdown(ctx context.Context) error {
	a.once.Do(func() {
		a.cancel()
		a.closeMu.Lock()
		close(a.jobs)
		a.closeMu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// ObjectName returns the storage key used for a session archive.
func (a *Archiver) ObjectName(sessionID int) string {
	return path.Join(a.prefix, fmt.Sprintf("session-%d.json", sessionID))
}

func (a *Archiver) worker() {
	defer a.wg.Done()

	for sessionID := range a.jobs {
		a.handleJob(sessionID)
	}
}

func (a *Archiver) handleJob(sessionID int) {
	a.mu.RLock()
	source := a.source
	a.mu.RUnlock()

	if source == nil || a.storage == nil {
		a.logger.Error("session archiver missing dependencies", "hasSource", source != nil, "hasStorage", a.storage != nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snapshot, err := source.Snapshot(ctx, sessionID)
	if err != nil {
		a.logger.Error("collect session snapshot", "sessionId", sessionID, "error", err)
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		a.logger.Error("encode session snapshot", "sessionId", sessionID, "error", err)
		return
	}

	location, err := a.storage.Save(ctx, a.ObjectName(sessionID), bytes.NewReader(payload))
	if err != nil {
		a.logger.Error("store session snapshot", "sessionId", sessionID, "error", err)
		return
	}

	a.logger.Info("session archived", "sessionId", sessionID, "location", location, "bytes", len(payload))
}
