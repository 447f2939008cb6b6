package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gamenight/backend/internal/archive"
	"github.com/gamenight/backend/internal/config"
	"github.com/gamenight/backend/internal/db"
	"github.com/gamenight/backend/internal/friends"
	"github.com/gamenight/backend/internal/handlers"
	"github.com/gamenight/backend/internal/middleware"
	"github.com/gamenight/backend/internal/models"
	"github.com/gamenight/backend/internal/repositories"
	"github.com/gamenight/backend/internal/sessions"
	"github.com/gamenight/backend/internal/storage"
)

// rateLimitIdleWindows is how many rate limit windows a client bucket may stay
// unused before it is dropped.
const rateLimitIdleWindows = 10

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. pool may be nil, in which case the friend directory lives in memory
// and the demo friends and sessions are seeded. The returned cleanup stops
// background workers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	trusted, err := cfg.RateLimit.TrustedPrefixes()
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	participants := repositories.NewMemoryParticipationStore()
	sessionStore := repositories.NewMemorySessionStore(participants)
	invitations := repositories.NewMemoryInvitationStore(cfg.InvitationTTL)

	var directory repositories.FriendDirectory
	if pool != nil {
		directory = repositories.NewPostgresFriendDirectory(pool)
	} else {
		directory = repositories.NewMemoryFriendDirectory(repositories.DemoFriends...)
		if err := seedDemoSessions(ctx, sessionStore, participants); err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("seed demo sessions: %w", err)
		}
	}
	directory = friends.NewCachingDirectory(directory, cfg.FriendCacheTTL)

	var (
		archiver       sessions.Archiver
		sessionArchive *archive.Archiver
	)
	if cfg.Archive.Enabled() {
		store, err := storage.NewS3Storage(ctx, cfg.Archive)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure session archive: %w", err)
		}
		sessionArchive = archive.New(store, archive.Config{
			QueueSize: cfg.Archive.QueueSize,
			Workers:   cfg.Archive.Workers,
			Prefix:    cfg.Archive.Prefix,
		}, logger)
		archiver = sessionArchive
	}

	coordinator := sessions.NewCoordinator(sessions.Stores{
		Friends:      directory,
		Sessions:     sessionStore,
		Participants: participants,
		Invitations:  invitations,
	}, archiver)
	if sessionArchive != nil {
		sessionArchive.SetSource(coordinator)
	}

	sweeper := sessions.NewSweeper(coordinator, cfg.InvitationSweepInterval, logger)

	cleanup := func(ctx context.Context) error {
		var errs []error
		if err := sweeper.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop invitation sweeper: %w", err))
		}
		if sessionArchive != nil {
			if err := sessionArchive.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("stop session archiver: %w", err))
			}
		}
		return errors.Join(errs...)
	}

	deps := handlers.Dependencies{
		Coordinator: coordinator,
		Sessions:    sessionStore,
		Invitations: invitations,
		Friends:     directory,
		RateLimiter: middleware.NewIPRateLimiter(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Window,
			cfg.RateLimit.Burst,
			rateLimitIdleWindows*cfg.RateLimit.Window,
		),
		TrustedProxies: trusted,
	}
	return deps, cleanup, nil
}

// seedDemoSessions gives a database-less server something to show: an active
// session hosted by the first two demo friends and an ended one.
func seedDemoSessions(ctx context.Context, sessions *repositories.MemorySessionStore, participants *repositories.MemoryParticipationStore) error {
	active, err := sessions.Create(ctx, models.GameSession{Name: "Friday board games", CreatorID: 1})
	if err != nil {
		return err
	}
	for _, friendID := range []int{1, 2} {
		if _, err := participants.Add(ctx, models.SessionFriend{
			SessionID: active.ID,
			FriendID:  friendID,
			Status:    models.ParticipantPrimary,
		}); err != nil {
			return err
		}
	}

	ended, err := sessions.Create(ctx, models.GameSession{Name: "Last week's campaign", CreatorID: 2})
	if err != nil {
		return err
	}
	_, err = sessions.End(ctx, ended.ID)
	return err
}
