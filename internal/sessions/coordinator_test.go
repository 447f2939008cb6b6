package sessions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamenight/backend/internal/models"
	"github.com/gamenight/backend/internal/repositories"
)

type fixture struct {
	coordinator  *Coordinator
	friends      *repositories.MemoryFriendDirectory
	sessions     *repositories.MemorySessionStore
	participants *repositories.MemoryParticipationStore
	invitations  *repositories.MemoryInvitationStore
	archiver     *archiverStub
	now          time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

type archiverStub struct {
	mu       sync.Mutex
	sessions []int
	err      error
	gate     chan struct{}
}

func (a *archiverStub) Enqueue(_ context.Context, sessionID int) error {
	if a.gate != nil {
		<-a.gate
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions = append(a.sessions, sessionID)
	return a.err
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		friends: repositories.NewMemoryFriendDirectory(append(repositories.DemoFriends,
			models.Friend{ID: 4, Name: "Dana"},
			models.Friend{ID: 5, Name: "Eve"},
		)...),
		participants: repositories.NewMemoryParticipationStore(),
		invitations:  repositories.NewMemoryInvitationStore(0),
		archiver:     &archiverStub{},
		now:          time.Date(2024, time.March, 1, 20, 0, 0, 0, time.UTC),
	}
	f.sessions = repositories.NewMemorySessionStore(f.participants)

	clock := func() time.Time { return f.now }
	f.sessions.WithNowFunc(clock)
	f.participants.WithNowFunc(clock)
	f.invitations.WithNowFunc(clock)

	f.coordinator = NewCoordinator(Stores{
		Friends:      f.friends,
		Sessions:     f.sessions,
		Participants: f.participants,
		Invitations:  f.invitations,
	}, f.archiver)
	f.coordinator.now = clock
	return f
}

func (f *fixture) createSession(t *testing.T, creatorID int, initial ...int) models.GameSession {
	t.Helper()
	details, err := f.coordinator.CreateSession(context.Background(), CreateSessionInput{
		Name:             "Game Night",
		CreatorID:        creatorID,
		InitialFriendIDs: initial,
	})
	require.NoError(t, err)
	return details.Session
}

func TestCreateSessionSkipsUnknownFriends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	details, err := f.coordinator.CreateSession(ctx, CreateSessionInput{
		Name:             "Game Night",
		CreatorID:        1,
		InitialFriendIDs: []int{2, 42},
	})
	require.NoError(t, err)

	assert.True(t, details.Session.IsActive)
	assert.Nil(t, details.Session.EndedAt)
	require.Len(t, details.Participants, 2)

	count, err := f.coordinator.CountActive(ctx, details.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	creator, err := f.participants.GetBySessionAndFriend(ctx, details.Session.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantPrimary, creator.Status)
}

func TestCreateSessionSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session := f.createSession(t, 1, 1, 2, 2, 3)

	count, err := f.participants.CountActive(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCreateSessionSkipsInvalidFriendIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	session := f.createSession(t, 1, 2, 0, -3)

	count, err := f.participants.CountActive(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCreateSessionRequiresCreator(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.coordinator.CreateSession(ctx, CreateSessionInput{Name: "Game Night", CreatorID: 42})
	require.ErrorIs(t, err, ErrCreatorNotFound)
	require.ErrorIs(t, err, repositories.ErrInvalidArgument)

	all, err := f.sessions.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1, 2)

	inv, err := f.coordinator.InviteFriend(ctx, session.ID, InviteInput{FriendID: 3, InvitedByID: 1})
	require.NoError(t, err)

	f.advance(time.Hour)
	ended, err := f.coordinator.EndSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, f.now, *ended.EndedAt)

	cancelled, err := f.invitations.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationCancelled, cancelled.Status)
	assert.Equal(t, []int{session.ID}, f.archiver.sessions)

	f.advance(time.Hour)
	_, err = f.coordinator.EndSession(ctx, session.ID)
	require.ErrorIs(t, err, ErrSessionAlreadyEnded)

	stored, err := f.coordinator.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, *ended.EndedAt, *stored.EndedAt)

	_, err = f.coordinator.EndSession(ctx, 99)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEndSessionArchiveFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.archiver.err = errors.New("queue full")
	session := f.createSession(t, 1)

	_, err := f.coordinator.EndSession(context.Background(), session.ID)
	require.NoError(t, err)
}

func TestEndSessionReleasesLockBeforeArchiving(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ending := f.createSession(t, 1)
	other := f.createSession(t, 2)
	f.archiver.gate = make(chan struct{})

	ended := make(chan error, 1)
	go func() {
		_, err := f.coordinator.EndSession(ctx, ending.ID)
		ended <- err
	}()

	added := make(chan error, 1)
	go func() {
		_, err := f.coordinator.AddFriend(ctx, other.ID, AddFriendInput{FriendID: 3, Status: models.ParticipantObserver})
		added <- err
	}()

	select {
	case err := <-added:
		require.NoError(t, err)
	case <-time.After(time.Second):
		close(f.archiver.gate)
		t.Fatal("AddFriend waited behind the archive hand-off")
	}

	close(f.archiver.gate)
	require.NoError(t, <-ended)
	assert.Equal(t, []int{ending.ID}, f.archiver.sessions)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1)

	require.NoError(t, f.coordinator.DeleteSession(ctx, session.ID))
	require.ErrorIs(t, f.coordinator.DeleteSession(ctx, session.ID), ErrSessionNotFound)
}

func TestAddFriendSecondaryRecordsAcceptedInvitation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1)

	participant, err := f.coordinator.AddFriend(ctx, session.ID, AddFriendInput{FriendID: 2, Message: "join us"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", participant.Friend.Name)
	assert.Equal(t, models.ParticipantSecondary, participant.Status)
	assert.True(t, participant.IsActive)
	assert.Equal(t, f.now, participant.JoinedAt)

	invitations, err := f.invitations.GetBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, invitations, 1)
	assert.Equal(t, models.InvitationAccepted, invitations[0].Status)
	assert.Equal(t, 1, invitations[0].InvitedByID)
	assert.Equal(t, "join us", invitations[0].Message)
	assert.NotNil(t, invitations[0].RespondedAt)
}

func TestAddFriendObserverSkipsInvitation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1)

	participant, err := f.coordinator.AddFriend(ctx, session.ID, AddFriendInput{FriendID: 3, Status: models.ParticipantObserver})
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantObserver, participant.Status)

	invitations, err := f.invitations.GetBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, invitations)
}

func TestAddFriendToEndedSessionLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1)
	_, err := f.coordinator.EndSession(ctx, session.ID)
	require.NoError(t, err)

	before, err := f.participants.GetBySession(ctx, session.ID)
	require.NoError(t, err)

	_, err = f.coordinator.AddFriend(ctx, session.ID, AddFriendInput{FriendID: 5})
	require.ErrorIs(t, err, ErrSessionEnded)

	after, err := f.participants.GetBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAddFriendRejectsDuplicateParticipation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1)

	_, err := f.coordinator.AddFriend(ctx, session.ID, AddFriendInput{FriendID: 2})
	require.NoError(t, err)

	_, err = f.coordinator.AddFriend(ctx, session.ID, AddFriendInput{FriendID: 2})
	require.ErrorIs(t, err, ErrAlreadyParticipating)
	require.ErrorIs(t, err, repositories.ErrConflict)

	count, err := f.participants.CountActive(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = f.participants.Add(ctx, models.SessionFriend{SessionID: session.ID, FriendID: 2, Status: models.ParticipantSecondary})
	require.NoError(t, err, "the ledger itself performs no duplicate check")
}

func TestAddFriendConcurrentCallsAdmitOne(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coordinator.AddFriend(ctx, session.ID, AddFriendInput{FriendID: 2})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrAlreadyParticipating)
	}
	assert.Equal(t, 1, succeeded)
}

func TestAddFriendValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1)

	_, err := f.coordinator.InviteFriend(ctx, session.ID, InviteInput{FriendID: 3, InvitedByID: 1})
	require.NoError(t, err)

	cases := []struct {
		name      string
		sessionID int
		in        AddFriendInput
		want      error
	}{
		{"missingSession", 99, AddFriendInput{FriendID: 2}, ErrSessionNotFound},
		{"missingFriend", session.ID, AddFriendInput{FriendID: 42}, ErrFriendNotFound},
		{"creatorAlreadyJoined", session.ID, AddFriendInput{FriendID: 1}, ErrAlreadyParticipating},
		{"pendingInvitation", session.ID, AddFriendInput{FriendID: 3}, ErrPendingInvitation},
		{"unknownStatus", session.ID, AddFriendInput{FriendID: 2, Status: "host"}, ErrInvalidStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.coordinator.AddFriend(ctx, tc.sessionID, tc.in)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAddFriendAfterInvitationExpires(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1)

	inv, err := f.coordinator.InviteFriend(ctx, session.ID, InviteInput{FriendID: 3, InvitedByID: 1})
	require.NoError(t, err)

	f.advance(25 * time.Hour)

	_, err = f.coordinator.AddFriend(ctx, session.ID, AddFriendInput{FriendID: 3})
	require.NoError(t, err)

	expired, err := f.invitations.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationExpired, expired.Status)
}

func TestUpdateFriendStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1, 2)

	updated, err := f.coordinator.UpdateFriendStatus(ctx, session.ID, 2, models.ParticipantObserver)
	require.NoError(t, err)
	assert.Equal(t, models.ParticipantObserver, updated.Status)

	_, err = f.coordinator.UpdateFriendStatus(ctx, session.ID, 1, models.ParticipantSecondary)
	require.ErrorIs(t, err, ErrCreatorDemotion)

	_, err = f.coordinator.UpdateFriendStatus(ctx, session.ID, 3, models.ParticipantObserver)
	require.ErrorIs(t, err, ErrParticipantNotFound)

	_, err = f.coordinator.UpdateFriendStatus(ctx, 99, 2, models.ParticipantObserver)
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.coordinator.UpdateFriendStatus(ctx, session.ID, 2, "host")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRemoveFriend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1, 2)

	require.NoError(t, f.coordinator.RemoveFriend(ctx, session.ID, 2))

	participating, err := f.participants.IsParticipating(ctx, session.ID, 2)
	require.NoError(t, err)
	assert.False(t, participating)

	record, err := f.participants.GetBySessionAndFriend(ctx, session.ID, 2)
	require.NoError(t, err)
	assert.False(t, record.IsActive)

	require.ErrorIs(t, f.coordinator.RemoveFriend(ctx, session.ID, 3), ErrParticipantNotFound)
	require.ErrorIs(t, f.coordinator.RemoveFriend(ctx, 99, 2), ErrSessionNotFound)
}

func TestRemoveCreatorAlwaysFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1)

	err := f.coordinator.RemoveFriend(ctx, session.ID, 1)
	require.ErrorIs(t, err, ErrCreatorRemoval)
	assert.Equal(t, "the session creator cannot be removed from the session", err.Error())

	_, err = f.coordinator.EndSession(ctx, session.ID)
	require.NoError(t, err)
	require.ErrorIs(t, f.coordinator.RemoveFriend(ctx, session.ID, 1), ErrCreatorRemoval)

	participating, err := f.participants.IsParticipating(ctx, session.ID, 1)
	require.NoError(t, err)
	assert.True(t, participating)
}

func TestListParticipantsSkipsMissingFriends(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1, 2, 3)

	require.NoError(t, f.friends.Delete(ctx, 3))
	require.NoError(t, f.coordinator.RemoveFriend(ctx, session.ID, 2))

	participants, err := f.coordinator.ListParticipants(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, "Alice", participants[0].Friend.Name)
	assert.True(t, participants[0].IsActive)
	assert.Equal(t, "Bob", participants[1].Friend.Name)
	assert.False(t, participants[1].IsActive)

	_, err = f.coordinator.ListParticipants(ctx, 99)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.createSession(t, 1, 2)
	_, err := f.coordinator.AddFriend(ctx, session.ID, AddFriendInput{FriendID: 3})
	require.NoError(t, err)

	snapshot, err := f.coordinator.Snapshot(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, snapshot.Session.ID)
	assert.Len(t, snapshot.Participants, 3)
	assert.Len(t, snapshot.Invitations, 1)
	assert.Equal(t, f.now, snapshot.ArchivedAt)
}
