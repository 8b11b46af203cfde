package meeting

import (
	"context"
	"errors"
	"huddle-backend/internal/models"
	"huddle-backend/internal/repository"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("connection reset by peer")

// flakyStore fails the next N calls of selected writes, then delegates to the memory store.
type flakyStore struct {
	*repository.MemoryStore

	mu                 sync.Mutex
	failActivate       int
	failEnd            int
	failAddParticipant int
}

func (s *flakyStore) fail(counter *int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *counter > 0 {
		*counter--
		return true
	}
	return false
}

func (s *flakyStore) ActivateMeeting(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	if s.fail(&s.failActivate) {
		return false, errStoreDown
	}
	return s.MemoryStore.ActivateMeeting(ctx, id, startedAt)
}

func (s *flakyStore) EndMeeting(ctx context.Context, id string, endedAt time.Time) (bool, error) {
	if s.fail(&s.failEnd) {
		return false, errStoreDown
	}
	return s.MemoryStore.EndMeeting(ctx, id, endedAt)
}

func (s *flakyStore) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	if s.fail(&s.failAddParticipant) {
		return errStoreDown
	}
	return s.MemoryStore.CreateParticipant(ctx, participant)
}

type flakyFixture struct {
	store  *flakyStore
	clock  *testClock
	events *recordingPublisher
	svc    *Service
}

func newFlakyFixture(t *testing.T) (*flakyFixture, *models.Meeting) {
	t.Helper()
	f := &flakyFixture{
		store:  &flakyStore{MemoryStore: repository.NewMemoryStore()},
		clock:  newTestClock(),
		events: &recordingPublisher{},
	}
	f.store.AddUser(models.User{ID: host.UserID, Email: host.Email, Name: "Hannah Host"})
	f.svc = NewService(f.store, WithClock(f.clock.Now), WithEvents(f.events))

	m, err := f.svc.Create(context.Background(), host, CreateMeetingInput{Title: "Standup"})
	require.NoError(t, err)
	return f, m
}

func TestService_LeaveRetryEndsMeetingAfterFailedEnd(t *testing.T) {
	ctx := context.Background()
	f, m := newFlakyFixture(t)

	hp, err := f.svc.Join(ctx, host, m.ID, JoinInput{DisplayName: "Hannah"})
	require.NoError(t, err)

	f.clock.Advance(90 * time.Second)
	leftAt := f.clock.Now()
	f.store.failEnd = 1

	err = f.svc.Leave(ctx, LeaveInput{RoomCode: m.RoomCode, ParticipantID: hp.ID})
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))

	stored, _ := f.store.GetMeeting(ctx, m.ID)
	assert.Equal(t, models.MeetingActive, stored.Status)
	left, _ := f.store.GetParticipant(ctx, m.ID, hp.ID)
	require.NotNil(t, left.LeftAt)

	f.clock.Advance(time.Minute)
	require.NoError(t, f.svc.Leave(ctx, LeaveInput{RoomCode: m.RoomCode, ParticipantID: hp.ID}))

	stored, _ = f.store.GetMeeting(ctx, m.ID)
	assert.Equal(t, models.MeetingEnded, stored.Status)
	require.NotNil(t, stored.EndedAt)
	assert.Equal(t, leftAt, *stored.EndedAt)
	require.NotNil(t, stored.Duration)
	assert.Equal(t, int64(90), *stored.Duration)
	assert.Equal(t, 1, f.events.count(EventEnded))

	err = f.svc.Leave(ctx, LeaveInput{RoomCode: m.RoomCode, ParticipantID: hp.ID})
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, 1, f.events.count(EventEnded))
}

func TestService_JoinRetryAfterStoreFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("activation failure records nothing", func(t *testing.T) {
		f, m := newFlakyFixture(t)
		f.store.failActivate = 1

		_, err := f.svc.Join(ctx, nil, m.ID, JoinInput{DisplayName: "Alice"})
		require.Error(t, err)
		assert.Equal(t, KindInternal, KindOf(err))

		participants, err := f.store.ListParticipants(ctx, m.ID)
		require.NoError(t, err)
		assert.Empty(t, participants)
		stored, _ := f.store.GetMeeting(ctx, m.ID)
		assert.Equal(t, models.MeetingScheduled, stored.Status)

		_, err = f.svc.Join(ctx, nil, m.ID, JoinInput{DisplayName: "Alice"})
		require.NoError(t, err)

		participants, err = f.store.ListParticipants(ctx, m.ID)
		require.NoError(t, err)
		assert.Len(t, participants, 1)
		stored, _ = f.store.GetMeeting(ctx, m.ID)
		assert.Equal(t, models.MeetingActive, stored.Status)
		assert.Equal(t, 1, f.events.count(EventStarted))
	})

	t.Run("insert failure after activation", func(t *testing.T) {
		f, m := newFlakyFixture(t)
		f.store.failAddParticipant = 1

		_, err := f.svc.Join(ctx, nil, m.ID, JoinInput{DisplayName: "Alice"})
		require.Error(t, err)
		assert.Equal(t, KindInternal, KindOf(err))

		stored, _ := f.store.GetMeeting(ctx, m.ID)
		assert.Equal(t, models.MeetingActive, stored.Status)
		startedAt := *stored.StartedAt

		f.clock.Advance(time.Second)
		_, err = f.svc.Join(ctx, nil, m.ID, JoinInput{DisplayName: "Alice"})
		require.NoError(t, err)

		participants, err := f.store.ListParticipants(ctx, m.ID)
		require.NoError(t, err)
		assert.Len(t, participants, 1)
		stored, _ = f.store.GetMeeting(ctx, m.ID)
		assert.Equal(t, startedAt, *stored.StartedAt)
		assert.Equal(t, 1, f.events.count(EventStarted))
	})
}
