package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGuild = "guild-1"

type fakeVoice struct {
	mu       sync.Mutex
	members  []string
	muted    map[string]bool
	failMute map[string]bool
	setCalls int
}

func newFakeVoice(members ...string) *fakeVoice {
	return &fakeVoice{members: members, muted: map[string]bool{}, failMute: map[string]bool{}}
}

func (f *fakeVoice) VoiceMemberIDs(guildID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.members...), nil
}

func (f *fakeVoice) SetServerMute(guildID, userID string, mute bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.failMute[userID] {
		return errors.New("transport caído")
	}
	f.muted[userID] = mute
	return nil
}

func (f *fakeVoice) isMuted(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted[userID]
}

type fakeDeadChat struct {
	granted []string
	revoked []string
}

func (f *fakeDeadChat) Grant(userID string) error  { f.granted = append(f.granted, userID); return nil }
func (f *fakeDeadChat) Revoke(userID string) error { f.revoked = append(f.revoked, userID); return nil }

type fakeStore struct {
	started int
	bound   []string
	deadIDs []string
	ended   int
}

func (f *fakeStore) StartSession(ctx context.Context, guildID, initiatorID string) (int64, error) {
	f.started++
	return 7, nil
}

func (f *fakeStore) BindControlMessage(ctx context.Context, id int64, messageID string) error {
	f.bound = append(f.bound, messageID)
	return nil
}

func (f *fakeStore) EndSession(ctx context.Context, id int64, deadIDs []string) error {
	f.ended++
	f.deadIDs = deadIDs
	return nil
}

func newTestService(voice *fakeVoice, dead *fakeDeadChat, store SessionStore, owners ...string) *SessionService {
	var dc DeadChat
	if dead != nil {
		dc = dead
	}
	return NewSessionService(NewMuteCoordinator(voice), dc, store, owners)
}

func TestStartSecondSessionFails(t *testing.T) {
	svc := newTestService(newFakeVoice(), nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx, testGuild, "alice"))
	err := svc.Start(ctx, testGuild, "bob")
	require.ErrorIs(t, err, ErrSessionActive)
	assert.True(t, svc.InProgress())

	require.NoError(t, svc.End(ctx))
	assert.False(t, svc.InProgress())
	require.NoError(t, svc.Start(ctx, testGuild, "bob"))
}

func TestEndWithoutSession(t *testing.T) {
	svc := newTestService(newFakeVoice(), nil, nil)
	require.ErrorIs(t, svc.End(context.Background()), ErrNoSession)
}

func TestIsInControl(t *testing.T) {
	svc := newTestService(newFakeVoice(), nil, nil, "owner")

	// sin partida solo pasan los owners
	assert.True(t, svc.IsInControl("owner"))
	assert.False(t, svc.IsInControl("alice"))

	require.NoError(t, svc.Start(context.Background(), testGuild, "alice"))
	assert.True(t, svc.IsInControl("alice"))
	assert.True(t, svc.IsInControl("owner"))
	assert.False(t, svc.IsInControl("mallory"))
}

func TestControlMessageBinding(t *testing.T) {
	svc := newTestService(newFakeVoice(), nil, nil)
	ctx := context.Background()

	assert.False(t, svc.IsControlMessage("msg-1"))
	require.ErrorIs(t, svc.BindControlMessage(ctx, "chan", "msg-1"), ErrNoSession)

	require.NoError(t, svc.Start(ctx, testGuild, "alice"))
	assert.False(t, svc.IsControlMessage(""), "sin bind nada matchea")

	require.NoError(t, svc.BindControlMessage(ctx, "chan", "msg-1"))
	assert.True(t, svc.IsControlMessage("msg-1"))
	assert.False(t, svc.IsControlMessage("msg-2"))

	// el bind es una sola vez por sesión
	require.NoError(t, svc.BindControlMessage(ctx, "chan", "msg-9"))
	assert.True(t, svc.IsControlMessage("msg-1"))
	assert.False(t, svc.IsControlMessage("msg-9"))

	// reacciones sobre el mensaje viejo dejan de valer al terminar
	require.NoError(t, svc.End(ctx))
	assert.False(t, svc.IsControlMessage("msg-1"))
}

func TestMarkDeadIdempotent(t *testing.T) {
	dead := &fakeDeadChat{}
	svc := newTestService(newFakeVoice(), dead, nil)
	ctx := context.Background()

	// sin partida es un no-op silencioso
	svc.MarkDead(ctx, "bob")
	assert.Empty(t, dead.granted)

	require.NoError(t, svc.Start(ctx, testGuild, "alice"))
	svc.MarkDead(ctx, "bob")
	svc.MarkDead(ctx, "bob")
	assert.True(t, svc.IsDead("bob"))
	assert.False(t, svc.IsDead("alice"))
	assert.Equal(t, []string{"bob"}, dead.granted, "un solo grant aunque lo marquen dos veces")
}

func TestDeadClearedBetweenSessions(t *testing.T) {
	dead := &fakeDeadChat{}
	svc := newTestService(newFakeVoice(), dead, nil)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx, testGuild, "alice"))
	svc.MarkDead(ctx, "bob")
	require.NoError(t, svc.End(ctx))
	assert.Equal(t, []string{"bob"}, dead.revoked)

	require.NoError(t, svc.Start(ctx, testGuild, "alice"))
	assert.False(t, svc.IsDead("bob"))
}

func TestEmergencyMeetingToggle(t *testing.T) {
	voice := newFakeVoice("alice", "bob")
	svc := newTestService(voice, nil, nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.EmergencyMeeting(ctx), ErrNoSession)

	require.NoError(t, svc.Start(ctx, testGuild, "alice"))
	require.NoError(t, svc.EmergencyMeeting(ctx))
	assert.True(t, svc.MeetingActive())
	assert.True(t, voice.isMuted("alice"))
	assert.True(t, voice.isMuted("bob"))

	require.NoError(t, svc.WithdrawEmergency(ctx))
	assert.False(t, svc.MeetingActive())
	assert.False(t, voice.isMuted("alice"))
	assert.False(t, voice.isMuted("bob"))
}

func TestWithdrawWithoutPriorMeeting(t *testing.T) {
	// add/remove pueden llegar desordenados: retirar sin reunión previa es
	// un unmute de base, no un error
	voice := newFakeVoice("alice")
	svc := newTestService(voice, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx, testGuild, "alice"))
	require.NoError(t, svc.WithdrawEmergency(ctx))
	assert.False(t, svc.MeetingActive())
	assert.False(t, voice.isMuted("alice"))
}

func TestMutePlayersRevalidatesSession(t *testing.T) {
	voice := newFakeVoice("alice", "bob")
	svc := newTestService(voice, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx, testGuild, "alice"))
	require.NoError(t, svc.MutePlayers(ctx))
	assert.False(t, svc.MeetingActive(), "MutePlayers no toca el flag de reunión")
	assert.True(t, voice.isMuted("bob"))

	// si la partida terminó durante la espera del comando, no hay mute
	require.NoError(t, svc.End(ctx))
	require.ErrorIs(t, svc.MutePlayers(ctx), ErrNoSession)
	assert.False(t, voice.isMuted("bob"), "End desmuteó y nadie volvió a mutear")
}

func TestEndUnmutesBeforeDestroy(t *testing.T) {
	voice := newFakeVoice("alice", "bob")
	svc := newTestService(voice, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx, testGuild, "alice"))
	require.NoError(t, svc.EmergencyMeeting(ctx))
	require.NoError(t, svc.End(ctx))

	assert.False(t, voice.isMuted("alice"))
	assert.False(t, voice.isMuted("bob"))
	assert.False(t, svc.InProgress())
}

func TestMuteLateJoinerOnlyDuringMeeting(t *testing.T) {
	voice := newFakeVoice("alice")
	svc := newTestService(voice, nil, nil)
	ctx := context.Background()

	svc.MuteLateJoiner("carol")
	assert.False(t, voice.isMuted("carol"), "sin partida no se mutea a nadie")

	require.NoError(t, svc.Start(ctx, testGuild, "alice"))
	svc.MuteLateJoiner("carol")
	assert.False(t, voice.isMuted("carol"), "sin reunión activa no se mutea")

	require.NoError(t, svc.EmergencyMeeting(ctx))
	svc.MuteLateJoiner("carol")
	assert.True(t, voice.isMuted("carol"))

	require.NoError(t, svc.WithdrawEmergency(ctx))
	assert.False(t, voice.isMuted("carol"), "el coordinador lo trackeó y lo desmuteó")
}

func TestHistoryRecorded(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(newFakeVoice(), nil, store)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx, testGuild, "alice"))
	require.NoError(t, svc.BindControlMessage(ctx, "chan", "msg-1"))
	svc.MarkDead(ctx, "bob")
	require.NoError(t, svc.End(ctx))

	assert.Equal(t, 1, store.started)
	assert.Equal(t, []string{"msg-1"}, store.bound)
	assert.Equal(t, 1, store.ended)
	assert.Equal(t, []string{"bob"}, store.deadIDs)
}

func TestConcurrentStartsOnlyOneWins(t *testing.T) {
	svc := newTestService(newFakeVoice(), nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Start(ctx, testGuild, "alice")
		}(i)
	}
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
		} else {
			require.ErrorIs(t, err, ErrSessionActive)
		}
	}
	assert.Equal(t, 1, okCount, "exactamente un Start gana")
}
