package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/app/mocks"
	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/infra/memory"
	"github.com/jonboulle/clockwork"
	"go.uber.org/mock/gomock"
)

func TestCreateJoinStartAndPlay(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	service, _ := newTestService(t, clock)

	room := createRoom(t, service, "room-1")
	events, cancel, err := service.Subscribe(ctx, room.SessionID)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	joinAll(t, service, room.SessionID, "u1", "u2")
	expectEvent(t, events, domain.EventPlayerJoined)
	expectEvent(t, events, domain.EventPlayerJoined)

	if err := service.Start(ctx, room.SessionID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	shown := expectEvent(t, events, domain.EventQuestionShown).Payload.(domain.QuestionShown)
	if shown.Index != 0 || shown.Total != 2 {
		t.Fatalf("unexpected first question %+v", shown)
	}
	if shown.QuestionID != "q1" {
		t.Fatalf("expected question order kept without shuffle, got %s", shown.QuestionID)
	}

	if err := service.Dispatch(ctx, room.SessionID, domain.Action{Kind: domain.ActionSubmitAnswer, PlayerID: "u1", Value: "4"}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := service.SubmitAnswer(ctx, room.SessionID, "u2", "3"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	result := expectEvent(t, events, domain.EventRoundResult).Payload.(domain.RoundResult)
	if result.CumulativeScores["u1"] != 150 || result.CumulativeScores["u2"] != 0 {
		t.Fatalf("unexpected scores %+v", result.CumulativeScores)
	}

	clock.Advance(3 * time.Second)
	expectEvent(t, events, domain.EventQuestionShown)
	clock.Advance(30 * time.Second)
	expectEvent(t, events, domain.EventRoundResult)
	clock.Advance(3 * time.Second)
	over := expectEvent(t, events, domain.EventGameOver).Payload.(domain.GameOver)
	if over.Ranking[0].PlayerID != "u1" {
		t.Fatalf("expected u1 to lead, got %+v", over.Ranking)
	}

	stats := service.Stats()
	if stats.Ended != 1 {
		t.Fatalf("expected 1 ended room, got %+v", stats)
	}

	// The ended room is reclaimed after the grace period and subscribers are closed.
	clock.Advance(30 * time.Second)
	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected subscription closed on reclaim")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for reclaim")
	}
	if _, err := service.Snapshot(room.SessionID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected room reclaimed, got %v", err)
	}
}

func TestListRoomsAndLeaveEmptyLobby(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, clockwork.NewFakeClock())

	createRoom(t, service, "b-room")
	createRoom(t, service, "a-room")
	joinAll(t, service, "a-room", "u1", "u2")
	if err := service.Start(ctx, "a-room"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	all := service.ListRooms(false)
	if len(all) != 2 || all[0].SessionID != "a-room" {
		t.Fatalf("unexpected rooms %+v", all)
	}
	waiting := service.ListRooms(true)
	if len(waiting) != 1 || waiting[0].SessionID != "b-room" {
		t.Fatalf("expected only b-room waiting, got %+v", waiting)
	}
	if stats := service.Stats(); stats.Waiting != 1 || stats.Active != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	joinAll(t, service, "b-room", "u3")
	if err := service.Leave(ctx, "b-room", "u3"); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if _, err := service.Snapshot("b-room"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected empty lobby dropped, got %v", err)
	}
}

func TestStartRejectsSinglePlayer(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, clockwork.NewFakeClock())
	createRoom(t, service, "room-1")
	joinAll(t, service, "room-1", "u1")

	err := service.Dispatch(ctx, "room-1", domain.Action{Kind: domain.ActionStart})
	if !errors.Is(err, domain.ErrNotEnoughPlayers) {
		t.Fatalf("expected ErrNotEnoughPlayers, got %v", err)
	}
	if got := domain.Reject(domain.ActionStart, err).ReasonCode; got != "NOT_ENOUGH_PLAYERS" {
		t.Fatalf("unexpected reason code %s", got)
	}
}

func TestCreateRoomUnknownQuestionSet(t *testing.T) {
	service, _ := newTestService(t, clockwork.NewFakeClock())
	_, err := service.CreateRoom(context.Background(), app.SessionConfig{ID: "room-1", QuestionSetID: "missing"})
	if !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected ErrQuestionSetNotFound, got %v", err)
	}
}

func TestUnknownSessionAndAction(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, clockwork.NewFakeClock())

	if _, err := service.Join(ctx, "nope", "u1", "Alice"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	createRoom(t, service, "room-1")
	if err := service.Dispatch(ctx, "room-1", domain.Action{Kind: "dance"}); !errors.Is(err, app.ErrUnsupportedAction) {
		t.Fatalf("expected ErrUnsupportedAction, got %v", err)
	}
}

func TestShuffleAndTruncate(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	reversed := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	service := app.NewMatchService(memory.NewRegistry(), memory.NewQuestionRepository(memory.NewStaticLoader(testSet()), 0), app.Options{
		Clock:    clock,
		Defaults: app.SessionConfig{QuestionSetID: "general", QuestionsPerGame: 1, Shuffle: boolPtr(true)},
		Shuffle:  reversed,
	})
	createRoom(t, service, "room-1")
	events, cancel, _ := service.Subscribe(ctx, "room-1")
	defer cancel()
	joinAll(t, service, "room-1", "u1", "u2")
	if err := service.Start(ctx, "room-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	expectEvent(t, events, domain.EventPlayerJoined)
	expectEvent(t, events, domain.EventPlayerJoined)
	shown := expectEvent(t, events, domain.EventQuestionShown).Payload.(domain.QuestionShown)
	if shown.Total != 1 || shown.QuestionID != "q2" {
		t.Fatalf("expected shuffled single question q2, got %+v", shown)
	}
}

func TestRoomCanOptOutOfDefaultShuffle(t *testing.T) {
	ctx := context.Background()
	reversed := func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	service := app.NewMatchService(memory.NewRegistry(), memory.NewQuestionRepository(memory.NewStaticLoader(testSet()), 0), app.Options{
		Clock:    clockwork.NewFakeClock(),
		Defaults: app.SessionConfig{QuestionSetID: "general", Shuffle: boolPtr(true)},
		Shuffle:  reversed,
	})
	if _, err := service.CreateRoom(ctx, app.SessionConfig{ID: "room-1", Shuffle: boolPtr(false)}); err != nil {
		t.Fatalf("create room failed: %v", err)
	}
	events, cancel, _ := service.Subscribe(ctx, "room-1")
	defer cancel()
	joinAll(t, service, "room-1", "u1", "u2")
	if err := service.Start(ctx, "room-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	expectEvent(t, events, domain.EventPlayerJoined)
	expectEvent(t, events, domain.EventPlayerJoined)
	shown := expectEvent(t, events, domain.EventQuestionShown).Payload.(domain.QuestionShown)
	if shown.QuestionID != "q1" {
		t.Fatalf("expected set order kept, got %s", shown.QuestionID)
	}
}

func TestSnapshotReportsConnectionsAndForcedEnd(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, clockwork.NewFakeClock())
	createRoom(t, service, "room-1")

	events, cancel, _ := service.Subscribe(ctx, "room-1")
	defer cancel()
	_, cancelSecond, _ := service.Subscribe(ctx, "room-1")

	joinAll(t, service, "room-1", "u1", "u2")
	snap, err := service.Snapshot("room-1")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snap.Connections != 2 || snap.Forced {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	cancelSecond()

	if err := service.Start(ctx, "room-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := service.Leave(ctx, "room-1", "u1"); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	expectEvent(t, events, domain.EventPlayerJoined)
	expectEvent(t, events, domain.EventPlayerJoined)
	expectEvent(t, events, domain.EventQuestionShown)
	expectEvent(t, events, domain.EventPlayerLeft)
	expectEvent(t, events, domain.EventGameOver)

	snap, err = service.Snapshot("room-1")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if !snap.Forced || snap.State != domain.StateGameEnded || snap.Connections != 1 {
		t.Fatalf("expected forced end with one connection, got %+v", snap)
	}
}

func TestSinksReceiveEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockEventSink(ctrl)
	received := make(chan domain.Event, 8)
	sink.EXPECT().Publish(gomock.Any()).DoAndReturn(func(evt domain.Event) error {
		received <- evt
		return errors.New("broker down")
	}).AnyTimes()

	service := app.NewMatchService(memory.NewRegistry(), memory.NewQuestionRepository(memory.NewStaticLoader(testSet()), 0), app.Options{
		Clock:    clockwork.NewFakeClock(),
		Defaults: app.SessionConfig{QuestionSetID: "general"},
		Sinks:    []app.EventSink{sink},
	})
	createRoom(t, service, "room-1")
	joinAll(t, service, "room-1", "u1")

	evt := <-received
	if evt.Type != domain.EventPlayerJoined || evt.SessionID != "room-1" {
		t.Fatalf("unexpected sink event %+v", evt)
	}
}

func newTestService(t *testing.T, clock clockwork.Clock) (*app.MatchService, *memory.Registry) {
	t.Helper()
	registry := memory.NewRegistry()
	questions := memory.NewQuestionRepository(memory.NewStaticLoader(testSet()), time.Minute)
	service := app.NewMatchService(registry, questions, app.Options{
		Clock:        clock,
		Defaults:     app.SessionConfig{QuestionSetID: "general", TimeBudget: 30 * time.Second},
		ReclaimAfter: 30 * time.Second,
	})
	return service, registry
}

func createRoom(t *testing.T, service *app.MatchService, id string) domain.RoomSummary {
	t.Helper()
	room, err := service.CreateRoom(context.Background(), app.SessionConfig{ID: id, Name: id})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}
	return room
}

func joinAll(t *testing.T, service *app.MatchService, sessionID string, players ...string) {
	t.Helper()
	for _, id := range players {
		if _, err := service.Join(context.Background(), sessionID, id, "name-"+id); err != nil {
			t.Fatalf("join %s failed: %v", id, err)
		}
	}
}

func expectEvent(t *testing.T, events <-chan domain.Event, want domain.EventType) domain.Event {
	t.Helper()
	select {
	case evt, ok := <-events:
		if !ok {
			t.Fatalf("subscription closed waiting for %s", want)
		}
		if evt.Type != want {
			t.Fatalf("expected %s, got %s", want, evt.Type)
		}
		return evt
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
	return domain.Event{}
}

func boolPtr(v bool) *bool {
	return &v
}

func testSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID:   "general",
		Name: "General",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "2 + 2?", Options: []string{"3", "4"}, Answer: "4", Difficulty: domain.DifficultyEasy},
			{ID: "q2", Prompt: "1 + 2?", Options: []string{"3", "4"}, Answer: "3", Difficulty: domain.DifficultyEasy},
		},
	}
}
