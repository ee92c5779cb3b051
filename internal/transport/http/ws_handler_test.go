package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/infra/memory"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

func TestWebSocketMatchFlow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	service := newTestService(clock)
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	createTestRoom(t, service, "room-1")

	alice := dial(t, server, "room-1", "u1", "Alice")
	defer alice.Close()
	readUntil(t, alice, "joined")

	bob := dial(t, server, "room-1", "u2", "Bob")
	defer bob.Close()
	readUntil(t, bob, "joined")

	send(t, alice, map[string]any{"type": "start"})
	shown := readUntil(t, alice, string(domain.EventQuestionShown))
	if shown["prompt"] != "What is 2 + 2?" {
		t.Fatalf("unexpected question payload %+v", shown)
	}
	if _, leaked := shown["answer"]; leaked {
		t.Fatalf("question shown must not carry the answer")
	}
	readUntil(t, bob, string(domain.EventQuestionShown))

	send(t, alice, map[string]any{"type": "answer", "value": "4"})
	send(t, alice, map[string]any{"type": "answer", "value": "4"})
	rej := readUntil(t, alice, string(domain.EventRejected))
	if rej["reasonCode"] != "DUPLICATE_ANSWER" {
		t.Fatalf("expected duplicate rejection, got %+v", rej)
	}

	send(t, bob, map[string]any{"type": "answer", "value": "5"})
	result := readUntil(t, bob, string(domain.EventRoundResult))
	scores := result["cumulativeScores"].(map[string]any)
	if scores["u1"] != float64(150) || scores["u2"] != float64(0) {
		t.Fatalf("unexpected scores %+v", scores)
	}

	clock.Advance(3 * time.Second)
	over := readUntil(t, alice, string(domain.EventGameOver))
	ranking := over["ranking"].([]any)
	if first := ranking[0].(map[string]any); first["playerId"] != "u1" {
		t.Fatalf("expected u1 first, got %+v", ranking)
	}
}

func TestWebSocketRejectsJoinForUnknownRoom(t *testing.T) {
	service := newTestService(clockwork.NewFakeClock())
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	conn := dial(t, server, "missing", "u1", "Alice")
	defer conn.Close()
	rej := readUntil(t, conn, string(domain.EventRejected))
	if rej["reasonCode"] != "SESSION_NOT_FOUND" {
		t.Fatalf("expected SESSION_NOT_FOUND, got %+v", rej)
	}
}

func TestWebSocketDisconnectLeaves(t *testing.T) {
	service := newTestService(clockwork.NewFakeClock())
	server := httptest.NewServer(NewRouter(service, nil))
	defer server.Close()

	createTestRoom(t, service, "room-1")
	alice := dial(t, server, "room-1", "u1", "Alice")
	defer alice.Close()
	readUntil(t, alice, "joined")

	bob := dial(t, server, "room-1", "u2", "Bob")
	readUntil(t, bob, "joined")
	_ = bob.Close()

	left := readUntil(t, alice, string(domain.EventPlayerLeft))
	if left["playerId"] != "u2" {
		t.Fatalf("expected u2 to leave, got %+v", left)
	}
}

func newTestService(clock clockwork.Clock) *app.MatchService {
	questions := memory.NewQuestionRepository(memory.NewStaticLoader(sampleSet()), time.Minute)
	return app.NewMatchService(memory.NewRegistry(), questions, app.Options{
		Clock:    clock,
		Defaults: app.SessionConfig{QuestionSetID: "general"},
	})
}

func createTestRoom(t *testing.T, service *app.MatchService, id string) {
	t.Helper()
	if _, err := service.CreateRoom(t.Context(), app.SessionConfig{ID: id}); err != nil {
		t.Fatalf("create room: %v", err)
	}
}

func dial(t *testing.T, server *httptest.Server, room, playerID, name string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/rooms/" + room + "/ws?playerId=" + playerID + "&name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readUntil skips messages until one of the wanted type arrives and returns
// its payload.
func readUntil(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", want, err)
		}
		if msg.Type == want {
			return msg.Payload
		}
	}
	t.Fatalf("no %s message within 20 reads", want)
	return nil
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID:   "general",
		Name: "General",
		Questions: []domain.Question{
			{
				ID:         "q1",
				Prompt:     "What is 2 + 2?",
				Options:    []string{"3", "4", "5"},
				Answer:     "4",
				Difficulty: domain.DifficultyEasy,
				Category:   "math",
			},
		},
	}
}
