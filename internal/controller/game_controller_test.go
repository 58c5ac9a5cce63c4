package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/benbeisheim/percaturan-backend/internal/board"
	"github.com/benbeisheim/percaturan-backend/internal/engine"
	"github.com/benbeisheim/percaturan-backend/internal/fen"
	"github.com/benbeisheim/percaturan-backend/internal/model"
	"github.com/benbeisheim/percaturan-backend/internal/service"
	"github.com/benbeisheim/percaturan-backend/internal/storage"
)

const player = "player-1"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store, err := storage.Open(storage.Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	gm := service.NewGameManager(service.ManagerOptions{
		Engine:       engine.New(engine.WithRandomMoveChance(0)),
		Store:        store,
		TickInterval: 10 * time.Millisecond,
	})
	t.Cleanup(func() {
		gm.Close()
		store.Close()
	})

	app := fiber.New()
	RegisterRoutes(app, service.NewGameService(gm), nil)
	return app
}

// call sends a request as player and decodes a JSON response into out.
func call(t *testing.T, app *fiber.App, method, target, playerID string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if playerID != "" {
		req.Header.Set("X-Player-ID", playerID)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, target, err)
		}
	}
	return resp.StatusCode
}

func createGame(t *testing.T, app *fiber.App, body fiber.Map) model.GameState {
	t.Helper()
	var state model.GameState
	if status := call(t, app, "POST", "/api/game/create", player, body, &state); status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	return state
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	if status := call(t, app, "GET", "/healthz", "", nil, nil); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
}

func TestPlayerIDRequired(t *testing.T) {
	app := newTestApp(t)
	var body map[string]string
	if status := call(t, app, "POST", "/api/game/create", "", nil, &body); status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if body["error"] == "" {
		t.Error("missing error message")
	}
}

func TestCreateAndGetGame(t *testing.T) {
	app := newTestApp(t)
	state := createGame(t, app, fiber.Map{"mode": "human", "timeControl": 300, "increment": 2})
	if state.ID == "" || state.Mode != model.ModeHuman || !state.Timed || state.FEN != fen.Start {
		t.Fatalf("created state = %+v", state)
	}
	if state.Players.White.TimeLeft != 300_000 {
		t.Errorf("white time left = %d", state.Players.White.TimeLeft)
	}

	var got model.GameState
	if status := call(t, app, "GET", "/api/game/"+state.ID, player, nil, &got); status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	if got.ID != state.ID {
		t.Errorf("got game %s, want %s", got.ID, state.ID)
	}
	if status := call(t, app, "GET", "/api/game/missing", player, nil, nil); status != http.StatusNotFound {
		t.Errorf("missing game status = %d, want 404", status)
	}
}

func TestCreateGameValidation(t *testing.T) {
	app := newTestApp(t)
	tests := []struct {
		name string
		body fiber.Map
	}{
		{"difficulty", fiber.Map{"difficulty": "grandmaster"}},
		{"mode", fiber.Map{"mode": "online"}},
		{"color", fiber.Map{"color": "green"}},
		{"fen", fiber.Map{"fen": "rubbish"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := call(t, app, "POST", "/api/game/create", player, tt.body, nil); status != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", status)
			}
		})
	}
}

func TestCreateGameAsBlack(t *testing.T) {
	app := newTestApp(t)
	state := createGame(t, app, fiber.Map{"color": "black", "difficulty": "beginner"})
	if state.HumanColor != board.Black || !state.Players.White.Engine {
		t.Fatalf("state = %+v", state)
	}
}

func TestMoveFlow(t *testing.T) {
	app := newTestApp(t)
	state := createGame(t, app, fiber.Map{"mode": "human"})
	base := "/api/game/" + state.ID

	var moves struct {
		Square string         `json:"square"`
		Moves  []board.Square `json:"moves"`
	}
	if status := call(t, app, "GET", base+"/moves?square=g1", player, nil, &moves); status != http.StatusOK || len(moves.Moves) != 2 {
		t.Fatalf("moves status = %d, moves = %v", status, moves.Moves)
	}
	if status := call(t, app, "GET", base+"/moves?square=z9", player, nil, nil); status != http.StatusBadRequest {
		t.Errorf("bad square status = %d, want 400", status)
	}

	var after model.GameState
	if status := call(t, app, "POST", base+"/move", player, fiber.Map{"from": "e2", "to": "e4"}, &after); status != http.StatusOK {
		t.Fatalf("move status = %d", status)
	}
	if after.ToMove != board.Black || after.MoveHistory[0] != "e4" {
		t.Fatalf("after move: %+v", after)
	}

	tests := []struct {
		name   string
		player string
		body   fiber.Map
		status int
	}{
		{"illegal", player, fiber.Map{"from": "e7", "to": "e4"}, http.StatusUnprocessableEntity},
		{"wrong turn", player, fiber.Map{"from": "d2", "to": "d4"}, http.StatusConflict},
		{"stranger", "someone-else", fiber.Map{"from": "e7", "to": "e5"}, http.StatusForbidden},
		{"bad square", player, fiber.Map{"from": "e7", "to": "e9"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status := call(t, app, "POST", base+"/move", tt.player, tt.body, nil); status != tt.status {
				t.Fatalf("status = %d, want %d", status, tt.status)
			}
		})
	}

	if status := call(t, app, "POST", base+"/undo", player, nil, &after); status != http.StatusOK || after.FEN != fen.Start {
		t.Fatalf("undo status = %d, FEN = %q", status, after.FEN)
	}
	if status := call(t, app, "POST", base+"/undo", player, nil, nil); status != http.StatusConflict {
		t.Errorf("empty undo status = %d, want 409", status)
	}
	if status := call(t, app, "POST", base+"/resign", player, nil, &after); status != http.StatusOK || !after.IsGameOver {
		t.Fatalf("resign status = %d, over = %v", status, after.IsGameOver)
	}
	if status := call(t, app, "POST", base+"/move", player, fiber.Map{"from": "e2", "to": "e4"}, nil); status != http.StatusConflict {
		t.Errorf("move after resign status = %d, want 409", status)
	}
	if status := call(t, app, "POST", base+"/restart", player, nil, &after); status != http.StatusOK || after.IsGameOver {
		t.Fatalf("restart status = %d, over = %v", status, after.IsGameOver)
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	app := newTestApp(t)
	state := createGame(t, app, fiber.Map{"mode": "human", "fen": "7k/6pp/8/8/8/8/8/R5K1 w - - 0 1"})

	var analysis service.Analysis
	if status := call(t, app, "GET", "/api/game/"+state.ID+"/analysis", player, nil, &analysis); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if analysis.Notation != "Ra8" || analysis.BestMove == nil {
		t.Errorf("analysis = %+v", analysis)
	}
}

func TestPositionEndpoints(t *testing.T) {
	app := newTestApp(t)

	var moves struct {
		Moves []board.Move `json:"moves"`
	}
	if status := call(t, app, "POST", "/api/position/moves", player, fiber.Map{"fen": fen.Start}, &moves); status != http.StatusOK || len(moves.Moves) != 20 {
		t.Fatalf("moves status = %d, count = %d", status, len(moves.Moves))
	}
	if status := call(t, app, "POST", "/api/position/moves", player, fiber.Map{"fen": "nonsense"}, nil); status != http.StatusBadRequest {
		t.Errorf("bad fen status = %d, want 400", status)
	}

	var status service.PositionStatus
	call(t, app, "POST", "/api/position/status", player, fiber.Map{"fen": "k7/8/1Q6/8/8/8/8/7K b - - 0 1"}, &status)
	if status.Status != board.Stalemate || status.InCheck {
		t.Errorf("status = %+v", status)
	}

	var best service.BestMove
	code := call(t, app, "POST", "/api/position/best-move", player, fiber.Map{
		"fen":        "7k/6pp/8/8/8/8/8/R5K1 w - - 0 1",
		"difficulty": "advanced",
	}, &best)
	if code != http.StatusOK || best.Notation != "Ra8" || best.Level != engine.Advanced {
		t.Errorf("best-move status = %d, body = %+v", code, best)
	}
}

func TestPlayerStatsEndpoint(t *testing.T) {
	app := newTestApp(t)
	state := createGame(t, app, fiber.Map{"difficulty": "expert"})
	if code := call(t, app, "POST", "/api/game/"+state.ID+"/resign", player, nil, nil); code != http.StatusOK {
		t.Fatalf("resign status = %d", code)
	}

	var body struct {
		Stats   storage.GameStats `json:"stats"`
		WinRate float64           `json:"winRate"`
	}
	if code := call(t, app, "GET", "/api/player/stats", player, nil, &body); code != http.StatusOK {
		t.Fatalf("stats status = %d", code)
	}
	if body.Stats.GamesPlayed != 1 || body.Stats.Losses != 1 || body.WinRate != 0 {
		t.Errorf("stats = %+v", body)
	}
}

func TestMalformedBody(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest("POST", "/api/game/create", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Player-ID", player)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestWebSocketRouteAccess(t *testing.T) {
	app := newTestApp(t)
	state := createGame(t, app, fiber.Map{"mode": "human"})

	tests := []struct {
		name   string
		gameID string
		player string
		status int
	}{
		{"unknown game", "missing", player, http.StatusNotFound},
		{"stranger", state.ID, "someone-else", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/ws/game/"+tt.gameID, nil)
			req.Header.Set("X-Player-ID", tt.player)
			req.Header.Set("Connection", "Upgrade")
			req.Header.Set("Upgrade", "websocket")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}
