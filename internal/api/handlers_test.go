package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"campusbot/internal/auth"
	"campusbot/internal/config"
	"campusbot/internal/models"
	"campusbot/internal/service/assistant"
	"campusbot/internal/service/chatbot"
	"campusbot/internal/storage"
	"campusbot/internal/worker"
)

// Wednesday noon.
var testNow = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

type chatBody struct {
	Text        string          `json:"text"`
	Kind        string          `json:"kind"`
	Items       []string        `json:"items"`
	Intent      string          `json:"intent"`
	Language    string          `json:"language"`
	Sentiment   float64         `json:"sentiment"`
	UserMessage *models.Message `json:"user_message"`
	BotMessage  *models.Message `json:"bot_message"`
}

func TestHandlersEndToEndFlow(t *testing.T) {
	router, db, _ := newTestServer(t)
	defer db.Close()

	id, authHeader := registerAndLogin(t, router, "IT")
	chatPath := fmt.Sprintf("/api/users/%d/chat", id)

	resp := doJSONRequest(t, router, http.MethodPost, chatPath, map[string]string{"message": "hello"}, authHeader)
	assertStatus(t, resp, http.StatusOK)
	var body chatBody
	decodeJSON(t, resp.Body.Bytes(), &body)
	if body.Intent != "greeting" || body.Kind != "text" || body.Language != "en" {
		t.Fatalf("unexpected greeting reply %+v", body)
	}
	if body.UserMessage == nil || body.UserMessage.Content != "hello" || !body.UserMessage.IsUser {
		t.Fatalf("user message not echoed: %+v", body.UserMessage)
	}
	if body.BotMessage == nil || body.BotMessage.Content != body.Text {
		t.Fatalf("bot message should carry the wire text: %+v", body.BotMessage)
	}

	resp = doJSONRequest(t, router, http.MethodPost, chatPath, map[string]string{"message": "where is the library"}, authHeader)
	assertStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp.Body.Bytes(), &body)
	if body.Text != "LOCATION_REDIRECT:Library:Library" || body.Kind != "location_redirect" {
		t.Fatalf("unexpected location reply %+v", body)
	}

	resp = doJSONRequest(t, router, http.MethodPost, chatPath, map[string]string{"message": "what are my modules"}, authHeader)
	assertStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp.Body.Bytes(), &body)
	if body.Text != "MODULE_LIST:Databases|Networks" {
		t.Fatalf("unexpected module reply %q", body.Text)
	}

	resp = doJSONRequest(t, router, http.MethodGet, fmt.Sprintf("/api/users/%d/chat/messages", id), nil, authHeader)
	assertStatus(t, resp, http.StatusOK)
	var history struct {
		Messages []*models.Message `json:"messages"`
	}
	decodeJSON(t, resp.Body.Bytes(), &history)
	if len(history.Messages) != 6 {
		t.Fatalf("expected 6 stored messages, got %d", len(history.Messages))
	}
	if history.Messages[3].Content != "LOCATION_REDIRECT:Library:Library" {
		t.Fatalf("bot messages should be stored in wire form, got %q", history.Messages[3].Content)
	}

	resp = doJSONRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/users/%d/chat/messages", id), nil, authHeader)
	assertStatus(t, resp, http.StatusNoContent)
	if n := countMessages(t, db, id); n != 0 {
		t.Fatalf("expected conversation cleared, %d messages left", n)
	}
}

func TestChatCanteenFlow(t *testing.T) {
	router, db, _ := newTestServer(t)
	defer db.Close()

	id, authHeader := registerAndLogin(t, router, "IT")
	chatPath := fmt.Sprintf("/api/users/%d/chat", id)

	send := func(msg string) chatBody {
		t.Helper()
		resp := doJSONRequest(t, router, http.MethodPost, chatPath, map[string]string{"message": msg}, authHeader)
		assertStatus(t, resp, http.StatusOK)
		var body chatBody
		decodeJSON(t, resp.Body.Bytes(), &body)
		return body
	}

	body := send("I want food")
	if body.Text != "SHOW_CANTEEN_TABLE" || len(body.Items) != 2 {
		t.Fatalf("unexpected canteen picker %+v", body)
	}
	body = send("main canteen")
	if body.Intent != "continue_canteen_step1" || !strings.Contains(body.Text, "Main Canteen") {
		t.Fatalf("unexpected meal prompt %+v", body)
	}
	body = send("lunch")
	if body.Intent != "continue_canteen_step2" || !strings.Contains(body.Text, "- Rice and curry") {
		t.Fatalf("unexpected menu %+v", body)
	}
	body = send("hello")
	if body.Intent != "greeting" {
		t.Fatalf("flow should be finished, got intent %s", body.Intent)
	}
}

func TestClearingConversationResetsDialogue(t *testing.T) {
	router, db, _ := newTestServer(t)
	defer db.Close()

	id, authHeader := registerAndLogin(t, router, "IT")
	chatPath := fmt.Sprintf("/api/users/%d/chat", id)

	resp := doJSONRequest(t, router, http.MethodPost, chatPath, map[string]string{"message": "canteen"}, authHeader)
	assertStatus(t, resp, http.StatusOK)
	resp = doJSONRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/users/%d/chat/messages", id), nil, authHeader)
	assertStatus(t, resp, http.StatusNoContent)

	resp = doJSONRequest(t, router, http.MethodPost, chatPath, map[string]string{"message": "hello"}, authHeader)
	assertStatus(t, resp, http.StatusOK)
	var body chatBody
	decodeJSON(t, resp.Body.Bytes(), &body)
	if body.Intent != "greeting" {
		t.Fatalf("expected fresh dialogue after clear, got %s", body.Intent)
	}
}

func TestChatValidation(t *testing.T) {
	router, db, _ := newTestServer(t)
	defer db.Close()

	id, authHeader := registerAndLogin(t, router, "IT")
	chatPath := fmt.Sprintf("/api/users/%d/chat", id)

	resp := doJSONRequest(t, router, http.MethodPost, chatPath, map[string]string{"message": "   "}, authHeader)
	assertStatus(t, resp, http.StatusBadRequest)

	resp = doJSONRequest(t, router, http.MethodPost, chatPath, map[string]string{"message": "hi"}, nil)
	assertStatus(t, resp, http.StatusUnauthorized)

	resp = doJSONRequest(t, router, http.MethodPost, fmt.Sprintf("/api/users/%d/chat", id+1), map[string]string{"message": "hi"}, authHeader)
	assertStatus(t, resp, http.StatusForbidden)
}

func TestChatCookieAuthRequiresCSRF(t *testing.T) {
	router, db, _ := newTestServer(t)
	defer db.Close()

	id, authHeader := registerAndLogin(t, router, "IT")
	token := strings.TrimPrefix(authHeader["Authorization"], "Bearer ")
	chatPath := fmt.Sprintf("/api/users/%d/chat", id)

	payload, _ := json.Marshal(map[string]string{"message": "hi"})
	req := httptest.NewRequest(http.MethodPost, chatPath, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assertStatus(t, rec, http.StatusForbidden)

	req = httptest.NewRequest(http.MethodPost, chatPath, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: "abc"})
	req.Header.Set("X-CSRF-Token", "abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assertStatus(t, rec, http.StatusOK)
}

func TestProfileDegreeChangesCourseAnswers(t *testing.T) {
	router, db, _ := newTestServer(t)
	defer db.Close()

	id, authHeader := registerAndLogin(t, router, "")
	chatPath := fmt.Sprintf("/api/users/%d/chat", id)
	profilePath := fmt.Sprintf("/api/users/%d/profile", id)

	resp := doJSONRequest(t, router, http.MethodPost, chatPath, map[string]string{"message": "list my modules"}, authHeader)
	assertStatus(t, resp, http.StatusOK)
	var body chatBody
	decodeJSON(t, resp.Body.Bytes(), &body)
	if body.Kind != "text" || strings.HasPrefix(body.Text, "MODULE_LIST") {
		t.Fatalf("expected degree prompt, got %+v", body)
	}

	resp = doJSONRequest(t, router, http.MethodPatch, profilePath, map[string]string{"degree": "Astrology"}, authHeader)
	assertStatus(t, resp, http.StatusBadRequest)
	resp = doJSONRequest(t, router, http.MethodPatch, profilePath, map[string]string{"degree": "it"}, authHeader)
	assertStatus(t, resp, http.StatusOK)
	var user models.User
	decodeJSON(t, resp.Body.Bytes(), &user)
	if user.Degree != models.DegreeIT {
		t.Fatalf("expected IT degree, got %q", user.Degree)
	}

	resp = doJSONRequest(t, router, http.MethodPost, chatPath, map[string]string{"message": "list my modules"}, authHeader)
	assertStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp.Body.Bytes(), &body)
	if body.Text != "MODULE_LIST:Databases|Networks" {
		t.Fatalf("unexpected module reply %q", body.Text)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	router, db, _ := newTestServer(t)
	defer db.Close()

	resp := doJSONRequest(t, router, http.MethodGet, "/healthz", nil, nil)
	assertStatus(t, resp, http.StatusOK)

	id, authHeader := registerAndLogin(t, router, "AI")
	username := fmt.Sprintf("tester_%d", userSeq)

	resp = doJSONRequest(t, router, http.MethodPost, "/api/users/register", map[string]string{
		"username": username,
		"password": "pass123",
	}, nil)
	assertStatus(t, resp, http.StatusConflict)

	resp = doJSONRequest(t, router, http.MethodPost, "/api/users/login", map[string]string{
		"username": username,
		"password": "wrong",
	}, nil)
	assertStatus(t, resp, http.StatusUnauthorized)

	resp = doJSONRequest(t, router, http.MethodPost, fmt.Sprintf("/api/users/%d/logout", id), nil, authHeader)
	assertStatus(t, resp, http.StatusNoContent)
	resp = doJSONRequest(t, router, http.MethodGet, fmt.Sprintf("/api/users/%d/chat/messages", id), nil, authHeader)
	assertStatus(t, resp, http.StatusUnauthorized)
}

func TestDeleteUser(t *testing.T) {
	router, db, _ := newTestServer(t)
	defer db.Close()

	id, authHeader := registerAndLogin(t, router, "IT")
	resp := doJSONRequest(t, router, http.MethodPost, fmt.Sprintf("/api/users/%d/chat", id), map[string]string{"message": "hello"}, authHeader)
	assertStatus(t, resp, http.StatusOK)

	resp = doJSONRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/users/%d", id), nil, authHeader)
	assertStatus(t, resp, http.StatusNoContent)
	if n := countMessages(t, db, id); n != 0 {
		t.Fatalf("messages should be deleted with the user, %d left", n)
	}
	resp = doJSONRequest(t, router, http.MethodGet, fmt.Sprintf("/api/users/%d/chat/messages", id), nil, authHeader)
	assertStatus(t, resp, http.StatusUnauthorized)
}

func newTestServer(t *testing.T) (*gin.Engine, *sql.DB, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	asst := assistant.NewService(db)
	seedCampus(t, asst)

	logger := zaptest.NewLogger(t)
	engine := chatbot.NewEngine(asst, asst, chatbot.NewMemoryStateStore(), logger, chatbot.Options{
		Now:  func() time.Time { return testNow },
		Pick: func(int) int { return 0 },
	})
	workers := worker.NewManager(worker.Config{
		OnRelease: func(ctx context.Context, userID int64) {
			_ = engine.ResetState(ctx, userID)
		},
	}, logger)
	t.Cleanup(workers.Shutdown)

	authSvc := auth.NewService(db, nil, time.Hour)
	handler := NewHandler(asst, authSvc, engine, workers, nil, logger)

	router := gin.New()
	handler.RegisterRoutes(router)
	return router, db, handler
}

func seedCampus(t *testing.T, asst *assistant.Service) {
	t.Helper()
	ctx := context.Background()
	for _, e := range []models.ScheduleEntry{
		{ClassName: "Networks", Day: "Wednesday", StartTime: "09:00", EndTime: "11:00", Location: "Lab 1", Instructor: "Dr. Silva", Degree: models.DegreeIT},
		{ClassName: "Databases", Day: "Wednesday", StartTime: "14:00", EndTime: "16:00", Location: "Lab 2", Instructor: "Dr. Perera", Degree: models.DegreeIT},
	} {
		if _, err := asst.AddScheduleEntry(ctx, e); err != nil {
			t.Fatalf("seed schedule: %v", err)
		}
	}
	for _, m := range []models.CanteenMenu{
		{CanteenName: "Main Canteen", Meals: models.MealMenu{Lunch: []string{"Rice and curry"}}},
		{CanteenName: "Juice Bar", Meals: models.MealMenu{Lunch: []string{"Mango juice"}}},
	} {
		if err := asst.UpsertCanteenMenu(ctx, m); err != nil {
			t.Fatalf("seed canteen: %v", err)
		}
	}
}

func doJSONRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode json: %v", err)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("unexpected status %d, body: %s", rec.Code, rec.Body.String())
	}
}

func countMessages(t *testing.T, db *sql.DB, userID int64) int {
	t.Helper()
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM messages WHERE user_id = ?`, userID).Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	return count
}

var userSeq int

func registerAndLogin(t *testing.T, router *gin.Engine, degree string) (int64, map[string]string) {
	t.Helper()
	userSeq++
	username := fmt.Sprintf("tester_%d", userSeq)
	password := "pass123"
	regResp := doJSONRequest(t, router, http.MethodPost, "/api/users/register", map[string]string{
		"username": username,
		"password": password,
		"degree":   degree,
	}, nil)
	assertStatus(t, regResp, http.StatusCreated)
	var regBody struct {
		ID int64 `json:"id"`
	}
	decodeJSON(t, regResp.Body.Bytes(), &regBody)

	loginResp := doJSONRequest(t, router, http.MethodPost, "/api/users/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	assertStatus(t, loginResp, http.StatusOK)
	var loginBody struct {
		AuthToken string `json:"auth_token"`
	}
	decodeJSON(t, loginResp.Body.Bytes(), &loginBody)
	if loginBody.AuthToken == "" {
		t.Fatalf("expected auth token from login")
	}
	return regBody.ID, map[string]string{"Authorization": "Bearer " + loginBody.AuthToken}
}
