package assistant

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"campusbot/internal/config"
	"campusbot/internal/models"
	"campusbot/internal/storage"
)

func TestRegisterAndLogin(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "  alice ", "secret", "", models.DegreeIT)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Username != "alice" || user.Role != models.RoleStudent || user.Degree != models.DegreeIT {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.PasswordHash == "secret" {
		t.Fatalf("password stored in plaintext")
	}

	got, err := svc.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, got.ID)
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db)
	ctx := context.Background()

	if _, err := svc.RegisterUser(ctx, "bob", "pw", models.RoleStaff, ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.RegisterUser(ctx, "bob", "pw2", models.RoleStaff, ""); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}
	if _, err := svc.RegisterUser(ctx, "", "pw", "", ""); err == nil {
		t.Fatalf("expected error for empty username")
	}
	if _, err := svc.RegisterUser(ctx, "carol", "pw", "wizard", ""); err == nil {
		t.Fatalf("expected error for unknown role")
	}
	if _, err := svc.RegisterUser(ctx, "carol", "pw", "", "Astrology"); err == nil {
		t.Fatalf("expected error for unknown degree")
	}
}

func TestPrincipalAndUpdateDegree(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, "dave", "pw", models.RoleStudent, "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	p, err := svc.Principal(ctx, user.ID)
	if err != nil {
		t.Fatalf("principal: %v", err)
	}
	if p.Degree != "" || p.Role != models.RoleStudent {
		t.Fatalf("unexpected principal %+v", p)
	}

	if err := svc.UpdateDegree(ctx, user.ID, models.DegreeDesign); err != nil {
		t.Fatalf("update degree: %v", err)
	}
	p, err = svc.Principal(ctx, user.ID)
	if err != nil {
		t.Fatalf("principal: %v", err)
	}
	if p.Degree != models.DegreeDesign {
		t.Fatalf("expected Design, got %q", p.Degree)
	}

	if err := svc.UpdateDegree(ctx, 9999, models.DegreeAI); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
	if _, err := svc.Principal(ctx, 9999); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDeleteUserRemovesMessages(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db)
	ctx := context.Background()

	userID := insertTestUser(t, db, "erin")
	if _, err := svc.AppendMessage(ctx, models.Message{UserID: userID, Content: "hi", IsUser: true}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := svc.DeleteUser(ctx, userID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM messages WHERE user_id = ?`, userID).Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected messages to cascade, found %d", count)
	}
	if err := svc.DeleteUser(ctx, userID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows on second delete, got %v", err)
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
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
	return db
}

func insertTestUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	now := time.Now().UTC()
	res, err := db.Exec(`INSERT INTO users (username, password_hash, created_at) VALUES (?, '', ?)`, username, now)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	return id
}
