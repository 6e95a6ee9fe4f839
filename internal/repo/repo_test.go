package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/captain-yun7/medtranslate-v1/internal/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func TestOpenSQLiteMissingParentDir(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "missing", "test.db"))
	if err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}

func TestRoomLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	room, err := CreateRoom(ctx, db, "vi")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if len(room.ID) != len("room_")+12 {
		t.Fatalf("room ID %q has unexpected shape", room.ID)
	}
	if room.Status != domain.RoomStatusWaiting {
		t.Fatalf("status = %q, want waiting", room.Status)
	}

	got, err := GetRoom(ctx, db, room.ID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if got.CustomerLanguage != "vi" {
		t.Fatalf("customer language = %q, want vi", got.CustomerLanguage)
	}

	if err := AssignAgent(ctx, db, room.ID, "agent-1"); err != nil {
		t.Fatalf("AssignAgent: %v", err)
	}
	got, _ = GetRoom(ctx, db, room.ID)
	if got.Status != domain.RoomStatusActive || got.AgentID != "agent-1" {
		t.Fatalf("after assign: status=%q agent=%q", got.Status, got.AgentID)
	}

	if err := EndRoom(ctx, db, room.ID); err != nil {
		t.Fatalf("EndRoom: %v", err)
	}
	got, _ = GetRoom(ctx, db, room.ID)
	if got.Status != domain.RoomStatusEnded {
		t.Fatalf("status = %q, want ended", got.Status)
	}
	if got.EndedAt == nil {
		t.Fatal("EndedAt not stamped")
	}

	// Ending again keeps the row ended without error.
	if err := EndRoom(ctx, db, room.ID); err != nil {
		t.Fatalf("repeat EndRoom: %v", err)
	}
}

func TestRoomNotFound(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := GetRoom(ctx, db, "room_ffffffffffff"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetRoom err = %v, want ErrNotFound", err)
	}
	if err := EndRoom(ctx, db, "room_ffffffffffff"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("EndRoom err = %v, want ErrNotFound", err)
	}
	if err := AssignAgent(ctx, db, "room_ffffffffffff", "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AssignAgent err = %v, want ErrNotFound", err)
	}
}

func TestListRoomsFilterAndLimit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := CreateRoom(ctx, db, "en"); err != nil {
			t.Fatalf("CreateRoom: %v", err)
		}
	}
	ended, _ := CreateRoom(ctx, db, "ja")
	if err := EndRoom(ctx, db, ended.ID); err != nil {
		t.Fatalf("EndRoom: %v", err)
	}

	all, err := ListRooms(ctx, db, "", 0)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("len(all) = %d, want 4", len(all))
	}

	waiting, err := ListRooms(ctx, db, domain.RoomStatusWaiting, 0)
	if err != nil {
		t.Fatalf("ListRooms(waiting): %v", err)
	}
	if len(waiting) != 3 {
		t.Fatalf("len(waiting) = %d, want 3", len(waiting))
	}

	limited, err := ListRooms(ctx, db, "", 2)
	if err != nil {
		t.Fatalf("ListRooms(limit): %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("len(limited) = %d, want 2", len(limited))
	}
}

func TestMessagesPageOrderedOldestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	room, _ := CreateRoom(ctx, db, "en")
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		m := &domain.Message{
			RoomID:         room.ID,
			SenderType:     domain.SenderCustomer,
			OriginalText:   string(rune('a' + i)),
			TranslatedText: "t",
			SourceLang:     "en",
			TargetLang:     "ko",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := CreateMessage(ctx, db, m); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
		if m.ID == "" {
			t.Fatal("CreateMessage did not assign an ID")
		}
	}

	total, err := CountMessages(ctx, db, room.ID)
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}

	page, err := ListMessagesPage(ctx, db, room.ID, 1, 2)
	if err != nil {
		t.Fatalf("ListMessagesPage: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("len(page) = %d, want 2", len(page))
	}
	if page[0].OriginalText != "b" || page[1].OriginalText != "c" {
		t.Fatalf("page out of order: %q, %q", page[0].OriginalText, page[1].OriginalText)
	}
}

func TestAgentUsernameUnique(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := CreateAgent(ctx, db, "kim", "hash", "Kim"); err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if _, err := CreateAgent(ctx, db, "kim", "hash2", "Other Kim"); err == nil {
		t.Fatal("duplicate username should fail")
	}

	a, err := GetAgentByUsername(ctx, db, "kim")
	if err != nil {
		t.Fatalf("GetAgentByUsername: %v", err)
	}
	if a.DisplayName != "Kim" {
		t.Fatalf("display name = %q, want Kim", a.DisplayName)
	}

	if _, err := GetAgentByUsername(ctx, db, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRoomStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	r1, _ := CreateRoom(ctx, db, "en")
	CreateRoom(ctx, db, "vi")
	if err := EndRoom(ctx, db, r1.ID); err != nil {
		t.Fatalf("EndRoom: %v", err)
	}

	total, byStatus, err := RoomStats(ctx, db)
	if err != nil {
		t.Fatalf("RoomStats: %v", err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if byStatus[domain.RoomStatusWaiting] != 1 || byStatus[domain.RoomStatusEnded] != 1 {
		t.Fatalf("byStatus = %v", byStatus)
	}
}
