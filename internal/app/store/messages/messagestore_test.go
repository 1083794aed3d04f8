package messagestore

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicworks/civicconnect/internal/testutil"
)

func TestSendAndListForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := New(db)

	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	carol := primitive.NewObjectID()

	if _, err := s.Send(ctx, NewMessage{Sender: alice, Recipient: bob, Subject: "Hi", Content: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := s.Send(ctx, NewMessage{Sender: bob, Recipient: alice, Subject: "Re: Hi", Content: "hey"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := s.Send(ctx, NewMessage{Sender: bob, Recipient: carol, Subject: "other", Content: "x"}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs, total, err := s.ListForUser(ctx, alice, ListFilter{}, 0, 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if total != 2 || len(msgs) != 2 {
		t.Errorf("alice sees %d messages, want 2", total)
	}

	unread, err := s.UnreadCount(ctx, alice)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if unread != 1 {
		t.Errorf("unread = %d, want 1", unread)
	}
}

func TestMarkReadOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := New(db)

	m, err := s.Send(ctx, NewMessage{
		Sender:    primitive.NewObjectID(),
		Recipient: primitive.NewObjectID(),
		Subject:   "s",
		Content:   "c",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := s.MarkRead(ctx, m.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	got, err := s.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.IsRead || got.ReadAt == nil {
		t.Errorf("read state: %+v", got)
	}
	first := *got.ReadAt

	// Second mark is a no-op; read_at keeps the first stamp.
	if err := s.MarkRead(ctx, m.ID); err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	got, _ = s.GetByID(ctx, m.ID)
	if !got.ReadAt.Equal(first) {
		t.Errorf("read_at moved: %v -> %v", first, got.ReadAt)
	}

	if err := s.MarkRead(ctx, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing message MarkRead = %v, want ErrNotFound", err)
	}
}

func TestSoftDeleteHidesFromListings(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := New(db)

	alice := primitive.NewObjectID()
	m, err := s.Send(ctx, NewMessage{Sender: alice, Recipient: primitive.NewObjectID(), Subject: "s", Content: "c"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if err := s.SoftDelete(ctx, m.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	_, total, err := s.ListForUser(ctx, alice, ListFilter{}, 0, 10)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if total != 0 {
		t.Errorf("deleted message still listed, total=%d", total)
	}

	// The document itself survives soft delete.
	if _, err := s.GetByID(ctx, m.ID); err != nil {
		t.Errorf("GetByID after soft delete: %v", err)
	}
}

func TestArchive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := New(db)

	m, err := s.Send(ctx, NewMessage{Sender: primitive.NewObjectID(), Recipient: primitive.NewObjectID(), Subject: "s", Content: "c"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := s.Archive(ctx, m.ID); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	got, _ := s.GetByID(ctx, m.ID)
	if !got.IsArchived || got.ArchivedAt == nil {
		t.Errorf("archive state: %+v", got)
	}
}
