package pagination

import (
	"testing"
	"time"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default, got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("expected max, got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
	encoded := EncodeCursor(Cursor{CreatedAt: created, ID: "ORD1700000000000ABC123-2"})

	decoded, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !decoded.CreatedAt.Equal(created) || decoded.ID != "ORD1700000000000ABC123-2" {
		t.Fatalf("unexpected cursor %+v", decoded)
	}

	if c, err := ParseCursor("  "); err != nil || c != nil {
		t.Fatalf("blank cursor should be nil, got %+v %v", c, err)
	}
	if _, err := ParseCursor("%%%"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestTrim(t *testing.T) {
	now := time.Now().UTC()
	rows := []string{"a", "b", "c"}
	cursorOf := func(s string) Cursor { return Cursor{CreatedAt: now, ID: s} }

	page := Trim(rows, 2, cursorOf)
	if len(page.Items) != 2 || page.NextCursor == "" {
		t.Fatalf("expected trimmed page with cursor, got %+v", page)
	}
	next, err := ParseCursor(page.NextCursor)
	if err != nil || next.ID != "b" {
		t.Fatalf("expected cursor at b, got %+v %v", next, err)
	}

	page = Trim(rows, 5, cursorOf)
	if len(page.Items) != 3 || page.NextCursor != "" {
		t.Fatalf("expected full page without cursor, got %+v", page)
	}
}
