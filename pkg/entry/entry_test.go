package entry

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewEntry(t *testing.T) {
	e := New("Inbox", "hello world")
	if e.ID == "" || strings.Contains(e.ID, "-") {
		t.Fatalf("unexpected id %q", e.ID)
	}
	if e.Done {
		t.Fatal("new entries are open")
	}
	if e.Created.IsZero() {
		t.Fatal("expected a creation time")
	}
	if got := e.String(); got != "• hello world" {
		t.Fatalf("String() = %q", got)
	}
	e.Toggle()
	if got := e.String(); got != "× hello world" {
		t.Fatalf("String() after toggle = %q", got)
	}
}

func TestTimestampJSON(t *testing.T) {
	when := time.Date(2024, 3, 9, 10, 30, 0, 500, time.UTC)
	e := &Entry{ID: "1", Collection: "Inbox", Created: Timestamp{Time: when}}

	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	var got Entry
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Created.Equal(when) {
		t.Fatalf("created = %v, want %v", got.Created, when)
	}
}

func TestTimestampZero(t *testing.T) {
	b, err := json.Marshal(&Entry{ID: "1"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"created":""`) {
		t.Fatalf("unexpected json %s", b)
	}
	var got Entry
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Created.IsZero() {
		t.Fatalf("expected zero time, got %v", got.Created)
	}
}
