package entry

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one line of a journal collection.
type Entry struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Message    string    `json:"message,omitempty"`
	Done       bool      `json:"done,omitempty"`
	Created    Timestamp `json:"created"`
}

// New creates an open entry in collection stamped with the current time.
func New(collection, message string) *Entry {
	return &Entry{
		ID:         NewID(),
		Collection: collection,
		Message:    message,
		Created:    Timestamp{Time: time.Now()},
	}
}

// NewID returns a random identifier safe to use in store keys.
func NewID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// Toggle flips the done state.
func (e *Entry) Toggle() {
	e.Done = !e.Done
}

// Symbol is the bullet shown in front of the message.
func (e *Entry) Symbol() string {
	if e.Done {
		return "×"
	}
	return "•"
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s %s", e.Symbol(), e.Message)
}
