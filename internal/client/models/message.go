// Package models defines the records managed by chatkeeper.
package models

import (
	"fmt"
	"time"
)

// MessageType classifies a record. It is set once at creation.
type MessageType string

const (
	TypeTodo     MessageType = "todo"
	TypeReminder MessageType = "reminder"
	TypeNote     MessageType = "note"
)

// Validate reports whether t is one of the known types.
func (t MessageType) Validate() error {
	switch t {
	case TypeTodo, TypeReminder, TypeNote:
		return nil
	}
	return fmt.Errorf("unknown message type: %q", string(t))
}

func (t MessageType) String() string {
	return string(t)
}

// ParseMessageType accepts the singular or plural type name.
func ParseMessageType(s string) (MessageType, error) {
	switch s {
	case "todo", "todos":
		return TypeTodo, nil
	case "reminder", "reminders":
		return TypeReminder, nil
	case "note", "notes":
		return TypeNote, nil
	}
	return "", fmt.Errorf("unknown message type: %q", s)
}

// LinkPreview describes a URL found in a message. URL is its identity within
// the message. A preview starts Loading and settles exactly once, either with
// metadata or with Error set.
type LinkPreview struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Loading     bool   `json:"loading,omitempty"`
	Error       bool   `json:"error,omitempty"`
}

// Message is a single user-entered item.
//
// ReminderDate and NotificationID are either both set or both empty.
// CalendarEventID may be empty while a reminder is active.
type Message struct {
	ID              string        `json:"id"`
	Text            string        `json:"text"`
	Type            MessageType   `json:"type"`
	CreatedAt       time.Time     `json:"createdAt"`
	IsRead          bool          `json:"isRead"`
	IsCompleted     bool          `json:"isCompleted"`
	ReminderDate    *time.Time    `json:"reminderDate,omitempty"`
	NotificationID  string        `json:"notificationId,omitempty"`
	CalendarEventID string        `json:"calendarEventId,omitempty"`
	Links           []LinkPreview `json:"links,omitempty"`
	Encrypted       bool          `json:"encrypted,omitempty"`
}

// HasReminder reports whether the message has an active scheduled alert.
func (m Message) HasReminder() bool {
	return m.NotificationID != ""
}

// Clone returns a deep copy, so snapshots handed to callers never alias
// store state.
func (m Message) Clone() Message {
	c := m
	if m.ReminderDate != nil {
		d := *m.ReminderDate
		c.ReminderDate = &d
	}
	if m.Links != nil {
		c.Links = make([]LinkPreview, len(m.Links))
		copy(c.Links, m.Links)
	}
	return c
}

// QueuedNotification is a persisted alert waiting for its fire time.
type QueuedNotification struct {
	ID        string
	Title     string
	Body      string
	Data      string
	FireAt    time.Time
	Delivered bool
}
