package domain

import "time"

// Contact is a user reachable from the chat contact list.
type Contact struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Avatar       string    `json:"avatar,omitempty"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email"`
	LastActivity time.Time `json:"lastActivity,omitempty"`
	Status       string    `json:"status,omitempty"`
	Role         string    `json:"role,omitempty"`
}

// EntityID implements store.Entity.
func (c Contact) EntityID() string { return c.ID }

// Participant describes a member of a conversation or project.
type Participant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Email    string `json:"email,omitempty"`
	Status   string `json:"status,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Attachment is a file descriptor attached to a message or card.
type Attachment struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Type      string    `json:"type"`
	Path      string    `json:"path,omitempty"`
	Preview   string    `json:"preview,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Message is a single chat message. Placeholder messages created by the
// optimistic send path carry a client-generated id until the server
// acknowledgement replaces it with the canonical one.
type Message struct {
	ID          string       `json:"id"`
	Body        string       `json:"body"`
	ContentType string       `json:"contentType"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	SenderID    string       `json:"senderId"`
}

// Conversation groups participants with their chronological message list.
// Messages are append-only and never re-sorted.
type Conversation struct {
	ID           string        `json:"id"`
	Type         string        `json:"type,omitempty"`
	Participants []Participant `json:"participants"`
	UnreadCount  int           `json:"unreadCount"`
	Messages     []Message     `json:"messages"`
}

// EntityID implements store.Entity.
func (c Conversation) EntityID() string { return c.ID }

// MessagePost is the outbound payload of a channel message post. The
// acknowledgement carries the canonical created Message.
type MessagePost struct {
	Body           string       `json:"body"`
	ConversationID string       `json:"conversationId"`
	ContentType    string       `json:"contentType"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Notification is synthesized locally when a foreign message arrives on the
// push channel. It never round-trips to the server.
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Avatar      string    `json:"avatar"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"createdAt"`
	Unread      bool      `json:"isUnRead"`
}
