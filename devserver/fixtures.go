package devserver

import (
	"strconv"
	"time"

	"boardsync/domain"
)

// seed loads the workspace every dev session starts from.
func (s *Server) seed() {
	now := time.Now().UTC()

	s.contacts = []domain.Contact{
		{ID: "u-ann", Name: "Ann Reyes", Username: "ann", Email: "ann@example.com", Avatar: "/avatars/ann.png", Status: "online"},
		{ID: "u-ben", Name: "Ben Okafor", Username: "ben", Email: "ben@example.com", Avatar: "/avatars/ben.png", Status: "away"},
		{ID: "u-cho", Name: "Cho Mireles", Username: "cho", Email: "cho@example.com", Avatar: "/avatars/cho.png", Status: "offline"},
	}

	s.conversations = map[string]*domain.Conversation{
		"conv-1": {
			ID:   "conv-1",
			Type: "direct",
			Participants: []domain.Participant{
				{ID: "dev", Name: "Dev User"},
				{ID: "u-ann", Name: "Ann Reyes", Avatar: "/avatars/ann.png"},
			},
			UnreadCount: 1,
			Messages: []domain.Message{
				{ID: "m-1", Body: "morning!", ContentType: "text", CreatedAt: now.Add(-time.Hour), SenderID: "u-ann"},
			},
		},
		"conv-2": {
			ID:   "conv-2",
			Type: "group",
			Participants: []domain.Participant{
				{ID: "dev", Name: "Dev User"},
				{ID: "u-ben", Name: "Ben Okafor", Avatar: "/avatars/ben.png"},
				{ID: "u-cho", Name: "Cho Mireles", Avatar: "/avatars/cho.png"},
			},
			Messages: []domain.Message{},
		},
	}
	s.convOrder = []string{"conv-1", "conv-2"}

	s.board = &boardState{
		id: "board-1",
		cards: map[string]*domain.Card{
			"card-1": {ID: "card-1", Name: "Draft release notes", Description: "v2.4 highlights"},
			"card-2": {ID: "card-2", Name: "Fix login redirect"},
			"card-3": {ID: "card-3", Name: "Ship dark mode", Completed: true},
		},
		columns: map[string]*domain.Column{
			"col-todo": {ID: "col-todo", Name: "To Do", CardIDs: []string{"card-1", "card-2"}},
			"col-done": {ID: "col-done", Name: "Done", CardIDs: []string{"card-3"}},
		},
		columnOrder: []string{"col-todo", "col-done"},
	}

	starts := now.Add(-30 * 24 * time.Hour)
	s.projects = []domain.Project{
		{
			ID: "proj-1", UserID: "dev", Name: "Atlas", Description: "Internal admin revamp",
			Budget: 42000, Status: domain.ProjectInProgress, StartsAt: &starts,
			Participants: []domain.Participant{{ID: "u-ann", Name: "Ann Reyes"}},
		},
	}
}

// newID issues server-side ids, monotonic within a process.
func (s *Server) newID(prefix string) string {
	s.nextID++
	return prefix + "-" + strconv.Itoa(s.nextID)
}
