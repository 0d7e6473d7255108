package store

import "boardsync/domain"

// ReplaceContacts rebuilds the contact collection from a full fetch.
func (s *Store) ReplaceContacts(contacts []domain.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.contacts.ReplaceAll(contacts)
	s.chat.status.Loading = false
}

// ReplaceConversations rebuilds the conversation collection from a full
// fetch. Fetches replace wholesale; entities are only ever removed by
// explicit delete mutations, never by fetch diffing.
func (s *Store) ReplaceConversations(convs []domain.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.conversations.ReplaceAll(convs)
	s.chat.status.Loading = false
}

// SetConversation upserts a single conversation and marks it active.
func (s *Store) SetConversation(conv domain.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.conversations.Upsert(conv)
	s.chat.activeConversationID = conv.ID
	s.chat.status.Loading = false
}

// ResetActiveConversation clears the active conversation id.
func (s *Store) ResetActiveConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.activeConversationID = ""
}

// ActiveConversationID returns the currently active conversation id.
func (s *Store) ActiveConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.activeConversationID
}

// Contacts returns the contacts in presentation order.
func (s *Store) Contacts() []domain.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.contacts.All()
}

// Conversation returns a copy of one conversation.
func (s *Store) Conversation(id string) (domain.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.chat.conversations.Get(id)
	if !ok {
		return domain.Conversation{}, false
	}
	conv.Messages = append([]domain.Message(nil), conv.Messages...)
	return conv, true
}

// Conversations returns all conversations in presentation order.
func (s *Store) Conversations() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.conversations.All()
}

// AppendMessage appends msg to the conversation's message sequence. It
// reports false when the conversation is unknown.
func (s *Store) AppendMessage(convID string, msg domain.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendMessageLocked(convID, msg)
}

func (s *Store) appendMessageLocked(convID string, msg domain.Message) bool {
	conv, ok := s.chat.conversations.Get(convID)
	if !ok {
		return false
	}
	conv.Messages = append(conv.Messages, msg)
	s.chat.conversations.Upsert(conv)
	return true
}

// HasMessage reports whether the conversation already holds a message with
// the given id.
func (s *Store) HasMessage(convID, msgID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.chat.conversations.Get(convID)
	if !ok {
		return false
	}
	for _, m := range conv.Messages {
		if m.ID == msgID {
			return true
		}
	}
	return false
}

// ReplaceMessage swaps the message identified by oldID for the canonical
// server message. When oldID is gone (a push event already merged the
// canonical copy) the message is appended only if its id is not yet present,
// so the ack and the push path never double up.
func (s *Store) ReplaceMessage(convID, oldID string, msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.chat.conversations.Get(convID)
	if !ok {
		return
	}
	for i, m := range conv.Messages {
		if m.ID == oldID {
			// Copy before writing: conversation copies handed to readers
			// share the backing array.
			msgs := append([]domain.Message(nil), conv.Messages...)
			msgs[i] = msg
			conv.Messages = msgs
			s.chat.conversations.Upsert(conv)
			return
		}
	}
	for _, m := range conv.Messages {
		if m.ID == msg.ID {
			return
		}
	}
	conv.Messages = append(conv.Messages, msg)
	s.chat.conversations.Upsert(conv)
}

// RemoveMessage drops a message from the conversation, used to undo a failed
// optimistic send.
func (s *Store) RemoveMessage(convID, msgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.chat.conversations.Get(convID)
	if !ok {
		return
	}
	for i, m := range conv.Messages {
		if m.ID == msgID {
			msgs := append([]domain.Message(nil), conv.Messages[:i]...)
			conv.Messages = append(msgs, conv.Messages[i+1:]...)
			s.chat.conversations.Upsert(conv)
			return
		}
	}
}

// BumpUnread increments the conversation's unread counter.
func (s *Store) BumpUnread(convID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.chat.conversations.Get(convID)
	if !ok {
		return
	}
	conv.UnreadCount++
	s.chat.conversations.Upsert(conv)
}

// MarkConversationRead zeroes the conversation's unread counter.
func (s *Store) MarkConversationRead(convID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.chat.conversations.Get(convID)
	if !ok {
		return
	}
	conv.UnreadCount = 0
	s.chat.conversations.Upsert(conv)
	s.chat.status.Loading = false
}

// SetParticipants stores the participants of the selected conversation.
func (s *Store) SetParticipants(ps []domain.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.participants = append([]domain.Participant(nil), ps...)
	s.chat.status.Loading = false
}

// Participants returns the participants of the selected conversation.
func (s *Store) Participants() []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Participant(nil), s.chat.participants...)
}

// SetRecipients stores the compose-to recipient set.
func (s *Store) SetRecipients(ps []domain.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.recipients = append([]domain.Participant(nil), ps...)
}

// Recipients returns the compose-to recipient set.
func (s *Store) Recipients() []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Participant(nil), s.chat.recipients...)
}

// AddNotification appends a synthesized notification to the feed.
func (s *Store) AddNotification(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.notifications = append(s.chat.notifications, n)
}

// Notifications returns the notification feed, oldest first.
func (s *Store) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.chat.notifications...)
}
