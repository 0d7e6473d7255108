package dispatch

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"boardsync/domain"
	"boardsync/store"
)

// SendIntent is a user request to post a message into a conversation.
type SendIntent struct {
	ConversationID string
	Body           string
	ContentType    string
	Attachments    []domain.Attachment
}

func (i SendIntent) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ConversationID, validation.Required),
		validation.Field(&i.Body, validation.Required.When(len(i.Attachments) == 0)),
	)
}

// LoadContacts fetches the contact list into the store.
func (d *Dispatcher) LoadContacts(ctx context.Context) {
	d.store.StartLoading(store.ChatDomain)
	contacts, err := d.remote.Contacts(ctx)
	if err != nil {
		d.fail(store.ChatDomain, "chat.loadContacts", err)
		return
	}
	d.store.ReplaceContacts(contacts)
}

// LoadConversations fetches the conversation list into the store.
func (d *Dispatcher) LoadConversations(ctx context.Context) {
	d.store.StartLoading(store.ChatDomain)
	convs, err := d.remote.Conversations(ctx)
	if err != nil {
		d.fail(store.ChatDomain, "chat.loadConversations", err)
		return
	}
	d.store.ReplaceConversations(convs)
}

// OpenConversation fetches a single conversation, activates it, and marks it
// read on the server.
func (d *Dispatcher) OpenConversation(ctx context.Context, conversationID string) {
	if conversationID == "" {
		d.dropInvalid("chat.openConversation", errEmptyID)
		return
	}
	d.store.StartLoading(store.ChatDomain)
	conv, err := d.remote.Conversation(ctx, conversationID)
	if err != nil {
		d.fail(store.ChatDomain, "chat.openConversation", err)
		return
	}
	d.store.SetConversation(conv)
	d.MarkConversationRead(ctx, conversationID)
}

// CloseConversation deactivates the active conversation.
func (d *Dispatcher) CloseConversation() {
	d.store.ResetActiveConversation()
}

// LoadParticipants fetches the participant roster of a conversation.
func (d *Dispatcher) LoadParticipants(ctx context.Context, conversationID string) {
	if conversationID == "" {
		d.dropInvalid("chat.loadParticipants", errEmptyID)
		return
	}
	ps, err := d.remote.Participants(ctx, conversationID)
	if err != nil {
		d.fail(store.ChatDomain, "chat.loadParticipants", err)
		return
	}
	d.store.SetParticipants(ps)
}

// SetRecipients records the compose-to recipient selection.
func (d *Dispatcher) SetRecipients(ps []domain.Participant) {
	d.store.SetRecipients(ps)
}

// SearchConversations queries conversations without touching the cached list.
func (d *Dispatcher) SearchConversations(ctx context.Context, query string) ([]domain.Conversation, error) {
	return d.remote.SearchConversations(ctx, query)
}

// SendMessage appends a placeholder message immediately, posts the message
// over the push channel, and swaps the placeholder for the acknowledged
// canonical message. A rejected post removes the placeholder and records the
// error on the chat domain.
func (d *Dispatcher) SendMessage(ctx context.Context, intent SendIntent) {
	if err := intent.Validate(); err != nil {
		d.dropInvalid("chat.sendMessage", err)
		return
	}
	contentType := intent.ContentType
	if contentType == "" {
		contentType = "text"
	}

	tempID := "tmp-" + uuid.NewString()
	placeholder := domain.Message{
		ID:          tempID,
		Body:        intent.Body,
		ContentType: contentType,
		Attachments: intent.Attachments,
		CreatedAt:   time.Now().UTC(),
		SenderID:    d.sess.UserID,
	}
	if !d.store.AppendMessage(intent.ConversationID, placeholder) {
		d.dropInvalid("chat.sendMessage", errUnknownConversation)
		return
	}
	tx := d.journal.open(func() {
		d.store.RemoveMessage(intent.ConversationID, tempID)
	})
	d.sends.add(intent.ConversationID, tempID)

	ack, err := d.channel.PostMessage(ctx, domain.MessagePost{
		Body:           intent.Body,
		ConversationID: intent.ConversationID,
		ContentType:    contentType,
		Attachments:    intent.Attachments,
	})
	if err != nil {
		d.sends.remove(intent.ConversationID, tempID)
		d.journal.rollback(tx)
		d.fail(store.ChatDomain, "chat.sendMessage", err)
		return
	}
	d.journal.commit(tx)
	// ReplaceMessage drops the ack when the push echo already settled the
	// placeholder with the same canonical id.
	d.store.ReplaceMessage(intent.ConversationID, tempID, ack)
	d.sends.remove(intent.ConversationID, tempID)
}

// MarkConversationRead clears the unread counter, server first. The local
// counter is only cleared once the server accepted the reset, so a failed
// call leaves the badge intact.
func (d *Dispatcher) MarkConversationRead(ctx context.Context, conversationID string) {
	if conversationID == "" {
		d.dropInvalid("chat.markConversationRead", errEmptyID)
		return
	}
	if err := d.remote.MarkConversationSeen(ctx, conversationID); err != nil {
		d.fail(store.ChatDomain, "chat.markConversationRead", err)
		return
	}
	d.store.MarkConversationRead(conversationID)
}
