package remote

import (
	"context"
	"net/url"

	"boardsync/domain"
)

type contactsResponse struct {
	Contacts []domain.Contact `json:"contacts"`
}

// Contacts fetches the full contact list.
func (c *Client) Contacts(ctx context.Context) ([]domain.Contact, error) {
	var resp contactsResponse
	if err := c.getJSON(ctx, "/api/contacts", &resp); err != nil {
		return nil, err
	}
	return resp.Contacts, nil
}

// Conversations fetches every conversation of the session user.
func (c *Client) Conversations(ctx context.Context) ([]domain.Conversation, error) {
	var out []domain.Conversation
	if err := c.getJSON(ctx, "/api/chat/conversation", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Conversation fetches one conversation with its full message history.
func (c *Client) Conversation(ctx context.Context, id string) (domain.Conversation, error) {
	var out domain.Conversation
	err := c.getJSON(ctx, "/api/chat/conversation/"+url.PathEscape(id), &out)
	return out, err
}

// Participants fetches the participants of a conversation.
func (c *Client) Participants(ctx context.Context, conversationID string) ([]domain.Participant, error) {
	var out []domain.Participant
	err := c.getJSON(ctx, "/api/chat/conversation/participants/"+url.PathEscape(conversationID), &out)
	return out, err
}

// MarkConversationSeen clears the unread counter server-side. The API uses
// the DELETE verb for this.
func (c *Client) MarkConversationSeen(ctx context.Context, conversationID string) error {
	return c.delete(ctx, "/api/chat/conversation/mark-as-seen/"+url.PathEscape(conversationID))
}

// SearchConversations runs a server-side conversation search.
func (c *Client) SearchConversations(ctx context.Context, query string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := c.getJSON(ctx, "/api/chat/search?query="+url.QueryEscape(query), &out)
	return out, err
}

// Board fetches a full kanban board.
func (c *Client) Board(ctx context.Context, boardID string) (domain.Board, error) {
	var out domain.Board
	err := c.getJSON(ctx, "/api/kanban/board/"+url.PathEscape(boardID), &out)
	return out, err
}

type boardOrderRequest struct {
	ColumnOrder []string `json:"columnOrder"`
}

// UpdateBoardOrder persists the full top-level column order after a column
// drag.
func (c *Client) UpdateBoardOrder(ctx context.Context, boardID string, order []string) error {
	return c.patchJSON(ctx, "/api/kanban/board/"+url.PathEscape(boardID), boardOrderRequest{ColumnOrder: order}, nil)
}

type createColumnRequest struct {
	Name    string `json:"name"`
	BoardID string `json:"boardId"`
}

// CreateColumn creates a column and returns the server-issued record.
func (c *Client) CreateColumn(ctx context.Context, boardID, name string) (domain.Column, error) {
	var out domain.Column
	err := c.postJSON(ctx, "/api/kanban/columns", createColumnRequest{Name: name, BoardID: boardID}, &out)
	return out, err
}

// UpdateColumn replaces the full column object server-side and returns the
// canonical copy. Card moves persist through this same coarse path.
func (c *Client) UpdateColumn(ctx context.Context, col domain.Column) (domain.Column, error) {
	var out domain.Column
	err := c.patchJSON(ctx, "/api/kanban/columns/"+url.PathEscape(col.ID), col, &out)
	return out, err
}

// DeleteColumn removes a column and everything it holds.
func (c *Client) DeleteColumn(ctx context.Context, columnID string) error {
	return c.delete(ctx, "/api/kanban/columns/"+url.PathEscape(columnID))
}

// CreateCard creates a card inside a column. Comments never travel with the
// create payload.
func (c *Client) CreateCard(ctx context.Context, columnID string, card domain.Card) error {
	card.Comments = nil
	return c.postJSON(ctx, "/api/kanban/card/"+url.PathEscape(columnID), card, nil)
}

// UpdateCard patches a card with a multipart payload carrying field edits
// and any attached files.
func (c *Client) UpdateCard(ctx context.Context, cardID string, form *Form) error {
	return c.patchMultipart(ctx, "/api/kanban/card/"+url.PathEscape(cardID), form, nil)
}

// DeleteCard removes a card.
func (c *Client) DeleteCard(ctx context.Context, cardID string) error {
	return c.delete(ctx, "/api/kanban/card/"+url.PathEscape(cardID))
}

type createCommentRequest struct {
	domain.Comment
	CardID string `json:"cardId"`
}

// CreateComment attaches a comment to a card.
func (c *Client) CreateComment(ctx context.Context, cardID string, comment domain.Comment) error {
	return c.postJSON(ctx, "/api/kanban/comment", createCommentRequest{Comment: comment, CardID: cardID}, nil)
}

// Projects fetches the project list.
func (c *Client) Projects(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	err := c.getJSON(ctx, "/api/project", &out)
	return out, err
}

// ProjectByName fetches one project by display name.
func (c *Client) ProjectByName(ctx context.Context, name string) (domain.Project, error) {
	var out domain.Project
	err := c.getJSON(ctx, "/api/project?name="+url.QueryEscape(name), &out)
	return out, err
}

// CreateProject creates a project from a multipart form (cover images ride
// along as file parts) and returns the server record.
func (c *Client) CreateProject(ctx context.Context, form *Form) (domain.Project, error) {
	var out domain.Project
	err := c.postMultipart(ctx, "/api/project", form, &out)
	return out, err
}

// UpdateProject patches a project from a multipart form.
func (c *Client) UpdateProject(ctx context.Context, projectID string, form *Form) (domain.Project, error) {
	var out domain.Project
	err := c.patchMultipart(ctx, "/api/project/"+url.PathEscape(projectID), form, &out)
	return out, err
}

// InviteToProject sends a project invitation.
func (c *Client) InviteToProject(ctx context.Context, inv domain.Invitation) error {
	return c.postJSON(ctx, "/api/project/invitation", inv, nil)
}

// NotInvitedUsers lists users who can still be invited to the project.
func (c *Client) NotInvitedUsers(ctx context.Context, projectID string) ([]domain.Contact, error) {
	var out []domain.Contact
	err := c.getJSON(ctx, "/api/project/notInvitedUsers/"+url.PathEscape(projectID), &out)
	return out, err
}
