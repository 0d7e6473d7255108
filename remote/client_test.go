package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"boardsync/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-token", log.New())
}

func TestContactsSendsBearerAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/contacts" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		_ = sonic.ConfigStd.NewEncoder(w).Encode(contactsResponse{
			Contacts: []domain.Contact{{ID: "c1", Name: "Ada"}},
		})
	})

	contacts, err := c.Contacts(context.Background())
	if err != nil {
		t.Fatalf("contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].ID != "c1" {
		t.Fatalf("unexpected contacts: %#v", contacts)
	}
}

func TestNon2xxBecomesTypedError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "board not found", http.StatusNotFound)
	})

	_, err := c.Board(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected an error")
	}
	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *remote.Error, got %T", err)
	}
	if re.Status != http.StatusNotFound || re.Body != "board not found" {
		t.Fatalf("unexpected error contents: %+v", re)
	}
}

func TestIsStatusSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load board: %w", &Error{Status: http.StatusNotFound, Path: "/api/board/nope"})
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatal("wrapped 404 not recognized")
	}
	if IsStatus(err, http.StatusForbidden) {
		t.Fatal("status mismatch should not match")
	}
	if IsStatus(errors.New("plain"), http.StatusNotFound) {
		t.Fatal("non-remote error should not match")
	}
}

func TestMarkConversationSeenUsesDelete(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.MarkConversationSeen(context.Background(), "7"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/chat/conversation/mark-as-seen/7" {
		t.Fatalf("unexpected request: %s %s", gotMethod, gotPath)
	}
}

func TestUpdateColumnSendsFullObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/kanban/columns/col-1" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var col domain.Column
		if err := sonic.ConfigStd.NewDecoder(r.Body).Decode(&col); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(col.CardIDs) != 2 {
			t.Fatalf("expected complete card id sequence, got %v", col.CardIDs)
		}
		_ = sonic.ConfigStd.NewEncoder(w).Encode(col)
	})

	out, err := c.UpdateColumn(context.Background(), domain.Column{
		ID: "col-1", Name: "todo", CardIDs: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("update column: %v", err)
	}
	if out.ID != "col-1" {
		t.Fatalf("unexpected column echo: %+v", out)
	}
}

func TestUpdateCardSendsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("name"); got != "renamed" {
			t.Fatalf("unexpected name field: %q", got)
		}
		if got := r.MultipartForm.Value["assignee[]"]; len(got) != 2 {
			t.Fatalf("expected flattened assignee parts, got %v", got)
		}
		w.WriteHeader(http.StatusOK)
	})

	form := NewForm().
		Set("name", "renamed").
		Set("assignee", []string{"u1", "u2"})
	if err := c.UpdateCard(context.Background(), "card-9", form); err != nil {
		t.Fatalf("update card: %v", err)
	}
}

func TestEmptyResponseBodyIsAccepted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 200 with an empty body still decodes into the zero value.
	if _, err := c.Conversation(context.Background(), "7"); err != nil {
		t.Fatalf("empty body: %v", err)
	}
}
