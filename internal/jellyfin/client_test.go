package jellyfin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ignite/jellyfin-newsletter/internal/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.JellyfinConfig{
		BaseURL:        baseURL + "/",
		Token:          "test-token",
		TimeoutSeconds: 5,
	})
}

func TestListUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Users" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Emby-Token") != "test-token" {
			t.Error("missing X-Emby-Token header")
		}
		json.NewEncoder(w).Encode([]User{
			{ID: "u1", Name: "Alice"},
			{ID: "u2", Name: "Bob"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].ID != "u1" || users[0].Name != "Alice" {
		t.Errorf("unexpected first user: %+v", users[0])
	}
}

func TestListRecentItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Users/u1/Items/Latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("sortBy") != "DateCreated" {
			t.Errorf("expected sortBy=DateCreated, got %s", q.Get("sortBy"))
		}
		if q.Get("fields") != "Overview" {
			t.Errorf("expected fields=Overview, got %s", q.Get("fields"))
		}
		if q.Get("limit") != "10" {
			t.Errorf("expected limit=10, got %s", q.Get("limit"))
		}
		if q.Get("userId") != "u1" {
			t.Errorf("expected userId=u1, got %s", q.Get("userId"))
		}
		json.NewEncoder(w).Encode([]Item{
			{ID: "i1", Type: TypeMovie, Name: "Heat", ProductionYear: 1995},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	items, err := client.ListRecentItems(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("ListRecentItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Name != "Heat" {
		t.Errorf("unexpected item: %+v", items[0])
	}
}

func TestListUsersAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.ListUsers(context.Background())
	if err == nil {
		t.Fatal("expected error for rejected token")
	}
	if !IsAuthError(err) {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestListUsersServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.ListUsers(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if IsAuthError(err) {
		t.Error("500 must not classify as auth error")
	}
}

func TestListUsersTransportError(t *testing.T) {
	// Point at a closed server to force a transport failure
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := newTestClient(server.URL)

	_, err := client.ListUsers(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if IsAuthError(err) {
		t.Error("transport failure must not classify as auth error")
	}
}
