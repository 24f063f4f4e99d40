package handlers

import (
	"net/http"
	"testing"

	"github.com/tbourn/fandom-backend/internal/domain"
	"github.com/tbourn/fandom-backend/internal/services"
)

func TestSyncUser_CreatesThenReturnsExisting(t *testing.T) {
	db := newHandlersDB(t)
	r := newTestRouter(newTestHandlers(db))

	w := do(t, r, "newbie", http.MethodPost, "/users/sync", map[string]string{"username": "new_fan", "displayName": "New Fan"})
	expectStatus(t, w, http.StatusCreated)
	created := decode[domain.User](t, w)
	if created.ID == "" || created.Username != "new_fan" {
		t.Fatalf("unexpected user: %+v", created)
	}

	// the payload is ignored once the subject is bound
	w = do(t, r, "newbie", http.MethodPost, "/users/sync", map[string]string{"username": "other_name"})
	expectStatus(t, w, http.StatusOK)
	if again := decode[domain.User](t, w); again.ID != created.ID || again.Username != "new_fan" {
		t.Fatalf("sync must be idempotent per subject: %+v", again)
	}

	w = do(t, r, "someone", http.MethodPost, "/users/sync", map[string]string{"username": "x"})
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, r, "someone", http.MethodPost, "/users/sync", map[string]string{"username": "new_fan"})
	expectStatus(t, w, http.StatusConflict)
	if e := decode[ErrorResponse](t, w); e.Code != ErrCodeConflict || e.RequestID == "" {
		t.Fatalf("unexpected envelope: %+v", e)
	}

	w = do(t, r, "someone", http.MethodPost, "/users/sync", "{not json")
	expectStatus(t, w, http.StatusBadRequest)
}

func TestMe_GetAndUpdate(t *testing.T) {
	db := newHandlersDB(t)
	seedUsers(t, db, "alice")
	r := newTestRouter(newTestHandlers(db))

	w := do(t, r, "alice", http.MethodPatch, "/users/me", map[string]string{"bio": "  Lakers forever  "})
	expectStatus(t, w, http.StatusOK)
	if u := decode[domain.User](t, w); u.Bio != "Lakers forever" || u.DisplayName != "alice" {
		t.Fatalf("unexpected update: %+v", u)
	}

	w = do(t, r, "alice", http.MethodPatch, "/users/me", map[string]string{"avatarURL": "not a url"})
	expectStatus(t, w, http.StatusBadRequest)

	w = do(t, r, "alice", http.MethodGet, "/users/me", nil)
	expectStatus(t, w, http.StatusOK)
	if u := decode[domain.User](t, w); u.Bio != "Lakers forever" {
		t.Fatalf("bio not persisted: %+v", u)
	}
}

func TestProfileAndSearch_CarryFriendshipStatus(t *testing.T) {
	db := newHandlersDB(t)
	seedUsers(t, db, "alice", "alfred", "bob")
	r := newTestRouter(newTestHandlers(db))

	expectStatus(t, do(t, r, "alice", http.MethodPost, "/friends/request", map[string]string{"addresseeId": "alfred"}), http.StatusCreated)

	w := do(t, r, "alfred", http.MethodGet, "/users/alice", nil)
	expectStatus(t, w, http.StatusOK)
	if p := decode[services.ProfileView](t, w); p.FriendshipStatus != "INCOMING_REQUEST" || p.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	w = do(t, r, "alice", http.MethodGet, "/users/search?q=AL", nil)
	expectStatus(t, w, http.StatusOK)
	hits := decode[[]services.UserSearchResult](t, w)
	if len(hits) != 1 || hits[0].ID != "alfred" || hits[0].FriendshipStatus != "OUTGOING_REQUEST" {
		t.Fatalf("search must exclude the caller and carry status: %+v", hits)
	}

	w = do(t, r, "alice", http.MethodGet, "/users/search?q=", nil)
	expectStatus(t, w, http.StatusOK)
	if hits := decode[[]services.UserSearchResult](t, w); len(hits) != 0 {
		t.Fatalf("blank search should be empty, got %d", len(hits))
	}

	expectStatus(t, do(t, r, "alice", http.MethodGet, "/users/ghost", nil), http.StatusNotFound)
}
