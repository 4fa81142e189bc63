package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidgallery/backend/internal/cache"
)

func newTestManager(t *testing.T, accessTTL, refreshTTL time.Duration) (*Manager, *InMemorySessionStore) {
	t.Helper()
	access := cache.NewMemoryStore(0)
	t.Cleanup(func() { access.Close() })
	store := NewInMemorySessionStore()
	return NewManager(accessTTL, refreshTTL, store, access), store
}

func TestManagerIssueAndRefresh(t *testing.T) {
	manager, store := newTestManager(t, time.Minute, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if store.Has(tokens.RefreshToken) {
		t.Fatal("old token should have been removed")
	}
	if !store.Has(refreshed.RefreshToken) {
		t.Fatal("new token should have been stored")
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager, _ := newTestManager(t, time.Minute, time.Hour)
	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	manager, _ := newTestManager(t, time.Minute, time.Millisecond)

	if _, err := manager.Refresh(context.Background(), ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected refresh expired got %v", err)
	}

	tokens, err = manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.Revoke(context.Background(), tokens.RefreshToken)
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found after revoke got %v", err)
	}
}

func TestManagerAuthenticate(t *testing.T) {
	manager, _ := newTestManager(t, time.Minute, time.Hour)
	ctx := context.Background()

	tokens, err := manager.Issue(ctx, "user-7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := manager.Authenticate(ctx, " "+tokens.AccessToken+" ")
	if err != nil || userID != "user-7" {
		t.Fatalf("authenticate: %q %v", userID, err)
	}

	for _, token := range []string{"", "unknown", tokens.RefreshToken} {
		if _, err := manager.Authenticate(ctx, token); !errors.Is(err, ErrInvalidAccessToken) {
			t.Errorf("Authenticate(%q) = %v, want ErrInvalidAccessToken", token, err)
		}
	}

	manager.RevokeAccess(ctx, tokens.AccessToken)
	if _, err := manager.Authenticate(ctx, tokens.AccessToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("revoked token still valid: %v", err)
	}
}

func TestManagerAccessTokenExpires(t *testing.T) {
	manager, _ := newTestManager(t, time.Millisecond, time.Hour)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(3 * time.Millisecond)

	if _, err := manager.Authenticate(context.Background(), tokens.AccessToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected expired access token, got %v", err)
	}
}

func TestInMemorySessionStorePrunesExpired(t *testing.T) {
	store := NewInMemorySessionStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Save(ctx, Session{RefreshToken: "old", UserID: "u", ExpiresAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("save: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := store.Save(ctx, Session{RefreshToken: "new", UserID: "u", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if store.Has("old") {
		t.Fatal("expired session should have been pruned")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one session, got %d", store.Len())
	}
	if _, err := store.Find(ctx, "old"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
