package query_test

import (
	"context"
	"errors"
	"testing"

	appcommand "github.com/0xsj/overwatch-linker/internal/app/command"
	appquery "github.com/0xsj/overwatch-linker/internal/app/query"
	domainerror "github.com/0xsj/overwatch-linker/internal/domain/error"
	"github.com/0xsj/overwatch-linker/internal/port/inbound/query"
	"github.com/0xsj/overwatch-linker/internal/testutil"
	"github.com/0xsj/overwatch-linker/internal/testutil/mocks"
)

func TestGetClient(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewClientRepository()
	cache := mocks.NewClientCache()
	handler := appquery.NewGetClientHandler(repo, cache)

	repo.AddClient(testutil.Fixtures.LinkedClient("alice", testutil.Fixtures.Principal("google", "Alice")))

	t.Run("found populates cache", func(t *testing.T) {
		result, err := handler.Handle(ctx, query.GetClient{Name: "alice"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Client.Name() != "alice" {
			t.Errorf("name = %q, want alice", result.Client.Name())
		}
		if !cache.Has("alice") {
			t.Error("expected client cached")
		}
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		calls := repo.Calls.FindByName
		if _, err := handler.Handle(ctx, query.GetClient{Name: "alice"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.Calls.FindByName != calls {
			t.Error("expected cache hit")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := handler.Handle(ctx, query.GetClient{Name: "nobody"})
		if !errors.Is(err, domainerror.ErrClientNotFound) {
			t.Errorf("expected ErrClientNotFound, got: %v", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := handler.Handle(ctx, query.GetClient{})
		if !errors.Is(err, domainerror.ErrClientNameRequired) {
			t.Errorf("expected ErrClientNameRequired, got: %v", err)
		}
	})
}

func TestGetSessionClient(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewClientRepository()
	handler := appquery.NewGetSessionClientHandler(repo, nil, appcommand.DefaultClientAttribute)

	repo.AddClient(testutil.Fixtures.LinkedClient("alice", testutil.Fixtures.Principal("google", "Alice")))

	t.Run("logged in", func(t *testing.T) {
		sess := mocks.NewSession("s1")
		_ = sess.SetAttribute(ctx, appcommand.DefaultClientAttribute, "alice")

		result, err := handler.Handle(ctx, query.GetSessionClient{Session: sess})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Client.Name() != "alice" {
			t.Errorf("name = %q, want alice", result.Client.Name())
		}
	})

	t.Run("not logged in", func(t *testing.T) {
		_, err := handler.Handle(ctx, query.GetSessionClient{Session: mocks.NewSession("s2")})
		if !errors.Is(err, domainerror.ErrNotLoggedIn) {
			t.Errorf("expected ErrNotLoggedIn, got: %v", err)
		}
	})

	t.Run("no session", func(t *testing.T) {
		_, err := handler.Handle(ctx, query.GetSessionClient{})
		if !errors.Is(err, domainerror.ErrNotLoggedIn) {
			t.Errorf("expected ErrNotLoggedIn, got: %v", err)
		}
	})

	t.Run("session error", func(t *testing.T) {
		sess := mocks.NewSession("s3")
		sess.Errors.Attribute = errors.New("redis down")

		if _, err := handler.Handle(ctx, query.GetSessionClient{Session: sess}); err == nil {
			t.Error("expected error")
		}
	})
}
