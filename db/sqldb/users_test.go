package sqldb

import (
	"context"
	"errors"
	"testing"

	"github.com/dundas/lightauth/db"
)

func TestUserLifecycle(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()
	var created *db.User

	t.Run("CreateWithPassword", func(t *testing.T) {
		var err error
		created, err = store.CreateUserWithPassword(ctx, db.User{
			Email:    " Test.User@Example.COM ",
			Name:     "Test User",
			Password: "$argon2id$stored-hash",
		})
		if err != nil {
			t.Fatalf("CreateUserWithPassword failed: %v", err)
		}
		if created.ID == "" {
			t.Fatal("expected user to have an ID")
		}
		if created.Email != "test.user@example.com" {
			t.Errorf("expected normalized email, got %q", created.Email)
		}
		if created.Verified {
			t.Error("expected new user to be unverified")
		}
		if !created.HasPassword() {
			t.Error("expected user to have a password")
		}
		if !created.Created.Equal(clock.Now()) {
			t.Errorf("expected created %v, got %v", clock.Now(), created.Created)
		}
		if !created.Updated.Equal(clock.Now()) {
			t.Errorf("expected updated %v, got %v", clock.Now(), created.Updated)
		}
	})

	t.Run("GetById", func(t *testing.T) {
		got, err := store.GetUserById(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetUserById failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected user, got nil")
		}
		if got.Email != created.Email {
			t.Errorf("expected email %q, got %q", created.Email, got.Email)
		}
	})

	t.Run("GetByEmailNormalizes", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "TEST.USER@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected case variant lookup to find the user")
		}
		if got.ID != created.ID {
			t.Errorf("expected user %s, got %s", created.ID, got.ID)
		}
	})

	t.Run("AbsentIsNilNil", func(t *testing.T) {
		got, err := store.GetUserById(ctx, "no-such-id")
		if err != nil || got != nil {
			t.Errorf("expected (nil, nil), got (%v, %v)", got, err)
		}
		got, err = store.GetUserByEmail(ctx, "absent@example.com")
		if err != nil || got != nil {
			t.Errorf("expected (nil, nil), got (%v, %v)", got, err)
		}
		got, err = store.GetUserByOauth2(ctx, db.Oauth2ProviderGithub, "gh-absent")
		if err != nil || got != nil {
			t.Errorf("expected (nil, nil), got (%v, %v)", got, err)
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := store.CreateUserWithPassword(ctx, db.User{
			Email:    "TEST.USER@EXAMPLE.COM",
			Password: "other-hash",
		})
		if err == nil {
			t.Fatal("expected duplicate email to fail")
		}
		if !errors.Is(err, db.ErrConstraintUnique) {
			t.Errorf("expected db.ErrConstraintUnique, got %v", err)
		}
	})

	t.Run("VerifyEmail", func(t *testing.T) {
		if err := store.VerifyEmail(ctx, created.ID); err != nil {
			t.Fatalf("VerifyEmail failed: %v", err)
		}
		got, err := store.GetUserById(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetUserById failed: %v", err)
		}
		if !got.Verified {
			t.Error("expected user to be verified")
		}
	})

	t.Run("UpdatePassword", func(t *testing.T) {
		if err := store.UpdatePassword(ctx, created.ID, "$argon2id$new-hash"); err != nil {
			t.Fatalf("UpdatePassword failed: %v", err)
		}
		got, err := store.GetUserById(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetUserById failed: %v", err)
		}
		if got.Password != "$argon2id$new-hash" {
			t.Errorf("expected new hash, got %q", got.Password)
		}
	})
}

func TestUnknownProviderRejected(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.GetUserByOauth2(context.Background(), db.Oauth2Provider(99), "ext-1")
	if !errors.Is(err, db.ErrUnknownProvider) {
		t.Errorf("expected db.ErrUnknownProvider, got %v", err)
	}
}

func TestUpsertOauth2CreatesAccount(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	user, err := store.UpsertUserWithOauth2(ctx, db.Oauth2Profile{
		Provider:      db.Oauth2ProviderGithub,
		ExternalID:    "gh-123",
		Email:         "OAuth.User@Example.com",
		EmailVerified: true,
		Name:          "Octo Cat",
		Avatar:        "https://avatars.example.com/octo.png",
	})
	if err != nil {
		t.Fatalf("UpsertUserWithOauth2 failed: %v", err)
	}

	if user.ID == "" {
		t.Fatal("expected user to have an ID")
	}
	if user.Email != "oauth.user@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if user.GithubID != "gh-123" {
		t.Errorf("expected github id to be linked, got %q", user.GithubID)
	}
	if !user.Verified {
		t.Error("expected provider verified email to mark the account verified")
	}
	if user.HasPassword() {
		t.Error("expected oauth2 account to have no password")
	}

	found, err := store.GetUserByOauth2(ctx, db.Oauth2ProviderGithub, "gh-123")
	if err != nil {
		t.Fatalf("GetUserByOauth2 failed: %v", err)
	}
	if found == nil || found.ID != user.ID {
		t.Errorf("expected provider lookup to find the account")
	}
}

func TestUpsertOauth2RefreshesExistingLink(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.UpsertUserWithOauth2(ctx, db.Oauth2Profile{
		Provider:      db.Oauth2ProviderGoogle,
		ExternalID:    "goog-1",
		Email:         "person@example.com",
		EmailVerified: true,
		Name:          "Old Name",
	})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second, err := store.UpsertUserWithOauth2(ctx, db.Oauth2Profile{
		Provider:      db.Oauth2ProviderGoogle,
		ExternalID:    "goog-1",
		Email:         "person@example.com",
		EmailVerified: false,
		Name:          "New Name",
		Avatar:        "https://avatars.example.com/p.png",
	})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected same account, got %s and %s", first.ID, second.ID)
	}
	if second.Name != "New Name" {
		t.Errorf("expected refreshed name, got %q", second.Name)
	}
	if second.Avatar != "https://avatars.example.com/p.png" {
		t.Errorf("expected refreshed avatar, got %q", second.Avatar)
	}
	if !second.Verified {
		t.Error("an unverified provider claim must never clear verified")
	}
}

func TestUpsertOauth2LinksByEmail(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	existing, err := store.CreateUserWithPassword(ctx, db.User{
		Email:    "link.me@example.com",
		Name:     "Original Name",
		Password: "$argon2id$hash",
	})
	if err != nil {
		t.Fatalf("CreateUserWithPassword failed: %v", err)
	}

	linked, err := store.UpsertUserWithOauth2(ctx, db.Oauth2Profile{
		Provider:      db.Oauth2ProviderGithub,
		ExternalID:    "gh-77",
		Email:         "LINK.ME@example.com",
		EmailVerified: true,
	})
	if err != nil {
		t.Fatalf("UpsertUserWithOauth2 failed: %v", err)
	}

	if linked.ID != existing.ID {
		t.Fatalf("expected link to existing account, got new account %s", linked.ID)
	}
	if linked.GithubID != "gh-77" {
		t.Errorf("expected github id gh-77, got %q", linked.GithubID)
	}
	if !linked.Verified {
		t.Error("expected verified provider email to verify the account")
	}
	if linked.Name != "Original Name" {
		t.Errorf("expected empty profile name to keep the stored name, got %q", linked.Name)
	}
	if linked.Password != "$argon2id$hash" {
		t.Error("expected linking to keep the stored password")
	}
}

func TestUpsertOauth2PrefersProviderIdentity(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	original, err := store.UpsertUserWithOauth2(ctx, db.Oauth2Profile{
		Provider:      db.Oauth2ProviderGithub,
		ExternalID:    "gh-5",
		Email:         "before@example.com",
		EmailVerified: true,
	})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// The provider reports a changed email for the same identity. The match
	// must run on the provider id, not create a second account.
	matched, err := store.UpsertUserWithOauth2(ctx, db.Oauth2Profile{
		Provider:      db.Oauth2ProviderGithub,
		ExternalID:    "gh-5",
		Email:         "after@example.com",
		EmailVerified: true,
	})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if matched.ID != original.ID {
		t.Fatalf("expected provider id match, got different account %s", matched.ID)
	}
	if matched.Email != "before@example.com" {
		t.Errorf("expected stored email to stay, got %q", matched.Email)
	}

	stray, err := store.GetUserByEmail(ctx, "after@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if stray != nil {
		t.Error("expected no account under the provider's new email")
	}
}

func TestUpsertOauth2RequiresEmailForNewAccount(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.UpsertUserWithOauth2(context.Background(), db.Oauth2Profile{
		Provider:   db.Oauth2ProviderGithub,
		ExternalID: "gh-no-email",
	})
	if err == nil {
		t.Fatal("expected upsert without email to fail for a new account")
	}
}

func TestUpdatePasswordCanClear(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	user, err := store.CreateUserWithPassword(ctx, db.User{
		Email:    "clear@example.com",
		Password: "$argon2id$hash",
	})
	if err != nil {
		t.Fatalf("CreateUserWithPassword failed: %v", err)
	}

	if err := store.UpdatePassword(ctx, user.ID, ""); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}

	got, err := store.GetUserById(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if got.HasPassword() {
		t.Error("expected account to be passwordless")
	}
}
