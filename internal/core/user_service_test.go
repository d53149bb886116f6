package core

import (
	"context"
	"errors"
	"testing"

	"help-from-founder-go/internal/db"
	"help-from-founder-go/internal/models"
)

func TestGetOrCreate(t *testing.T) {
	svc := NewUserService(db.NewMemoryStore().Store().Users)
	ctx := context.Background()

	user, created, err := svc.GetOrCreate(ctx, alice, "https://img/alice.png")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !created || user.Email != "alice@x.dev" || user.DisplayName != "Alice" || user.PhotoURL != "https://img/alice.png" {
		t.Errorf("created user = %+v, created=%v", user, created)
	}

	again, created, err := svc.GetOrCreate(ctx, alice, "")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if created || again.ID != "alice" {
		t.Errorf("second call created=%v user=%+v", created, again)
	}

	if _, _, err := svc.GetOrCreate(ctx, visitor, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("anonymous GetOrCreate err = %v, want ErrForbidden", err)
	}
}

func TestUserUpdate(t *testing.T) {
	svc := NewUserService(db.NewMemoryStore().Store().Users)
	ctx := context.Background()
	if _, _, err := svc.GetOrCreate(ctx, alice, ""); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	name := "Alice L."
	site := "https://alice.dev"
	got, err := svc.Update(ctx, alice, models.UpdateUserRequest{
		DisplayName: &name,
		Website:     &site,
		Social:      &models.SocialLinks{Github: "alice"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.DisplayName != name || got.Website != site || got.Social.Github != "alice" || got.Email != "alice@x.dev" {
		t.Errorf("updated user = %+v", got)
	}

	if _, err := svc.Update(ctx, bob, models.UpdateUserRequest{DisplayName: &name}); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("update without profile err = %v, want ErrUserNotFound", err)
	}
	if _, err := svc.Update(ctx, visitor, models.UpdateUserRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("anonymous update err = %v, want ErrForbidden", err)
	}
	if _, err := svc.GetByID(ctx, "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID(ghost) err = %v", err)
	}
}
