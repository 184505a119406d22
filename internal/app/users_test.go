package app_test

import (
	"context"
	"errors"
	"testing"

	"hotel_booking/internal/app"
	"hotel_booking/internal/domain"
)

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := app.NewAuthService(newStore(), fakeCreds{})
	ctx := context.Background()

	u, err := svc.Register(ctx, "Guest@Example.com ", "secret")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if u.Email != "guest@example.com" || u.HashedPassword == "secret" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if _, err := svc.Register(ctx, "guest@example.com", "other"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := app.NewAuthService(newStore(), fakeCreds{})
	ctx := context.Background()
	u, _ := svc.Register(ctx, "guest@example.com", "secret")

	if _, _, err := svc.Login(ctx, "guest@example.com", "wrong"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for bad password, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for unknown email, got %v", err)
	}

	tok, _, err := svc.Login(ctx, "guest@example.com", "secret")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	id, err := svc.Authenticate(tok)
	if err != nil || id != u.ID {
		t.Fatalf("id=%d err=%v", id, err)
	}
	me, err := svc.Me(ctx, id)
	if err != nil || me.Email != "guest@example.com" {
		t.Fatalf("me=%+v err=%v", me, err)
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	svc := app.NewAuthService(newStore(), fakeCreds{})
	for _, tok := range []string{"", "garbage"} {
		if _, err := svc.Authenticate(tok); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("token %q: want ErrUnauthorized, got %v", tok, err)
		}
	}
}
