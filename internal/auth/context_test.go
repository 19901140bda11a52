package auth_test

import (
	"context"
	"testing"

	"github.com/learning-tokens/lms-connector/internal/auth"
)

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	ctx = auth.WithUser(ctx, "1234", auth.TokenInfo{
		UserEmail: "user@example.com",
		Machine:   "machine",
	})

	user, ok := auth.GetUser(ctx)
	if !ok {
		t.Fatal("user not found")
	}

	if user.UserEmail != "user@example.com" {
		t.Fatalf("user email is not correct: %v", user.UserEmail)
	}

	token, ok := auth.GetToken(ctx)
	if !ok {
		t.Fatal("token not found")
	}

	if token != "1234" {
		t.Fatalf("token is not correct: %v", token)
	}
}

func TestUserContext_Empty(t *testing.T) {
	if _, ok := auth.GetUser(context.Background()); ok {
		t.Fatal("expected no user")
	}

	if _, ok := auth.GetToken(context.Background()); ok {
		t.Fatal("expected no token")
	}
}
