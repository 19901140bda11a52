package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/learning-tokens/lms-connector/internal/testhelper"
)

func newTestTokenInfo() TokenInfo {
	return TokenInfo{
		UserEmail: "teacher@example.com",
		Machine:   "machine1",
		OAuthToken: &oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
		},
		Meta: map[string]string{"key": "value"},
	}
}

func TestRedisStorage_CreateAndGet(t *testing.T) {
	container := testhelper.NewRedisContainer(t)
	redisClient := testhelper.NewRedisClient(t, container)
	storage := NewRedisStorage(redisClient)
	ctx := context.Background()

	info := newTestTokenInfo()
	token, err := storage.Create(ctx, info)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if token == "" {
		t.Fatal("Create returned empty token")
	}

	got, err := storage.Get(ctx, token)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Machine != info.Machine {
		t.Errorf("Get returned wrong machine: got %s, want %s", got.Machine, info.Machine)
	}
	if got.UserEmail != info.UserEmail {
		t.Errorf("Get returned wrong email: got %s, want %s", got.UserEmail, info.UserEmail)
	}
	if got.OAuthToken == nil || got.OAuthToken.RefreshToken != "refresh" {
		t.Errorf("Get returned wrong oauth token: got %+v", got.OAuthToken)
	}
	if got.Meta["key"] != "value" {
		t.Errorf("Get returned wrong meta: got %v", got.Meta)
	}
}

func TestRedisStorage_Get_ExtendsExpiration(t *testing.T) {
	container := testhelper.NewRedisContainer(t)
	redisClient := testhelper.NewRedisClient(t, container)
	storage := NewRedisStorage(redisClient, WithTokenExpire(time.Hour))
	ctx := context.Background()

	token, err := storage.Create(ctx, newTestTokenInfo())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	key := redisTokenPrefix + token
	if err := redisClient.Do(ctx, redisClient.B().Expire().Key(key).Seconds(10).Build()).Error(); err != nil {
		t.Fatalf("Expire failed: %v", err)
	}

	if _, err := storage.Peek(ctx, token); err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	ttl, err := redisClient.Do(ctx, redisClient.B().Ttl().Key(key).Build()).AsInt64()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl > 10 {
		t.Errorf("Peek should not extend the expiration, got TTL %d", ttl)
	}

	if _, err := storage.Get(ctx, token); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	ttl, err = redisClient.Do(ctx, redisClient.B().Ttl().Key(key).Build()).AsInt64()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl < 3500 {
		t.Errorf("Get should extend the expiration, got TTL %d", ttl)
	}
}

func TestRedisStorage_Expire(t *testing.T) {
	container := testhelper.NewRedisContainer(t)
	redisClient := testhelper.NewRedisClient(t, container)
	storage := NewRedisStorage(redisClient, WithTokenExpire(1*time.Second))
	ctx := context.Background()

	token, err := storage.Create(ctx, newTestTokenInfo())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// wait 2 seconds to make sure the session is expired
	time.Sleep(2 * time.Second)

	_, err = storage.Get(ctx, token)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get should return ErrNotFound after expiration, but got %v", err)
	}
}

func TestRedisStorage_Get_InvalidToken(t *testing.T) {
	container := testhelper.NewRedisContainer(t)
	redisClient := testhelper.NewRedisClient(t, container)
	storage := NewRedisStorage(redisClient)
	ctx := context.Background()

	if _, err := storage.Get(ctx, "nonexistent-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get should fail for nonexistent token, but got %v", err)
	}
	if _, err := storage.Peek(ctx, "nonexistent-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Peek should fail for nonexistent token, but got %v", err)
	}
}

func TestRedisStorage_Update(t *testing.T) {
	container := testhelper.NewRedisContainer(t)
	redisClient := testhelper.NewRedisClient(t, container)
	storage := NewRedisStorage(redisClient)
	ctx := context.Background()

	token, err := storage.Create(ctx, newTestTokenInfo())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated := newTestTokenInfo()
	updated.OAuthToken.AccessToken = "refreshed-access"
	if err := storage.Update(ctx, token, updated); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := storage.Peek(ctx, token)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if got.OAuthToken.AccessToken != "refreshed-access" {
		t.Errorf("Update did not replace the access token: got %s", got.OAuthToken.AccessToken)
	}

	ttl, err := redisClient.Do(ctx, redisClient.B().Ttl().Key(redisTokenPrefix+token).Build()).AsInt64()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 {
		t.Errorf("Update should keep the expiration, got TTL %d", ttl)
	}
}

func TestRedisStorage_Update_InvalidToken(t *testing.T) {
	container := testhelper.NewRedisContainer(t)
	redisClient := testhelper.NewRedisClient(t, container)
	storage := NewRedisStorage(redisClient)
	ctx := context.Background()

	err := storage.Update(ctx, "nonexistent-token", newTestTokenInfo())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update should return ErrNotFound for nonexistent token, but got %v", err)
	}

	if _, err := storage.Peek(ctx, "nonexistent-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update should not create a session, but got %v", err)
	}
}

func TestRedisStorage_Delete(t *testing.T) {
	container := testhelper.NewRedisContainer(t)
	redisClient := testhelper.NewRedisClient(t, container)
	storage := NewRedisStorage(redisClient)
	ctx := context.Background()

	token, err := storage.Create(ctx, newTestTokenInfo())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := storage.Delete(ctx, token); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := storage.Get(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get should fail after Delete, but got %v", err)
	}

	if err := storage.Delete(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete should return ErrNotFound for a deleted token, but got %v", err)
	}
}

func TestRedisStorage_Count(t *testing.T) {
	container := testhelper.NewRedisContainer(t)
	redisClient := testhelper.NewRedisClient(t, container)
	storage := NewRedisStorage(redisClient)
	ctx := context.Background()

	var tokens []string
	for range 3 {
		token, err := storage.Create(ctx, newTestTokenInfo())
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		tokens = append(tokens, token)
	}

	if err := storage.Delete(ctx, tokens[0]); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	count, err := storage.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Count returned %d, want 2", count)
	}
}
