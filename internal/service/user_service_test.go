package service

import (
	"context"
	"testing"

	"solardash/internal/repository"
)

func newUserService(t *testing.T) UserService {
	db := setupTestDB(t, t.Name())
	return NewUserService(repository.NewUserRepository(db))
}

func TestCreateUserValidatesRole(t *testing.T) {
	svc := newUserService(t)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "eve",
		Email:    "eve@example.com",
		Phone:    "3001112233",
		Password: "secret123",
		Role:     "superuser",
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestLoginIssuesTokens(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "ana",
		Email:    "ana@example.com",
		Phone:    "3001112233",
		Password: "secret123",
		Role:     "sales",
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	tokens, err := svc.Login(ctx, LoginUserRequest{Email: "ana@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tokens.Token == "" || tokens.RefreshToken == "" {
		t.Fatal("expected both access and refresh tokens")
	}

	if _, err := svc.Login(ctx, LoginUserRequest{Email: "ana@example.com", Password: "wrong"}); err == nil {
		t.Fatal("expected error for wrong password")
	}
}

func TestRefreshTokenRotates(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "leo",
		Email:    "leo@example.com",
		Phone:    "3001112233",
		Password: "secret123",
		Role:     "manager",
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	tokens, err := svc.Login(ctx, LoginUserRequest{Email: "leo@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := svc.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The original token is single use
	if _, err := svc.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken}); err == nil {
		t.Fatal("expected error reusing a rotated refresh token")
	}
}

func TestUpdateUserUniqueness(t *testing.T) {
	svc := newUserService(t)
	ctx := context.Background()

	first, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "maria",
		Email:    "maria@example.com",
		Phone:    "3001112233",
		Password: "secret123",
		Role:     "admin",
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "jose",
		Email:    "jose@example.com",
		Phone:    "3001112233",
		Password: "secret123",
		Role:     "sales",
	}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	taken := "jose"
	if _, err := svc.UpdateUser(ctx, first.ID.String(), UpdateUserRequest{Username: taken}); err == nil {
		t.Fatal("expected error taking another user's username")
	}
}
