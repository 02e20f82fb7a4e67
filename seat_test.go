package main

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSeatIssueVerify(t *testing.T) {
	seats := NewSeats([]byte("test-secret"), nil)
	token, err := seats.Issue("sess-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := seats.Verify(token, "sess-1"); err != nil {
		t.Errorf("expected valid seat, got %v", err)
	}
	if err := seats.Verify(token, "sess-2"); !errors.Is(err, ErrInvalidSeat) {
		t.Errorf("expected ErrInvalidSeat for another session, got %v", err)
	}
}

func TestSeatRejectsForeignAndBroken(t *testing.T) {
	seats := NewSeats([]byte("a"), nil)
	other := NewSeats([]byte("b"), nil)
	token, _ := other.Issue("s")
	if err := seats.Verify(token, "s"); !errors.Is(err, ErrInvalidSeat) {
		t.Errorf("expected ErrInvalidSeat for foreign signature, got %v", err)
	}
	if err := seats.Verify("not-a-token", "s"); !errors.Is(err, ErrInvalidSeat) {
		t.Errorf("expected ErrInvalidSeat for garbage, got %v", err)
	}
}

func TestSeatRejectsExpired(t *testing.T) {
	secret := []byte("k")
	seats := NewSeats(secret, nil)
	claims := jwt.MapClaims{
		"sid": "s",
		"exp": time.Now().Add(-time.Minute).Unix(),
		"iat": time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}
	if err := seats.Verify(token, "s"); !errors.Is(err, ErrInvalidSeat) {
		t.Errorf("expected ErrInvalidSeat for expired token, got %v", err)
	}
}

func TestSeatSecretPersists(t *testing.T) {
	db := openTestDB(t)
	first := NewSeats(nil, db)
	token, err := first.Issue("s")
	if err != nil {
		t.Fatal(err)
	}
	second := NewSeats(nil, db)
	if err := second.Verify(token, "s"); err != nil {
		t.Errorf("expected secret reused across restarts, got %v", err)
	}
}
