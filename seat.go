package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
)

const seatExpiry = 24 * time.Hour

// ErrInvalidSeat is returned for a seat token that is malformed, expired, or
// issued for another session.
var ErrInvalidSeat = errors.New("invalid seat token")

// Seats issues and checks seat tokens. A seat token lets a connection send
// input to one session; everyone else can only watch.
type Seats struct {
	secret []byte
}

// NewSeats creates a seat issuer. An empty secret is loaded from the
// database or generated.
func NewSeats(secret []byte, db *DB) *Seats {
	if len(secret) == 0 {
		secret = loadOrCreateSecret(db)
	}
	return &Seats{secret: secret}
}

// loadOrCreateSecret loads the signing secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting("seat_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate seat secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting("seat_secret", hex.EncodeToString(secret)); err != nil {
			log.Warn("could not persist seat secret", "err", err)
		}
	}
	return secret
}

// Issue signs a token for the session
func (s *Seats) Issue(sessionID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": now.Add(seatExpiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks that tokenStr is a live seat for sessionID
func (s *Seats) Verify(tokenStr, sessionID string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSeat, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrInvalidSeat
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid != sessionID {
		return fmt.Errorf("%w: wrong session", ErrInvalidSeat)
	}
	return nil
}
