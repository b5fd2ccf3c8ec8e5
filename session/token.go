package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labdesk/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs HS256 bearer tokens whose jti names a session in the store.
// A token is only accepted while its session exists.
type Issuer struct {
	secret []byte
	store  *AppSessionStore
}

func NewIssuer(secret string, store *AppSessionStore) *Issuer {
	return &Issuer{secret: []byte(secret), store: store}
}

func (i *Issuer) Issue(ctx context.Context, u *models.User) (string, time.Time, error) {
	sid := uuid.NewString()
	sess, err := i.store.Create(ctx, sid, u.ID, u.Role)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	exp := sess.ExpiresAt
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (i *Issuer) Verify(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	sess, err := i.store.Get(ctx, claims.ID)
	if errors.Is(err, ErrNoSession) {
		return nil, fmt.Errorf("%w: session revoked", ErrInvalidToken)
	}
	if err != nil {
		return nil, err
	}
	if sess.UserID != claims.Subject {
		return nil, fmt.Errorf("%w: session belongs to another user", ErrInvalidToken)
	}
	return claims, nil
}

func (i *Issuer) Revoke(ctx context.Context, sessionID string) error {
	return i.store.Delete(ctx, sessionID)
}

func (i *Issuer) RevokeUser(ctx context.Context, userID string) error {
	return i.store.RevokeAllForUser(ctx, userID)
}
