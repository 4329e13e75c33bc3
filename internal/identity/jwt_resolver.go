package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sethkontny/aaventure/internal/store"
	"github.com/sethkontny/aaventure/pkg/log"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carried by access tokens minted by the account subsystem.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	ChatName string `json:"chat_name"`
}

// JWTResolver verifies HMAC-signed tokens and refreshes chatName and
// the admin flag from the account record, so a stale token cannot keep
// admin rights the account has lost.
type JWTResolver struct {
	secret []byte
	issuer string
	users  store.UserStore
}

func NewJWTResolver(secret, issuer string, users store.UserStore) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), issuer: issuer, users: users}
}

func (r *JWTResolver) Resolve(ctx context.Context, credentials string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(credentials, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	}, jwt.WithIssuer(r.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return Identity{}, ErrInvalidToken
	}

	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			// Token verified but no account record: keep the claim
			// name, never grant admin.
			return Identity{UserID: claims.UserID, ChatName: claims.ChatName}, nil
		}
		log.Ctx(ctx).Error().Err(err).Str(log.FieldUserID, claims.UserID).Msg("user lookup failed during resolve")
		return Identity{}, err
	}

	chatName := user.ChatName
	if chatName == "" {
		chatName = claims.ChatName
	}
	return Identity{UserID: user.ID, ChatName: chatName, IsAdmin: user.IsAdmin}, nil
}
