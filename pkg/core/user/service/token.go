package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"blog-platform/pkg/common/config"
	apperr "blog-platform/pkg/common/errors"
)

// Token types carried in the "typ" claim so an access token can never be used
// as a refresh token and the other way round.
const (
	AccessTokenType  = "access"
	RefreshTokenType = "refresh"
)

// AccessSigner issues short-lived access tokens. The HTTP layer provides it.
type AccessSigner interface {
	SignAccess(accountID int64) (string, error)
}

type TokenPair struct {
	Access  string
	Refresh string
}

type refreshClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService exchanges credentials for token pairs and refresh tokens for
// new access tokens.
type TokenService struct {
	users  *UserService
	signer AccessSigner
	secret []byte
	method jwt.SigningMethod
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(users *UserService, signer AccessSigner, cfg config.JWTAuthConfig) (*TokenService, error) {
	method := jwt.GetSigningMethod(cfg.SigningMethod)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}
	return &TokenService{
		users:  users,
		signer: signer,
		secret: []byte(cfg.Secret),
		method: method,
		issuer: cfg.Issuer,
		ttl:    cfg.RefreshTTL,
		now:    time.Now,
	}, nil
}

// Obtain authenticates the credentials and issues an access and a refresh token.
func (s *TokenService) Obtain(ctx context.Context, email, password string) (TokenPair, error) {
	account, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return TokenPair{}, err
	}

	access, err := s.signer.SignAccess(account.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.issueRefresh(account.ID)
	if err != nil {
		return TokenPair{}, err
	}

	hlog.CtxInfof(ctx, "tokens issued for account %d", account.ID)
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh validates a refresh token and issues a new access token for its account.
func (s *TokenService) Refresh(ctx context.Context, refresh string) (string, error) {
	if refresh == "" {
		return "", apperr.NewValidationError("refresh", "This field is required.")
	}

	accountID, err := s.parseRefresh(refresh)
	if err != nil {
		hlog.CtxDebugf(ctx, "refresh token rejected: %v", err)
		return "", apperr.ErrInvalidToken
	}
	if _, err := s.users.Resolve(ctx, accountID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.ErrInvalidToken
		}
		return "", err
	}

	access, err := s.signer.SignAccess(accountID)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return access, nil
}

func (s *TokenService) issueRefresh(accountID int64) (string, error) {
	now := s.now()
	claims := refreshClaims{
		TokenType: RefreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(accountID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) parseRefresh(raw string) (int64, error) {
	claims := &refreshClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, err
	}
	if claims.TokenType != RefreshTokenType {
		return 0, fmt.Errorf("token type %q is not %q", claims.TokenType, RefreshTokenType)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad subject %q", claims.Subject)
	}
	return id, nil
}
