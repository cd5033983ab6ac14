package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/hertz-contrib/jwt"

	"blog-platform/pkg/common/config"
	apperr "blog-platform/pkg/common/errors"
	"blog-platform/pkg/core/policy"
	userservice "blog-platform/pkg/core/user/service"
	"blog-platform/pkg/web/model"
)

const (
	identityKey = "account_id"
	typeKey     = "typ"
	issuerKey   = "iss"
	actorKey    = "actor"
)

// ActorResolver turns the account id of a valid token into an actor.
type ActorResolver func(ctx context.Context, accountID int64) (*policy.Actor, error)

// Auth issues and checks access tokens.
type Auth struct {
	jwt     *jwt.HertzJWTMiddleware
	issuer  string
	resolve ActorResolver
}

func NewAuth(cfg config.JWTAuthConfig, resolve ActorResolver) (*Auth, error) {
	issuer := cfg.Issuer
	mw, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:            cfg.Realm,
		SigningAlgorithm: cfg.SigningMethod,
		Key:              []byte(cfg.Secret),
		Timeout:          cfg.AccessTTL,
		IdentityKey:      identityKey,
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if id, ok := data.(int64); ok {
				return jwt.MapClaims{
					identityKey: id,
					typeKey:     userservice.AccessTokenType,
					issuerKey:   issuer,
				}
			}
			return jwt.MapClaims{}
		},
		TokenLookup:   "header: Authorization",
		TokenHeadName: "Bearer",
		TimeFunc:      time.Now,
	})
	if err != nil {
		return nil, err
	}
	return &Auth{jwt: mw, issuer: issuer, resolve: resolve}, nil
}

// SignAccess issues an access token for the account.
func (a *Auth) SignAccess(accountID int64) (string, error) {
	token, _, err := a.jwt.TokenGenerator(accountID)
	return token, err
}

// Middleware resolves the bearer token into an actor. Requests without an
// Authorization header continue as anonymous; a bad token is rejected with 401.
func (a *Auth) Middleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if len(ctx.GetHeader("Authorization")) == 0 {
			ctx.Next(c)
			return
		}

		accountID, err := a.accountID(c, ctx)
		if err != nil {
			hlog.CtxInfof(c, "rejected access token: %v", err)
			abort(ctx, apperr.ErrInvalidToken)
			return
		}

		actor, err := a.resolve(c, accountID)
		if errors.Is(err, apperr.ErrNotFound) {
			abort(ctx, apperr.ErrInvalidToken)
			return
		}
		if err != nil {
			abort(ctx, err)
			return
		}

		ctx.Set(actorKey, actor)
		ctx.Next(c)
	}
}

func (a *Auth) accountID(c context.Context, ctx *app.RequestContext) (int64, error) {
	claims, err := a.jwt.GetClaimsFromJWT(c, ctx)
	if err != nil {
		return 0, err
	}
	if typ, _ := claims[typeKey].(string); typ != userservice.AccessTokenType {
		return 0, errors.New("not an access token")
	}
	if iss, _ := claims[issuerKey].(string); iss != a.issuer {
		return 0, errors.New("unexpected issuer")
	}
	exp, ok := claims["exp"].(float64)
	if !ok || int64(exp) < a.jwt.TimeFunc().Unix() {
		return 0, jwt.ErrExpiredToken
	}
	id, ok := claims[identityKey].(float64)
	if !ok || id <= 0 {
		return 0, errors.New("missing account id")
	}
	return int64(id), nil
}

// ActorFrom returns the actor of the request, nil when anonymous.
func ActorFrom(ctx *app.RequestContext) *policy.Actor {
	v, ok := ctx.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*policy.Actor)
	return actor
}

func abort(ctx *app.RequestContext, err error) {
	_ = ctx.Error(err)
	status, body := model.NewErrorRes(err)
	ctx.AbortWithStatusJSON(status, body)
}
