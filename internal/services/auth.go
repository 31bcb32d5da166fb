package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/coursify-backend/internal/data/repos"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/platform/apierr"
	"github.com/yungbote/coursify-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

// JWTClaims is the session token issued by the identity provider. Subject
// carries the user ID.
type JWTClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// SetContextFromToken verifies tokenString and attaches the caller to ctx.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	MintToken(userID uuid.UUID, email string, ttl time.Duration) (string, error)
	// EnsureUser returns the user registered under email, creating it first
	// when absent.
	EnsureUser(ctx context.Context, email string) (*types.User, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) MintToken(userID uuid.UUID, email string, ttl time.Duration) (string, error) {
	if as.jwtSecretKey == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}
	if ttl <= 0 {
		ttl = as.accessTTL
	}
	now := time.Now()
	claims := JWTClaims{
		Email: strings.ToLower(strings.TrimSpace(email)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) EnsureUser(ctx context.Context, email string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apierr.Validation("email is required", apierr.FieldError{Field: "email", Message: "is required"})
	}
	found, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if len(found) > 0 {
		return found[0], nil
	}
	created, err := as.userRepo.Create(ctx, nil, []*types.User{{Email: email}})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	as.log.Info("Created user", "user_id", created[0].ID)
	return created[0], nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, apierr.Unauthenticated()
	}
	if as.jwtSecretKey == "" {
		as.log.Error("JWT secret not configured; rejecting token")
		return ctx, apierr.Unauthenticated()
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			as.log.Debug("Expired session token")
		} else {
			as.log.Debug("Invalid session token", "error", err)
		}
		return ctx, apierr.Unauthenticated()
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthenticated()
	}
	users, err := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return ctx, fmt.Errorf("load session user: %w", err)
	}
	if len(users) == 0 {
		return ctx, apierr.Unauthenticated()
	}

	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

// requireCaller returns the authenticated user or a 401.
func requireCaller(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctxutil.UserID(ctx)
	if !ok {
		return uuid.Nil, apierr.Unauthenticated()
	}
	return id, nil
}
