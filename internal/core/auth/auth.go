// Package auth provides HMAC-based API key authentication for gRPC services.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/shelfwright/internal/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const ownerIDKey = contextKey("owner_id")

// Queries is the subset of *db.Queries the authenticator needs.
type Queries interface {
	GetContext(ctx context.Context, name string, dest any, args ...any) error
	ExecContext(ctx context.Context, name string, args ...any) (sql.Result, error)
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	skip    map[string]bool
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		skip:    make(map[string]bool),
	}
}

// SkipMethods lets full gRPC method names (e.g. the health check) through
// without a key.
func (a *Authenticator) SkipMethods(methods ...string) *Authenticator {
	for _, m := range methods {
		a.skip[m] = true
	}
	return a
}

// Authenticate validates an API key and returns the owning account.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (types.OwnerID, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	computedHash := ComputeHMAC(secret, apiKey)

	// key_hash is unique, so at most one row matches.
	var result struct {
		APIKeyID   string       `db:"api_key_id"`
		OwnerID    string       `db:"owner_id"`
		RevokedAt  sql.NullTime `db:"revoked_at"`
		LastUsedAt sql.NullTime `db:"last_used_at"`
	}

	err = a.queries.GetContext(ctx, "get-api-key-by-hash", &result, computedHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if result.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	// Throttled to one write per minute per key.
	if shouldUpdateLastUsed(result.LastUsedAt) {
		_, _ = a.queries.ExecContext(ctx, "update-last-used", time.Now().UTC(), result.APIKeyID)
	}

	return types.OwnerID(result.OwnerID), nil
}

func shouldUpdateLastUsed(lastUsed sql.NullTime) bool {
	if !lastUsed.Valid {
		return true
	}
	return time.Since(lastUsed.Time) > time.Minute
}

// UnaryInterceptor returns gRPC interceptor that authenticates requests.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if a.skip[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get("x-api-key")
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		ownerID, err := a.Authenticate(ctx, apiKeys[0])
		switch {
		case err == nil:
		case errors.Is(err, ErrKeyRevoked):
			return nil, status.Error(codes.PermissionDenied, err.Error())
		case errors.Is(err, ErrStoreUnavailable):
			return nil, status.Error(codes.Unavailable, err.Error())
		default:
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(WithOwnerID(ctx, ownerID), req)
	}
}

// WithOwnerID returns a context carrying the authenticated owner.
func WithOwnerID(ctx context.Context, id types.OwnerID) context.Context {
	return context.WithValue(ctx, ownerIDKey, id)
}

// OwnerIDFromContext returns the authenticated owner, or "" if none.
func OwnerIDFromContext(ctx context.Context) types.OwnerID {
	if id, ok := ctx.Value(ownerIDKey).(types.OwnerID); ok {
		return id
	}
	return ""
}
