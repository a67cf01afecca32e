package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/solatis/shelfwright/internal/types"
)

// Owner is an account that holds API keys and designs.
type Owner struct {
	ID        types.OwnerID `db:"owner_id"`
	Name      string        `db:"name"`
	CreatedAt time.Time     `db:"created_at"`
}

// DesignRecord is the latest revision of a saved design. Document holds the
// TOML encoding produced by the codec package.
type DesignRecord struct {
	ID        types.DesignID `db:"design_id"`
	OwnerID   types.OwnerID  `db:"owner_id"`
	Name      string         `db:"name"`
	Document  string         `db:"document"`
	Revision  int            `db:"revision"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// Revision is one entry of a design's append-only history.
type Revision struct {
	DesignID  types.DesignID `db:"design_id"`
	Revision  int            `db:"revision"`
	Document  string         `db:"document"`
	CreatedAt time.Time      `db:"created_at"`
}

// Store persists owners, API keys and designs through named queries.
type Store struct {
	q   *Queries
	now func() time.Time
}

// NewStore wraps loaded queries.
func NewStore(q *Queries) *Store {
	return &Store{q: q, now: func() time.Time { return time.Now().UTC() }}
}

// Queries exposes the underlying query set, e.g. for the authenticator.
func (s *Store) Queries() *Queries { return s.q }

// CreateOwner inserts a new owner.
func (s *Store) CreateOwner(ctx context.Context, name string) (Owner, error) {
	o := Owner{ID: types.NewOwnerID(), Name: name, CreatedAt: s.now()}
	if _, err := s.q.ExecContext(ctx, "create-owner", o.ID, o.Name, o.CreatedAt); err != nil {
		return Owner{}, fmt.Errorf("creating owner %q: %w", name, err)
	}
	return o, nil
}

// OwnerByName returns ErrNotFound when no owner has that name.
func (s *Store) OwnerByName(ctx context.Context, name string) (Owner, error) {
	var o Owner
	err := s.q.GetContext(ctx, "get-owner-by-name", &o, name)
	if errors.Is(err, sql.ErrNoRows) {
		return Owner{}, fmt.Errorf("owner %q: %w", name, ErrNotFound)
	}
	return o, err
}

// CreateAPIKey stores the HMAC of a key; the key itself is never stored.
func (s *Store) CreateAPIKey(ctx context.Context, owner types.OwnerID, secretID string, keyHash []byte, name string) (string, error) {
	id := uuid.Must(uuid.NewV7()).String()
	if _, err := s.q.ExecContext(ctx, "create-api-key", id, owner, secretID, keyHash, name, s.now()); err != nil {
		return "", fmt.Errorf("creating api key: %w", err)
	}
	return id, nil
}

// RevokeAPIKey marks a key revoked. Revoking twice returns ErrNotFound.
func (s *Store) RevokeAPIKey(ctx context.Context, apiKeyID string) error {
	res, err := s.q.ExecContext(ctx, "revoke-api-key", s.now(), apiKeyID)
	if err != nil {
		return fmt.Errorf("revoking api key: %w", err)
	}
	return expectOneRow(res, "api key "+apiKeyID)
}

// SaveDesign stores document under name for the owner. A new name creates
// revision 1; an existing name bumps the revision. The design row and its
// revision row are written in one transaction.
func (s *Store) SaveDesign(ctx context.Context, owner types.OwnerID, name string, document []byte) (DesignRecord, error) {
	var rec DesignRecord

	err := s.q.InTx(ctx, func(tx *Tx) error {
		now := s.now()
		err := tx.GetContext(ctx, "get-design-by-name", &rec, owner, name)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			rec = DesignRecord{
				ID:        types.NewDesignID(),
				OwnerID:   owner,
				Name:      name,
				Document:  string(document),
				Revision:  1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if _, err := tx.ExecContext(ctx, "insert-design",
				rec.ID, rec.OwnerID, rec.Name, rec.Document, rec.Revision, rec.CreatedAt, rec.UpdatedAt); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			prev := rec.Revision
			rec.Document = string(document)
			rec.Revision = prev + 1
			rec.UpdatedAt = now
			res, err := tx.ExecContext(ctx, "update-design", rec.Document, rec.Revision, rec.UpdatedAt, rec.ID, prev)
			if err != nil {
				return err
			}
			if err := expectOneRow(res, "design "+string(rec.ID)); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, "insert-design-revision", rec.ID, rec.Revision, rec.Document, now)
		return err
	})
	if err != nil {
		return DesignRecord{}, fmt.Errorf("saving design %q: %w", name, err)
	}
	return rec, nil
}

// GetDesign returns ErrNotFound when the design does not exist or belongs
// to another owner.
func (s *Store) GetDesign(ctx context.Context, owner types.OwnerID, id types.DesignID) (DesignRecord, error) {
	var rec DesignRecord
	err := s.q.GetContext(ctx, "get-design", &rec, owner, id)
	if errors.Is(err, sql.ErrNoRows) {
		return DesignRecord{}, fmt.Errorf("design %s: %w", id, ErrNotFound)
	}
	return rec, err
}

// GetDesignByName looks a design up by its owner-unique name.
func (s *Store) GetDesignByName(ctx context.Context, owner types.OwnerID, name string) (DesignRecord, error) {
	var rec DesignRecord
	err := s.q.GetContext(ctx, "get-design-by-name", &rec, owner, name)
	if errors.Is(err, sql.ErrNoRows) {
		return DesignRecord{}, fmt.Errorf("design %q: %w", name, ErrNotFound)
	}
	return rec, err
}

// ListDesigns returns the owner's designs ordered by name.
func (s *Store) ListDesigns(ctx context.Context, owner types.OwnerID) ([]DesignRecord, error) {
	var recs []DesignRecord
	if err := s.q.SelectContext(ctx, "list-designs", &recs, owner); err != nil {
		return nil, fmt.Errorf("listing designs: %w", err)
	}
	return recs, nil
}

// ListRevisions returns every revision of a design, oldest first.
func (s *Store) ListRevisions(ctx context.Context, owner types.OwnerID, id types.DesignID) ([]Revision, error) {
	var revs []Revision
	if err := s.q.SelectContext(ctx, "list-design-revisions", &revs, owner, id); err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}
	if len(revs) == 0 {
		return nil, fmt.Errorf("design %s: %w", id, ErrNotFound)
	}
	return revs, nil
}

// DeleteDesign removes a design and its revisions.
func (s *Store) DeleteDesign(ctx context.Context, owner types.OwnerID, id types.DesignID) error {
	if _, err := s.GetDesign(ctx, owner, id); err != nil {
		return err
	}
	return s.q.InTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "delete-design-revisions", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "delete-design", owner, id)
		if err != nil {
			return err
		}
		return expectOneRow(res, "design "+string(id))
	})
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
