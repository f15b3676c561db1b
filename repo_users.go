package identity

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// users is the bun-backed UserStore. Uniqueness of email and
// email_hash is enforced by the table's unique constraints; the
// pre-insert lookup below exists to surface the conflict as a domain
// error instead of a driver error.
type users struct {
	db   *bun.DB
	repo repository.Repository[*User]
}

var _ UserStore = (*users)(nil)

// NewUsersRepository returns a UserStore backed by the given bun DB.
func NewUsersRepository(db *bun.DB) UserStore {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		db:   db,
		repo: repo,
	}
}

func (a *users) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.getByColumn(ctx, "id", id.String())
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getByColumn(ctx, "email", normalizeEmail(email))
}

func (a *users) GetByEmailFingerprint(ctx context.Context, fingerprint string) (*User, error) {
	return a.getByColumn(ctx, "email_hash", fingerprint)
}

func (a *users) getByColumn(ctx context.Context, column, value string) (*User, error) {
	record := &User{}

	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, errors.New("user record not found", errors.CategoryNotFound).
				WithMetadata(map[string]any{column: value})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	prepareUserDefaults(record)

	if _, err := a.GetByEmail(ctx, record.Email); err == nil {
		return nil, errors.New("A new user cannot be created with this email", errors.CategoryConflict).
			WithMetadata(map[string]any{"email": record.Email})
	} else if !errors.IsNotFound(err) {
		return nil, err
	}

	created, err := a.repo.Create(ctx, record)
	if err != nil {
		// The pre-insert lookup cannot see a row committed between the
		// check and the INSERT. The unique constraints still hold, so a
		// duplicate that slips past surfaces here as a driver error and
		// gets the same conflict classification.
		if isDuplicateIdentity(err) {
			return nil, errors.Wrap(err, errors.CategoryConflict, "A new user cannot be created with this email").
				WithMetadata(map[string]any{"email": record.Email})
		}
		return nil, err
	}

	return created, nil
}

// isDuplicateIdentity matches unique-constraint violations on the users
// identity columns across the supported drivers: SQLite reports the
// column path, Postgres the constraint name or a duplicate-key message.
func isDuplicateIdentity(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	return strings.Contains(msg, "UNIQUE constraint failed: users.email") ||
		strings.Contains(msg, "users_email_key") ||
		strings.Contains(msg, "users_email_hash_key") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func (a *users) Update(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error) {
	record := &User{ID: id}

	q := a.db.NewUpdate().
		Model(record).
		WherePK().
		Set("updated_at = ?", time.Now()).
		Returning("*")

	if update.EmailVerified != nil {
		q = q.Set("is_email_verified = ?", *update.EmailVerified)
	}

	if update.RefreshTokenHash != nil {
		q = q.Set("refresh_token_hash = ?", *update.RefreshTokenHash)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, errors.New("User not found to update", errors.CategoryNotFound).
			WithMetadata(map[string]any{"id": id.String()})
	}

	return record, nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = normalizeEmail(record.Email)

	if record.EmailHash == "" {
		if fp, err := EmailFingerprint(record.Email); err == nil {
			record.EmailHash = fp
		}
	}
}
