package sqldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dundas/lightauth/db"
	"github.com/dundas/lightauth/db/executor"
)

// userColumns is the canonical users projection. Optional columns are
// coalesced so every backend hands back empty strings for NULL.
const userColumns = `id, email, COALESCE(name, '') AS name, COALESCE(password, '') AS password,
	COALESCE(avatar, '') AS avatar, verified,
	COALESCE(github_id, '') AS github_id, COALESCE(google_id, '') AS google_id,
	created, updated`

// rowToUser builds a User from a users projection row.
func rowToUser(row executor.Row) (*db.User, error) {
	created, err := row.Time("created")
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}
	updated, err := row.Time("updated")
	if err != nil {
		return nil, fmt.Errorf("error parsing updated time: %w", err)
	}

	return &db.User{
		ID:       row.Text("id"),
		Email:    row.Text("email"),
		Name:     row.Text("name"),
		Password: row.Text("password"),
		Avatar:   row.Text("avatar"),
		Verified: row.Bool("verified"),
		GithubID: row.Text("github_id"),
		GoogleID: row.Text("google_id"),
		Created:  created,
		Updated:  updated,
	}, nil
}

// GetUserById retrieves a user by primary key.
// Note: A nil user with nil error indicates no matching record was found
func (d *Db) GetUserById(ctx context.Context, id string) (*db.User, error) {
	res, err := d.exec.Execute(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return rowToUser(res.Rows[0])
}

// GetUserByEmail retrieves a user by email address. The address is
// normalized before the lookup, so case variants find the same account.
// Note: A nil user with nil error indicates no matching record was found
func (d *Db) GetUserByEmail(ctx context.Context, email string) (*db.User, error) {
	res, err := d.exec.Execute(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`,
		db.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return rowToUser(res.Rows[0])
}

// GetUserByOauth2 retrieves a user by linked provider identity. The column
// name comes from the provider enum, never from caller input.
func (d *Db) GetUserByOauth2(ctx context.Context, provider db.Oauth2Provider, externalID string) (*db.User, error) {
	column, err := provider.Column()
	if err != nil {
		return nil, err
	}

	res, err := d.exec.Execute(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE %s = ? LIMIT 1`, userColumns, column),
		externalID)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return rowToUser(res.Rows[0])
}

// CreateUserWithPassword inserts a password account. The id is minted here
// when the caller left it empty. A taken email comes back wrapped around
// db.ErrConstraintUnique.
func (d *Db) CreateUserWithPassword(ctx context.Context, user db.User) (*db.User, error) {
	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := db.TimeFormat(d.now())

	res, err := d.exec.Execute(ctx,
		`INSERT INTO users (id, email, name, password, avatar, verified, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		id, db.NormalizeEmail(user.Email), nullable(user.Name), nullable(user.Password),
		nullable(user.Avatar), user.Verified, now, now)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, errors.New("sqldb: insert returned no row")
	}
	return rowToUser(res.Rows[0])
}

// UpsertUserWithOauth2 links an oauth2 profile to an account. Matching runs
// provider identity first, then normalized email, then inserts a fresh
// account. Losing an insert race against a concurrent callback for the same
// identity is retried once, when the winner's row is there to link against.
func (d *Db) UpsertUserWithOauth2(ctx context.Context, profile db.Oauth2Profile) (*db.User, error) {
	user, err := d.upsertOauth2(ctx, profile)
	if err != nil && errors.Is(err, db.ErrConstraintUnique) {
		return d.upsertOauth2(ctx, profile)
	}
	return user, err
}

func (d *Db) upsertOauth2(ctx context.Context, profile db.Oauth2Profile) (*db.User, error) {
	column, err := profile.Provider.Column()
	if err != nil {
		return nil, err
	}

	existing, err := d.GetUserByOauth2(ctx, profile.Provider, profile.ExternalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return d.refreshOauth2Profile(ctx, existing.ID, profile)
	}

	email := db.NormalizeEmail(profile.Email)
	if email != "" {
		existing, err = d.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return d.linkOauth2(ctx, existing.ID, column, profile)
		}
	}

	return d.createUserWithOauth2(ctx, column, profile)
}

// refreshOauth2Profile updates an account already linked to the provider:
// name and avatar follow non empty profile values, verified may only gain.
func (d *Db) refreshOauth2Profile(ctx context.Context, userID string, profile db.Oauth2Profile) (*db.User, error) {
	res, err := d.exec.Execute(ctx,
		`UPDATE users SET
			name = COALESCE(NULLIF(?, ''), name),
			avatar = COALESCE(NULLIF(?, ''), avatar),
			verified = verified OR ?,
			updated = ?
		WHERE id = ?
		RETURNING `+userColumns,
		profile.Name, profile.Avatar, profile.EmailVerified, db.TimeFormat(d.now()), userID)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, errors.New("sqldb: update returned no row")
	}
	return rowToUser(res.Rows[0])
}

// linkOauth2 attaches a provider identity to an account found by email. An
// identity that is already linked is never overwritten; the OR keeps
// verified from being cleared by an unverified provider claim.
func (d *Db) linkOauth2(ctx context.Context, userID, column string, profile db.Oauth2Profile) (*db.User, error) {
	res, err := d.exec.Execute(ctx,
		fmt.Sprintf(`UPDATE users SET
			%s = COALESCE(%s, ?),
			name = COALESCE(NULLIF(?, ''), name),
			avatar = COALESCE(NULLIF(?, ''), avatar),
			verified = verified OR ?,
			updated = ?
		WHERE id = ?
		RETURNING %s`, column, column, userColumns),
		profile.ExternalID, profile.Name, profile.Avatar, profile.EmailVerified,
		db.TimeFormat(d.now()), userID)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, errors.New("sqldb: update returned no row")
	}
	return rowToUser(res.Rows[0])
}

// createUserWithOauth2 inserts a fresh passwordless account from a profile.
func (d *Db) createUserWithOauth2(ctx context.Context, column string, profile db.Oauth2Profile) (*db.User, error) {
	email := db.NormalizeEmail(profile.Email)
	if email == "" {
		return nil, errors.New("sqldb: oauth2 profile carries no email for a new account")
	}
	now := db.TimeFormat(d.now())

	res, err := d.exec.Execute(ctx,
		fmt.Sprintf(`INSERT INTO users (id, email, name, avatar, verified, %s, created, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING %s`, column, userColumns),
		uuid.NewString(), email, nullable(profile.Name), nullable(profile.Avatar),
		profile.EmailVerified, profile.ExternalID, now, now)
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, errors.New("sqldb: insert returned no row")
	}
	return rowToUser(res.Rows[0])
}

// UpdatePassword replaces the stored password value. An empty newPassword
// stores NULL, turning the account passwordless.
func (d *Db) UpdatePassword(ctx context.Context, userID string, newPassword string) error {
	_, err := d.exec.Execute(ctx,
		`UPDATE users SET password = ?, updated = ? WHERE id = ?`,
		nullable(newPassword), db.TimeFormat(d.now()), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// VerifyEmail marks the account's email as confirmed.
func (d *Db) VerifyEmail(ctx context.Context, userID string) error {
	_, err := d.exec.Execute(ctx,
		`UPDATE users SET verified = TRUE, updated = ? WHERE id = ?`,
		db.TimeFormat(d.now()), userID)
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	return nil
}
