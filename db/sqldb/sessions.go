package sqldb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dundas/lightauth/db"
	"github.com/dundas/lightauth/db/executor"
)

const sessionColumns = `id, user_id, expires_at, COALESCE(ip, '') AS ip,
	COALESCE(user_agent, '') AS user_agent, created`

func rowToSession(row executor.Row) (*db.Session, error) {
	expiresAt, err := row.Time("expires_at")
	if err != nil {
		return nil, fmt.Errorf("error parsing expires_at time: %w", err)
	}
	created, err := row.Time("created")
	if err != nil {
		return nil, fmt.Errorf("error parsing created time: %w", err)
	}

	return &db.Session{
		ID:        row.Text("id"),
		UserID:    row.Text("user_id"),
		ExpiresAt: expiresAt,
		IP:        row.Text("ip"),
		UserAgent: row.Text("user_agent"),
		Created:   created,
	}, nil
}

// CreateSession stores a new login. The identifier must be minted by the
// caller (see crypto.NewSessionID); the store never invents credentials.
func (d *Db) CreateSession(ctx context.Context, session db.Session) (*db.Session, error) {
	if session.ID == "" {
		return nil, errors.New("sqldb: session id is empty")
	}
	if session.UserID == "" {
		return nil, errors.New("sqldb: session user id is empty")
	}
	created := session.Created
	if created.IsZero() {
		created = d.now()
	}

	_, err := d.exec.Execute(ctx,
		`INSERT INTO sessions (id, user_id, expires_at, ip, user_agent, created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, db.TimeFormat(session.ExpiresAt),
		nullable(session.IP), nullable(session.UserAgent), db.TimeFormat(created))
	if err != nil {
		return nil, err
	}

	// Return what a later read would see: second precision, UTC.
	session.ExpiresAt = session.ExpiresAt.UTC().Truncate(time.Second)
	session.Created = created.UTC().Truncate(time.Second)
	return &session, nil
}

// ValidateSession resolves a presented identifier to its session and user in
// a single round trip. The expiry comparison runs inside the query; expired
// and unknown identifiers are indistinguishable to the caller, and nothing
// is deleted as a side effect.
// Note: nil results with nil error indicate no live session was found
func (d *Db) ValidateSession(ctx context.Context, id string) (*db.User, *db.Session, error) {
	res, err := d.exec.Execute(ctx,
		`SELECT
			u.id AS u_id, u.email, COALESCE(u.name, '') AS name,
			COALESCE(u.password, '') AS password, COALESCE(u.avatar, '') AS avatar,
			u.verified, COALESCE(u.github_id, '') AS github_id,
			COALESCE(u.google_id, '') AS google_id,
			u.created AS u_created, u.updated AS u_updated,
			s.id AS s_id, s.user_id, s.expires_at,
			COALESCE(s.ip, '') AS ip, COALESCE(s.user_agent, '') AS user_agent,
			s.created AS s_created
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ? AND s.expires_at > ?
		LIMIT 1`,
		id, db.TimeFormat(d.now()))
	if err != nil {
		return nil, nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil, nil
	}
	row := res.Rows[0]

	uCreated, err := row.Time("u_created")
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing created time: %w", err)
	}
	uUpdated, err := row.Time("u_updated")
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing updated time: %w", err)
	}
	expiresAt, err := row.Time("expires_at")
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing expires_at time: %w", err)
	}
	sCreated, err := row.Time("s_created")
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing created time: %w", err)
	}

	user := &db.User{
		ID:       row.Text("u_id"),
		Email:    row.Text("email"),
		Name:     row.Text("name"),
		Password: row.Text("password"),
		Avatar:   row.Text("avatar"),
		Verified: row.Bool("verified"),
		GithubID: row.Text("github_id"),
		GoogleID: row.Text("google_id"),
		Created:  uCreated,
		Updated:  uUpdated,
	}
	session := &db.Session{
		ID:        row.Text("s_id"),
		UserID:    row.Text("user_id"),
		ExpiresAt: expiresAt,
		IP:        row.Text("ip"),
		UserAgent: row.Text("user_agent"),
		Created:   sCreated,
	}
	return user, session, nil
}

// DeleteSession removes one session. Unknown identifiers are a no-op, so
// logout is idempotent.
func (d *Db) DeleteSession(ctx context.Context, id string) error {
	_, err := d.exec.Execute(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteAllUserSessions removes every session of one user, reporting how
// many went away. Credential changes call this to force re-login everywhere.
func (d *Db) DeleteAllUserSessions(ctx context.Context, userID string) (int64, error) {
	res, err := d.exec.Execute(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return res.RowCount, nil
}

// CleanupExpiredSessions deletes sessions past their expiry. Concurrent
// sweeps are safe; whoever runs later simply deletes zero rows.
func (d *Db) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	res, err := d.exec.Execute(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, db.TimeFormat(d.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	return res.RowCount, nil
}
