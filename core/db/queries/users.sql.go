package queries

import "context"

const userColumns = `id, name, email, avatar_url, workos_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.AvatarUrl,
		&i.WorkosID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUser, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const upsertUserByEmail = `
INSERT INTO users (id, name, email, avatar_url)
VALUES ($1, $2, lower($3), $4)
ON CONFLICT ((lower(email))) DO UPDATE
SET name = CASE WHEN users.name = '' THEN EXCLUDED.name ELSE users.name END,
    updated_at = now()
RETURNING ` + userColumns

type UpsertUserByEmailParams struct {
	ID        int64
	Name      string
	Email     string
	AvatarUrl *string
}

func (q *Queries) UpsertUserByEmail(ctx context.Context, arg UpsertUserByEmailParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, upsertUserByEmail, arg.ID, arg.Name, arg.Email, arg.AvatarUrl))
}

const upsertUserByWorkOSID = `
INSERT INTO users (id, name, email, avatar_url, workos_id)
VALUES ($1, $2, lower($3), $4, $5)
ON CONFLICT ((lower(email))) DO UPDATE
SET name = EXCLUDED.name,
    avatar_url = EXCLUDED.avatar_url,
    workos_id = EXCLUDED.workos_id,
    updated_at = now()
RETURNING ` + userColumns

type UpsertUserByWorkOSIDParams struct {
	ID        int64
	Name      string
	Email     string
	AvatarUrl *string
	WorkosID  *string
}

func (q *Queries) UpsertUserByWorkOSID(ctx context.Context, arg UpsertUserByWorkOSIDParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, upsertUserByWorkOSID, arg.ID, arg.Name, arg.Email, arg.AvatarUrl, arg.WorkosID))
}

const setUserWorkOSID = `
UPDATE users
SET workos_id = $2, updated_at = now()
WHERE id = $1
`

type SetUserWorkOSIDParams struct {
	ID       int64
	WorkosID *string
}

func (q *Queries) SetUserWorkOSID(ctx context.Context, arg SetUserWorkOSIDParams) (int64, error) {
	tag, err := q.db.Exec(ctx, setUserWorkOSID, arg.ID, arg.WorkosID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
