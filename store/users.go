package store

import (
	"time"

	"noteboard/models"
)

const userColumns = "id, username, password_hash, is_superuser, created_at"

func scanUser(scan func(dest ...any) error) (models.User, error) {
	var u models.User
	var created string
	if err := scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsSuperuser, &created); err != nil {
		return models.User{}, err
	}
	var err error
	if u.CreatedAt, err = ParseTime(created); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func CreateUser(q Querier, username, passwordHash string, superuser bool) (models.User, error) {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := q.Exec(
		"INSERT INTO users (username, password_hash, is_superuser, created_at) VALUES (?, ?, ?, ?)",
		username, passwordHash, superuser, FormatTime(now),
	)
	if err != nil {
		return models.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		ID:           int(id),
		Username:     username,
		PasswordHash: passwordHash,
		IsSuperuser:  superuser,
		CreatedAt:    now,
	}, nil
}

// UserByUsername does a case-sensitive lookup. MySQL's default collation is
// case-insensitive, so the exact comparison happens here rather than in SQL.
func UserByUsername(q Querier, username string) (models.User, error) {
	rows, err := q.Query("SELECT "+userColumns+" FROM users WHERE username = ?", username)
	if err != nil {
		return models.User{}, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return models.User{}, err
		}
		if u.Username == username {
			return u, nil
		}
	}
	if err := rows.Err(); err != nil {
		return models.User{}, err
	}
	return models.User{}, ErrNoUser
}

func UserByID(q Querier, id int) (models.User, error) {
	row := q.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row.Scan)
}
