package repositories

import (
	"database/sql"
	"strings"

	intconfig "dtt/internal/config"
)

// User is an operator account allowed to sign in.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	PasswordHash string `json:"-"`
}

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// FindByLogin looks a user up by email or username.
func (r UserRepository) FindByLogin(login string) (User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return User{}, sql.ErrNoRows
	}
	db := r.db()
	if db == nil {
		return User{}, sql.ErrConnDone
	}
	var u User
	err := db.QueryRow(`
		SELECT id, COALESCE(name,''), COALESCE(username,''), COALESCE(email,''),
		       COALESCE(password_hash,''), COALESCE(role,''), COALESCE(status,'')
		FROM users
		WHERE email = ? OR username = ?
		LIMIT 1`, login, login).Scan(
		&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
	)
	return u, err
}

// CountUsers backs the database health check.
func (r UserRepository) CountUsers() (int, error) {
	db := r.db()
	if db == nil {
		return 0, sql.ErrConnDone
	}
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
