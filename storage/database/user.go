package database

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jkarani/shulepay/core/user"
)

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	SchoolName   string    `db:"school_name"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    time.Time `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		SchoolName:   r.SchoolName,
		Role:         r.Role,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin,
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(email string, excludedUsers ...user.User) error {
	query := `SELECT COUNT(*) FROM users WHERE email = $1`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		var err error
		query, args, err = sqlx.In(`SELECT COUNT(*) FROM users WHERE email = ? AND id NOT IN (?)`, email, ids)
		if err != nil {
			return err
		}
		query = repo.db.Rebind(query)
	}

	var count int
	if err := repo.db.Get(&count, query, args...); err != nil {
		return err
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	const query = `
		INSERT INTO users (id, email, name, school_name, role, is_active, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :email, :name, :school_name, :role, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExec(query, repo.toRow(usr)); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, `SELECT * FROM users WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, `SELECT * FROM users WHERE email = $1`, email); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	const query = `
		UPDATE users
		SET email = :email, name = :name, school_name = :school_name, role = :role, is_active = :is_active,
		    password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExec(query, repo.toRow(usr))
	if err != nil {
		return user.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Email:        usr.Email,
		Name:         usr.Name,
		SchoolName:   usr.SchoolName,
		Role:         usr.Role,
		IsActive:     usr.IsActive,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    usr.LastLogin,
	}
}
