package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jayjaytrn/refund-desk/config"
	_ "github.com/jayjaytrn/refund-desk/internal/db/migrations"
	"github.com/jayjaytrn/refund-desk/models"
	"github.com/pressly/goose/v3"
)

const MigrationsDir = "./internal/db/migrations"

const uniqueViolation = "23505"

type Manager struct {
	Db *sql.DB
}

func NewManager(cfg *config.Config) (*Manager, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	manager := &Manager{
		Db: db,
	}

	if err = manager.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return manager, nil
}

func (m *Manager) Migrate() error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(m.Db, MigrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (m *Manager) PutUniqueUserData(ctx context.Context, user models.User) error {
	_, err := m.Db.ExecContext(ctx, `
        INSERT INTO users (uuid, login, name, password, role)
        VALUES ($1, $2, $3, $4, $5)
    `, user.UUID, user.Login, user.Name, user.Password, user.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("login %s: %w", user.Login, ErrDuplicate)
		}
		return fmt.Errorf("failed to insert user data: %w", err)
	}

	return nil
}

func (m *Manager) GetUserData(ctx context.Context, login string) (models.User, error) {
	var user models.User

	err := m.Db.QueryRowContext(ctx, `
		SELECT uuid, login, name, password, role
		FROM users
		WHERE login = $1
	`, login).Scan(&user.UUID, &user.Login, &user.Name, &user.Password, &user.Role)

	if errors.Is(err, sql.ErrNoRows) {
		return user, fmt.Errorf("user %s: %w", login, ErrNotFound)
	}
	if err != nil {
		return user, fmt.Errorf("failed to get user data: %w", err)
	}

	return user, nil
}

func (m *Manager) Close() error {
	return m.Db.Close()
}

// placeholders renders "$start, $start+1, ..." for n arguments.
func placeholders(n, start int) string {
	p := make([]string, n)
	for i := range p {
		p[i] = "$" + strconv.Itoa(start+i)
	}
	return strings.Join(p, ", ")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
