package database

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nebulap8/teams-automation/internal/config"

	// Драйверы миграций: источник file и база postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	// pgx/stdlib нужен для регистрации драйвера pgx в database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresDB struct {
	Pool   *pgxpool.Pool
	Config *config.Config
	Logger *slog.Logger
}

func NewPostgresDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка при парсинге строки подключения к PostgreSQL: %w", err)
	}

	if cfg.DatabaseMaxConn > 0 && cfg.DatabaseMaxConn <= math.MaxInt32 {
		poolConfig.MaxConns = int32(cfg.DatabaseMaxConn)
	}

	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании пула соединений PostgreSQL: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка при проверке соединения с PostgreSQL: %w", err)
	}

	logger.Info("Соединение с PostgreSQL успешно установлено")

	return &PostgresDB{
		Pool:   pool,
		Config: cfg,
		Logger: logger,
	}, nil
}

// RunMigrations применяет невыполненные миграции из каталога cfg.MigrationsPath.
func (db *PostgresDB) RunMigrations() error {
	path, err := filepath.Abs(db.Config.MigrationsPath)
	if err != nil {
		return fmt.Errorf("ошибка при определении каталога миграций: %w", err)
	}

	m, err := migrate.New("file://"+path, db.Config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("ошибка при инициализации миграций: %w", err)
	}

	defer func() {
		sourceErr, dbErr := m.Close()
		if sourceErr != nil {
			db.Logger.Error("Ошибка при закрытии источника миграций", "error", sourceErr)
		}

		if dbErr != nil {
			db.Logger.Error("Ошибка при закрытии соединения миграций", "error", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			db.Logger.Info("Новых миграций нет")
			return nil
		}

		return fmt.Errorf("ошибка при применении миграций: %w", err)
	}

	db.Logger.Info("Миграции успешно применены")

	return nil
}

func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.Logger.Info("Соединение с PostgreSQL закрыто")
	}
}
