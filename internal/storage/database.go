package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"campusbot/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the database configured for dbType ("sqlite3" or "mysql").
func Open(dbType string, cfg *config.Config) (*sql.DB, error) {
	dbCfg, ok := cfg.Databases[dbType]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sql.DB
		err error
	)

	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// A single connection keeps :memory: databases coherent and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			dbCfg.Params,
		)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate ensures the required tables are present.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'student',
				degree TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS user_tokens (
				token TEXT PRIMARY KEY,
				user_id INTEGER NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL,
				FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_user_tokens_user ON user_tokens(user_id)`,
			`CREATE TABLE IF NOT EXISTS messages (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				content TEXT NOT NULL,
				is_user INTEGER NOT NULL,
				sentiment REAL NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, created_at)`,
			`CREATE TABLE IF NOT EXISTS schedules (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				class_name TEXT NOT NULL,
				day TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				location TEXT NOT NULL,
				instructor TEXT NOT NULL,
				degree TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_schedules_degree_day ON schedules(degree, day)`,
			`CREATE TABLE IF NOT EXISTS bus_routes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				route TEXT NOT NULL,
				schedule TEXT NOT NULL,
				duration TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS events (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				date TEXT NOT NULL,
				time TEXT NOT NULL,
				location TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS canteens (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS canteen_dishes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				canteen_id INTEGER NOT NULL,
				meal TEXT NOT NULL,
				dish TEXT NOT NULL,
				position INTEGER NOT NULL,
				FOREIGN KEY(canteen_id) REFERENCES canteens(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_canteen_dishes_canteen ON canteen_dishes(canteen_id, meal)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				username VARCHAR(255) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				role VARCHAR(32) NOT NULL DEFAULT 'student',
				degree VARCHAR(32) NOT NULL DEFAULT '',
				created_at DATETIME(6) NOT NULL,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS user_tokens (
				token VARCHAR(255) NOT NULL PRIMARY KEY,
				user_id BIGINT UNSIGNED NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL,
				INDEX idx_user_tokens_user (user_id),
				CONSTRAINT fk_user_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS messages (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				user_id BIGINT UNSIGNED NOT NULL,
				content MEDIUMTEXT NOT NULL,
				is_user TINYINT(1) NOT NULL,
				sentiment DOUBLE NOT NULL DEFAULT 0,
				created_at DATETIME(6) NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_messages_user (user_id, created_at),
				CONSTRAINT fk_messages_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS schedules (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				class_name VARCHAR(255) NOT NULL,
				day VARCHAR(16) NOT NULL,
				start_time CHAR(5) NOT NULL,
				end_time CHAR(5) NOT NULL,
				location VARCHAR(255) NOT NULL,
				instructor VARCHAR(255) NOT NULL,
				degree VARCHAR(32) NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_schedules_degree_day (degree, day)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS bus_routes (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				route VARCHAR(255) NOT NULL,
				schedule TEXT NOT NULL,
				duration VARCHAR(64) NOT NULL,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS events (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				title VARCHAR(255) NOT NULL,
				date CHAR(10) NOT NULL,
				time VARCHAR(16) NOT NULL,
				location VARCHAR(255) NOT NULL,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS canteens (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				name VARCHAR(255) NOT NULL UNIQUE,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS canteen_dishes (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				canteen_id BIGINT UNSIGNED NOT NULL,
				meal VARCHAR(16) NOT NULL,
				dish VARCHAR(255) NOT NULL,
				position INT NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_canteen_dishes_canteen (canteen_id, meal),
				CONSTRAINT fk_canteen_dishes_canteen FOREIGN KEY (canteen_id) REFERENCES canteens(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}
