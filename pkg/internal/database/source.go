package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DialectSqlite   = "sqlite"
	DialectPostgres = "postgres"
	DialectMysql    = "mysql"
)

type Config struct {
	Dialect      string
	DSN          string
	MaxOpenConns int
	Debug        bool
}

// ConfigFromSettings reads the store settings, an explicit dsn wins over the split
// host / credential parameters.
func ConfigFromSettings() Config {
	cfg := Config{
		Dialect:      strings.ToLower(viper.GetString("database.dialect")),
		DSN:          viper.GetString("database.dsn"),
		MaxOpenConns: viper.GetInt("database.max_open_conns"),
		Debug:        viper.GetBool("debug.database"),
	}
	if len(cfg.Dialect) == 0 {
		cfg.Dialect = DialectSqlite
	}
	if len(cfg.DSN) == 0 || (cfg.Dialect != DialectSqlite && len(viper.GetString("database.host")) > 0) {
		cfg.DSN = BuildDSN(
			cfg.Dialect,
			viper.GetString("database.host"),
			viper.GetInt("database.port"),
			viper.GetString("database.name"),
			viper.GetString("database.user"),
			viper.GetString("database.password"),
		)
	}
	return cfg
}

func BuildDSN(dialect, host string, port int, name, user, password string) string {
	switch dialect {
	case DialectPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			host, lo.Ternary(port > 0, port, 5432), user, password, name,
			lo.Ternary(viper.GetBool("database.ssl"), "require", "disable"),
		)
	case DialectMysql:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			user, password, host, lo.Ternary(port > 0, port, 3306), name,
		)
	default:
		return lo.Ternary(len(name) > 0, name, "conduit.db")
	}
}

func NewDialector(cfg Config) (gorm.Dialector, error) {
	switch cfg.Dialect {
	case DialectSqlite:
		return sqlite.Open(SqliteDSN(cfg.DSN)), nil
	case DialectPostgres:
		return postgres.Open(cfg.DSN), nil
	case DialectMysql:
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database dialect: %s", cfg.Dialect)
	}
}

// SqliteDSN turns on the pragmas every connection needs. SQLite ignores foreign
// keys unless asked per connection, and writers wait for the lock instead of
// failing with SQLITE_BUSY.
func SqliteDSN(dsn string) string {
	pragmas := []string{"foreign_keys(1)", "busy_timeout(5000)"}
	for _, pragma := range pragmas {
		name := strings.SplitN(pragma, "(", 2)[0]
		if strings.Contains(dsn, name) {
			continue
		}
		dsn += lo.Ternary(strings.Contains(dsn, "?"), "&", "?") + "_pragma=" + pragma
	}
	return dsn
}

// Open builds a store handle, the caller owns it and must Close it.
func Open(cfg Config) (*gorm.DB, error) {
	dialector, err := NewDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: logger.New(&log.Logger, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			Colorful:                  true,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  lo.Ternary(cfg.Debug, logger.Info, logger.Silent),
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open %s database: %v", cfg.Dialect, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer and every connection of an in-memory database is
	// a separate database, so writes are serialized on one connection.
	if cfg.Dialect == DialectSqlite {
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return db, nil
}

func NewGorm() (*gorm.DB, error) {
	return Open(ConfigFromSettings())
}

func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("unable to reach database: %v", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenInMemory returns a migrated private sqlite store, mostly for tests.
func OpenInMemory() (*gorm.DB, error) {
	db, err := Open(Config{Dialect: DialectSqlite, DSN: "file::memory:"})
	if err != nil {
		return nil, err
	}
	if err := DeclareRelations(db); err != nil {
		return nil, err
	}
	if err := RunMigration(db); err != nil {
		return nil, err
	}
	return db, nil
}
