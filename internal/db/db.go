package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/yungbote/branchaudit-backend/internal/domain"
	"github.com/yungbote/branchaudit-backend/internal/domain/audit"
	"github.com/yungbote/branchaudit-backend/internal/platform/logger"
)

type Config struct {
	Driver     string
	DSN        string
	SQLitePath string
	LogQueries bool
}

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(log *logger.Logger, cfg Config) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}
	if cfg.LogQueries {
		gormCfg.Logger = gormLogger.Default.LogMode(gormLogger.Info)
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "postgres":
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, fmt.Errorf("missing POSTGRES_DSN")
		}
		dialector = postgres.Open(cfg.DSN)
	case "sqlite":
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	serviceLog.Info("Connecting to database...", "driver", cfg.Driver)
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		serviceLog.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &Service{db: db, log: serviceLog}, nil
}

// NewSQLiteMemory opens a private in-memory database; used by tests and local runs.
func NewSQLiteMemory(log *logger.Logger) (*Service, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	// A single connection keeps every query on the same in-memory database.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	return &Service{db: db, log: log.With("service", "DBService")}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := AutoMigrate(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

// AutoMigrate creates the entity tables plus one table per derived audit category.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate entities: %w", err)
	}
	for _, cat := range audit.DerivedCategories() {
		table := cat.TableName()
		if err := db.Table(table).AutoMigrate(&audit.DerivedComplianceAudit{}); err != nil {
			return fmt.Errorf("automigrate %s: %w", table, err)
		}
		// Index names are database-global, so they carry the table name.
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_original_audit_id ON %s (original_audit_id)", table, table)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index %s: %w", table, err)
		}
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
