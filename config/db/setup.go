package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/medorbit/telecare/models"
)

type Options struct {
	PrimaryDSN   string
	ReplicaDSNs  []string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	MaxIdleTime  time.Duration
}

type DB struct {
	*gorm.DB
}

func (db *DB) GetDB() *gorm.DB {
	return db.DB
}

func CreateDB(opts Options) (*DB, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(opts.PrimaryDSN), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to primary database: %v", err)
	}

	// Reads may go to replicas; everything inside a transaction stays on the
	// primary, which is what the row-locking workflows rely on.
	if len(opts.ReplicaDSNs) > 0 {
		resolverConfig := dbresolver.Config{}
		for _, replicaDSN := range opts.ReplicaDSNs {
			resolverConfig.Replicas = append(resolverConfig.Replicas, postgres.Open(replicaDSN))
		}

		err = db.Use(dbresolver.Register(resolverConfig).
			SetConnMaxIdleTime(opts.MaxIdleTime).
			SetConnMaxLifetime(opts.MaxLifetime).
			SetMaxIdleConns(opts.MaxIdleConns).
			SetMaxOpenConns(opts.MaxOpenConns))
		if err != nil {
			return nil, fmt.Errorf("failed to configure read replicas: %v", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %v", err)
	}

	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(opts.MaxIdleTime)

	return &DB{db}, nil
}

func (db *DB) Migrate() error {
	return db.AutoMigrate(
		&models.Doctor{},
		&models.Patient{},
		&models.Consultation{},
		&models.Payment{},
		&models.Invoice{},
		&models.TaxRecord{},
		&models.Appointment{},
		&models.AuditLog{},
	)
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %v", err)
	}
	return sqlDB.Close()
}
