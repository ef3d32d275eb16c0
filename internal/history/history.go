// Package history persists a record of each compile invocation to a
// SQLite database via GORM, the way the generated GMX data layer opens
// a gorm.DB and AutoMigrates its models before serving requests. It is
// an external collaborator to the compiler pipeline, not part of it:
// nothing in internal/compiler imports this package.
package history

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// CompileRecord is one row of compile history: what was compiled, how
// it went, and when.
type CompileRecord struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	SourcePath       string    `json:"sourcePath"`
	Success          bool      `json:"success"`
	ExitCode         int       `json:"exitCode"`
	ErrorCount       int       `json:"errorCount"`
	WarningCount     int       `json:"warningCount"`
	InstructionCount int       `json:"instructionCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Store wraps a gorm.DB scoped to the compile-history schema.
type Store struct {
	db *gorm.DB
}

// Open connects to (and creates if necessary) the SQLite database at
// path and migrates the CompileRecord schema into it.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&CompileRecord{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Record inserts a new CompileRecord.
func (s *Store) Record(rec *CompileRecord) error {
	return s.db.Create(rec).Error
}

// Recent returns the most recently recorded runs, newest first,
// limited to at most limit rows.
func (s *Store) Recent(limit int) ([]CompileRecord, error) {
	var recs []CompileRecord
	err := s.db.Order("created_at desc, id desc").Limit(limit).Find(&recs).Error
	return recs, err
}

// ForSource returns the recorded runs for a given source path, newest
// first, limited to at most limit rows.
func (s *Store) ForSource(path string, limit int) ([]CompileRecord, error) {
	var recs []CompileRecord
	err := s.db.Where("source_path = ?", path).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
