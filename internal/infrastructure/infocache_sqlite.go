package infrastructure

import (
	"fmt"
	"time"

	"github.com/yourusername/reel-summarize-go/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteMediaInfoRepository implements MediaInfoRepository using SQLite
type SQLiteMediaInfoRepository struct {
	db *gorm.DB
}

// NewSQLiteMediaInfoRepository creates a new SQLite-backed metadata cache
func NewSQLiteMediaInfoRepository(dbPath string) (*SQLiteMediaInfoRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.CachedMediaInfo{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteMediaInfoRepository{db: db}, nil
}

// Get returns the cached row for a URL
// Returns nil if not found
func (r *SQLiteMediaInfoRepository) Get(url string) (*domain.CachedMediaInfo, error) {
	var cached domain.CachedMediaInfo
	err := r.db.First(&cached, "url = ?", url).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &cached, nil
}

// Save inserts or refreshes the row for its URL
func (r *SQLiteMediaInfoRepository) Save(info *domain.CachedMediaInfo) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "url"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"media_id", "title", "description", "duration",
			"uploader", "thumbnail", "platform", "fetched_at",
		}),
	}).Create(info).Error
}

// Purge removes rows fetched before the cutoff and returns how many went
func (r *SQLiteMediaInfoRepository) Purge(olderThan time.Time) (int64, error) {
	result := r.db.Where("fetched_at < ?", olderThan).Delete(&domain.CachedMediaInfo{})
	return result.RowsAffected, result.Error
}

// Count returns the number of cached rows
func (r *SQLiteMediaInfoRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.CachedMediaInfo{}).Count(&count).Error
	return count, err
}

// Close closes the database connection
func (r *SQLiteMediaInfoRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
