package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/AntonProkopyev/gh-summary-bot/internal/domain"
)

// sqlReport is the reports table: the full stats field set uniquely keyed
// by (subject, range_key). Year is denormalized for the per-year listing.
type sqlReport struct {
	ID       int64  `gorm:"primaryKey"`
	Subject  string `gorm:"uniqueIndex:idx_subject_range;size:255;not null"`
	RangeKey string `gorm:"uniqueIndex:idx_subject_range;size:64;not null"`
	Year     int    `gorm:"index"`

	StartDate time.Time
	EndDate   time.Time

	Commits              int
	PullRequests         int
	Issues               int
	Discussions          int
	Reviews              int
	ReposContributed     int
	StarredRepos         int
	Followers            int
	Following            int
	PublicRepos          int
	PrivateContributions int

	Languages map[string]int `gorm:"serializer:json"`

	LinesAdded   int
	LinesDeleted int
	LinesMethod  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// sqlSubject maps an external caller identity to the last GitHub login
// they asked about.
type sqlSubject struct {
	ID          int64  `gorm:"primaryKey"`
	CallerID    int64  `gorm:"uniqueIndex;not null"`
	Subject     string `gorm:"size:255"`
	LastQueryAt time.Time
	CreatedAt   time.Time
}

// SQLStore is the durable ReportCache and SubjectStore on gorm.
type SQLStore struct {
	db *gorm.DB
}

// WithSqlite opens a file-backed sqlite dialector.
func WithSqlite(file string) gorm.Dialector {
	return sqlite.Open(file + "?_pragma=journal_mode(WAL)")
}

// WithSqliteInMemory opens an in-memory sqlite dialector, used in tests.
func WithSqliteInMemory() gorm.Dialector {
	return sqlite.Open(":memory:")
}

// NewSQLStore opens the database and migrates the schema.
func NewSQLStore(d gorm.Dialector) (*SQLStore, error) {
	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	if err := db.AutoMigrate(&sqlReport{}, &sqlSubject{}); err != nil {
		return nil, fmt.Errorf("failed to migrate report schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Get returns the stored report for (subject, rangeKey), if any.
func (s *SQLStore) Get(ctx context.Context, subject, rangeKey string) (domain.CachedReport, bool, error) {
	var row sqlReport
	err := s.db.WithContext(ctx).
		Where("subject = ? AND range_key = ?", subject, rangeKey).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.CachedReport{}, false, nil
	}
	if err != nil {
		return domain.CachedReport{}, false, fmt.Errorf("failed to read cached report: %w", err)
	}
	return row.toReport(), true, nil
}

// Put upserts the report for (subject, rangeKey).
func (s *SQLStore) Put(ctx context.Context, subject, rangeKey string, stats domain.ContributionStats) (domain.CachedReport, error) {
	row := fromStats(subject, rangeKey, stats)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject"}, {Name: "range_key"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return domain.CachedReport{}, fmt.Errorf("failed to store report: %w", err)
	}
	// Re-read so ID and CreatedAt reflect what the upsert actually kept.
	stored, ok, err := s.Get(ctx, subject, rangeKey)
	if err != nil {
		return domain.CachedReport{}, err
	}
	if !ok {
		return domain.CachedReport{}, fmt.Errorf("stored report vanished for %s/%s", subject, rangeKey)
	}
	return stored, nil
}

// Years lists the calendar years with stored reports for a subject,
// oldest first.
func (s *SQLStore) Years(ctx context.Context, subject string) ([]int, error) {
	var years []int
	err := s.db.WithContext(ctx).
		Model(&sqlReport{}).
		Where("subject = ? AND year > 0", subject).
		Order("year").
		Distinct().
		Pluck("year", &years).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list report years: %w", err)
	}
	return years, nil
}

// Remember upserts the caller's last queried subject.
func (s *SQLStore) Remember(ctx context.Context, callerID int64, subject string) error {
	row := sqlSubject{CallerID: callerID, Subject: subject, LastQueryAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "caller_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"subject", "last_query_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to remember subject: %w", err)
	}
	return nil
}

// Recall returns the caller's remembered subject, if any.
func (s *SQLStore) Recall(ctx context.Context, callerID int64) (string, bool, error) {
	var row sqlSubject
	err := s.db.WithContext(ctx).Where("caller_id = ?", callerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to recall subject: %w", err)
	}
	return row.Subject, true, nil
}

func fromStats(subject, rangeKey string, stats domain.ContributionStats) sqlReport {
	year := 0
	if stats.DateRange.IsCalendarYear() {
		year = stats.DateRange.Year()
	}
	languages := make(map[string]int, len(stats.Languages))
	for k, v := range stats.Languages {
		languages[k] = v
	}
	return sqlReport{
		Subject:              subject,
		RangeKey:             rangeKey,
		Year:                 year,
		StartDate:            stats.DateRange.Start,
		EndDate:              stats.DateRange.End,
		Commits:              stats.Commits,
		PullRequests:         stats.PullRequests,
		Issues:               stats.Issues,
		Discussions:          stats.Discussions,
		Reviews:              stats.Reviews,
		ReposContributed:     stats.ReposContributed,
		StarredRepos:         stats.StarredRepos,
		Followers:            stats.Followers,
		Following:            stats.Following,
		PublicRepos:          stats.PublicRepos,
		PrivateContributions: stats.PrivateContributions,
		Languages:            languages,
		LinesAdded:           stats.LinesAdded,
		LinesDeleted:         stats.LinesDeleted,
		LinesMethod:          string(stats.LinesMethod),
	}
}

func (r sqlReport) toReport() domain.CachedReport {
	languages := make(map[string]int, len(r.Languages))
	for k, v := range r.Languages {
		languages[k] = v
	}
	return domain.CachedReport{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Stats: domain.ContributionStats{
			Subject:              r.Subject,
			DateRange:            domain.DateRange{Start: r.StartDate, End: r.EndDate},
			Commits:              r.Commits,
			PullRequests:         r.PullRequests,
			Issues:               r.Issues,
			Discussions:          r.Discussions,
			Reviews:              r.Reviews,
			ReposContributed:     r.ReposContributed,
			StarredRepos:         r.StarredRepos,
			Followers:            r.Followers,
			Following:            r.Following,
			PublicRepos:          r.PublicRepos,
			PrivateContributions: r.PrivateContributions,
			Languages:            languages,
			LinesAdded:           r.LinesAdded,
			LinesDeleted:         r.LinesDeleted,
			LinesMethod:          domain.LineMethod(r.LinesMethod),
		},
	}
}
