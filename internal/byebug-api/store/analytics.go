package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"byebug-backend/internal/byebug-api/db"
)

// AnalyticsStore owns the read-mostly analytics collections and the
// summary arithmetic derived from them.
type AnalyticsStore struct {
	DB *gorm.DB
}

func NewAnalyticsStore(gormDB *gorm.DB) *AnalyticsStore {
	return &AnalyticsStore{DB: gormDB}
}

func (s *AnalyticsStore) CreateTestRun(ctx context.Context, run *db.TestRun) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&db.TestRun{}).Where("id = ?", run.ID).Count(&count).Error; err != nil {
		return wrapDBErr(err, "test run", run.ID)
	}
	if count > 0 {
		return fmt.Errorf("test run %q: %w", run.ID, ErrConflict)
	}
	if err := s.DB.WithContext(ctx).Create(run).Error; err != nil {
		return wrapDBErr(err, "test run", run.ID)
	}
	return nil
}

func (s *AnalyticsStore) ListTestRuns(ctx context.Context) ([]db.TestRun, error) {
	runs := []db.TestRun{}
	if err := s.DB.WithContext(ctx).Order("id").Find(&runs).Error; err != nil {
		return nil, wrapDBErr(err, "test run", "*")
	}
	return runs, nil
}

func (s *AnalyticsStore) CreateBug(ctx context.Context, bug *db.Bug) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&db.Bug{}).Where("id = ?", bug.ID).Count(&count).Error; err != nil {
		return wrapDBErr(err, "bug", bug.ID)
	}
	if count > 0 {
		return fmt.Errorf("bug %q: %w", bug.ID, ErrConflict)
	}
	if err := s.DB.WithContext(ctx).Create(bug).Error; err != nil {
		return wrapDBErr(err, "bug", bug.ID)
	}
	return nil
}

func (s *AnalyticsStore) ListBugs(ctx context.Context) ([]db.Bug, error) {
	bugs := []db.Bug{}
	if err := s.DB.WithContext(ctx).Order("id").Find(&bugs).Error; err != nil {
		return nil, wrapDBErr(err, "bug", "*")
	}
	return bugs, nil
}

func (s *AnalyticsStore) CreateCoverage(ctx context.Context, cov *db.ModuleCoverage) error {
	key := cov.Module + "/" + cov.Date
	var count int64
	if err := s.DB.WithContext(ctx).Model(&db.ModuleCoverage{}).
		Where("module = ? AND date = ?", cov.Module, cov.Date).Count(&count).Error; err != nil {
		return wrapDBErr(err, "coverage", key)
	}
	if count > 0 {
		return fmt.Errorf("coverage %q: %w", key, ErrConflict)
	}
	if err := s.DB.WithContext(ctx).Create(cov).Error; err != nil {
		return wrapDBErr(err, "coverage", key)
	}
	return nil
}

func (s *AnalyticsStore) ListCoverage(ctx context.Context) ([]db.ModuleCoverage, error) {
	cov := []db.ModuleCoverage{}
	if err := s.DB.WithContext(ctx).Order("module, date").Find(&cov).Error; err != nil {
		return nil, wrapDBErr(err, "coverage", "*")
	}
	return cov, nil
}

// Summary aggregates the three collections. Rates are percentages;
// empty collections yield zero rates rather than NaN.
func (s *AnalyticsStore) Summary(ctx context.Context) (*db.Analytics, error) {
	runs, err := s.ListTestRuns(ctx)
	if err != nil {
		return nil, err
	}
	bugs, err := s.ListBugs(ctx)
	if err != nil {
		return nil, err
	}
	coverage, err := s.ListCoverage(ctx)
	if err != nil {
		return nil, err
	}

	totalTests := 0
	passedTests := 0
	for _, r := range runs {
		totalTests += r.TotalTests
		passedTests += r.PassedTests
	}
	passRate := 0.0
	if totalTests > 0 {
		passRate = float64(passedTests) / float64(totalTests) * 100
	}

	bugsFixed := 0
	for _, b := range bugs {
		if b.Status == "fixed" || b.Status == "verified" {
			bugsFixed++
		}
	}
	fixRate := 0.0
	if len(bugs) > 0 {
		fixRate = float64(bugsFixed) / float64(len(bugs)) * 100
	}

	avgCoverage := 0.0
	if len(coverage) > 0 {
		sum := 0.0
		for _, c := range coverage {
			sum += c.LineCoverage
		}
		avgCoverage = sum / float64(len(coverage))
	}

	return &db.Analytics{
		TotalTestRuns:   len(runs),
		TestPassRate:    passRate,
		BugsDetected:    len(bugs),
		BugsFixed:       bugsFixed,
		FixSuccessRate:  fixRate,
		AverageCoverage: avgCoverage,
	}, nil
}

// SaveSnapshot computes the current summary and records it.
func (s *AnalyticsStore) SaveSnapshot(ctx context.Context) (*db.AnalyticsSnapshot, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}
	snap := &db.AnalyticsSnapshot{
		TakenAt:         time.Now().UTC(),
		TotalTestRuns:   summary.TotalTestRuns,
		TestPassRate:    summary.TestPassRate,
		BugsDetected:    summary.BugsDetected,
		BugsFixed:       summary.BugsFixed,
		FixSuccessRate:  summary.FixSuccessRate,
		AverageCoverage: summary.AverageCoverage,
	}
	if err := s.DB.WithContext(ctx).Create(snap).Error; err != nil {
		return nil, wrapDBErr(err, "analytics snapshot", "new")
	}
	return snap, nil
}

func (s *AnalyticsStore) ListSnapshots(ctx context.Context) ([]db.AnalyticsSnapshot, error) {
	snaps := []db.AnalyticsSnapshot{}
	if err := s.DB.WithContext(ctx).Order("taken_at").Find(&snaps).Error; err != nil {
		return nil, wrapDBErr(err, "analytics snapshot", "*")
	}
	return snaps, nil
}
