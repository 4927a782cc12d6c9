package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jengzang/shelter-map/internal/database"
	"github.com/jengzang/shelter-map/internal/dataset"
	"github.com/jengzang/shelter-map/internal/models"
	"github.com/jengzang/shelter-map/internal/repository"
)

// DatasetService loads the shelter dataset from its configured source
type DatasetService struct {
	dbPath string
	logger *zap.Logger
}

// NewDatasetService creates a dataset service backed by the SQLite file at dbPath
func NewDatasetService(dbPath string, logger *zap.Logger) *DatasetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatasetService{dbPath: dbPath, logger: logger}
}

// LoadJSON reads the dataset file
func (s *DatasetService) LoadJSON(path string) (*models.Dataset, models.LoadReport, error) {
	return dataset.LoadFile(path, s.logger)
}

// LoadStored reads the dataset last imported into SQLite
func (s *DatasetService) LoadStored(ctx context.Context) (*models.Dataset, models.LoadReport, error) {
	var (
		ds     *models.Dataset
		report models.LoadReport
	)
	err := s.withRepo(ctx, func(repo *repository.ShelterRepository) error {
		var err error
		if ds, err = repo.LoadDataset(ctx); err != nil {
			return err
		}
		_, report, err = repo.LastImport(ctx)
		return err
	})
	if err != nil {
		return nil, report, err
	}

	s.logger.Info("dataset loaded from sqlite", zap.Int("categories", len(ds.Categories)), zap.Int("records", ds.Count()))
	return ds, report, nil
}

// Import reads a dataset file and replaces the stored dataset with it
func (s *DatasetService) Import(ctx context.Context, path string) (models.LoadReport, error) {
	ds, report, err := s.LoadJSON(path)
	if err != nil {
		return report, err
	}

	err = s.withRepo(ctx, func(repo *repository.ShelterRepository) error {
		return repo.ImportDataset(ctx, ds, path, report)
	})
	if err != nil {
		return report, fmt.Errorf("failed to import %s: %w", path, err)
	}

	s.logger.Info("dataset imported",
		zap.String("source", path),
		zap.Int("categories", len(ds.Categories)),
		zap.Int("loaded", report.Loaded),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (s *DatasetService) withRepo(ctx context.Context, fn func(*repository.ShelterRepository) error) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(repository.NewShelterRepository(db))
}

func (s *DatasetService) open(ctx context.Context) (*sql.DB, error) {
	db, err := database.Open(database.Config{Path: s.dbPath}, s.logger)
	if err != nil {
		return nil, err
	}
	if err := database.NewMigrationManager(db, s.logger).RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
