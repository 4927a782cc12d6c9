package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/shelter-map/internal/database"
	"github.com/jengzang/shelter-map/internal/models"
)

// ShelterRepository handles database operations for the shelter dataset
type ShelterRepository struct {
	db *sql.DB
}

// NewShelterRepository creates a new shelter repository
func NewShelterRepository(db *sql.DB) *ShelterRepository {
	return &ShelterRepository{db: db}
}

// ImportDataset replaces the stored dataset, keeping category and record order
func (r *ShelterRepository) ImportDataset(ctx context.Context, ds *models.Dataset, source string, report models.LoadReport) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM shelters"); err != nil {
			return fmt.Errorf("failed to clear shelters: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM categories"); err != nil {
			return fmt.Errorf("failed to clear categories: %w", err)
		}

		catStmt, err := tx.PrepareContext(ctx, "INSERT INTO categories (name, position) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare category insert: %w", err)
		}
		defer catStmt.Close()

		recStmt, err := tx.PrepareContext(ctx, `INSERT INTO shelters
			(category, position, osm_id, name, latitude, longitude)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare shelter insert: %w", err)
		}
		defer recStmt.Close()

		for i, c := range ds.Categories {
			if _, err := catStmt.ExecContext(ctx, string(c), i); err != nil {
				return fmt.Errorf("failed to insert category %q: %w", c, err)
			}
			for j, rec := range ds.Records[c] {
				_, err := recStmt.ExecContext(ctx, string(c), j, rec.ID, rec.Name, rec.Latitude, rec.Longitude)
				if err != nil {
					return fmt.Errorf("failed to insert shelter %q: %w", rec.Name, err)
				}
			}
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO dataset_imports (source, loaded, skipped) VALUES (?, ?, ?)",
			source, report.Loaded, report.Skipped)
		if err != nil {
			return fmt.Errorf("failed to record import: %w", err)
		}
		importID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get import id: %w", err)
		}

		for _, w := range report.Warnings {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO import_warnings (import_id, category, record_index, name, reason) VALUES (?, ?, ?, ?, ?)",
				importID, string(w.Category), w.Index, w.Name, w.Reason)
			if err != nil {
				return fmt.Errorf("failed to record import warning: %w", err)
			}
		}
		return nil
	})
}

// LoadDataset rebuilds the dataset in stored order
func (r *ShelterRepository) LoadDataset(ctx context.Context) (*models.Dataset, error) {
	ds := models.NewDataset()

	rows, err := r.db.QueryContext(ctx, "SELECT name FROM categories ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		ds.AddCategory(models.Category(name))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx, `SELECT s.category, s.osm_id, s.name, s.latitude, s.longitude
		FROM shelters s JOIN categories c ON c.name = s.category
		ORDER BY c.position, s.position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shelters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.ShelterRecord
		if err := rows.Scan(&rec.Category, &rec.ID, &rec.Name, &rec.Latitude, &rec.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan shelter: %w", err)
		}
		ds.Add(rec)
	}
	return ds, rows.Err()
}

// LastImport returns the most recent import summary with its warnings
func (r *ShelterRepository) LastImport(ctx context.Context) (source string, report models.LoadReport, err error) {
	var importID int64
	err = r.db.QueryRowContext(ctx,
		"SELECT id, source, loaded, skipped FROM dataset_imports ORDER BY id DESC LIMIT 1").
		Scan(&importID, &source, &report.Loaded, &report.Skipped)
	if err == sql.ErrNoRows {
		return "", report, nil
	}
	if err != nil {
		return "", report, fmt.Errorf("failed to query imports: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT category, record_index, name, reason FROM import_warnings WHERE import_id = ? ORDER BY id",
		importID)
	if err != nil {
		return "", report, fmt.Errorf("failed to query import warnings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w models.LoadWarning
		if err := rows.Scan(&w.Category, &w.Index, &w.Name, &w.Reason); err != nil {
			return "", report, fmt.Errorf("failed to scan import warning: %w", err)
		}
		report.Warnings = append(report.Warnings, w)
	}
	if err := rows.Err(); err != nil {
		return "", report, err
	}
	return source, report, nil
}
