package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/models"
	domrepo "github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/repository"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	associationsName = "change_point_associations"
	nearbyName       = "nearby_events"
)

// FileResultStore keeps the latest analysis as two tables in a reports
// directory, written either as CSV files or as XLSX workbooks.
type FileResultStore struct {
	dir    string
	format string
	log    *logger.Logger
	mu     sync.RWMutex
}

func NewFileResultStore(dir, format string, l *logger.Logger) (domrepo.ResultStore, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
	if l == nil {
		l = logger.Nop()
	}
	return &FileResultStore{dir: dir, format: format, log: l}, nil
}

func (s *FileResultStore) Init(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	return nil
}

func (s *FileResultStore) path(name string) string {
	return filepath.Join(s.dir, name+"."+s.format)
}

func (s *FileResultStore) Save(ctx context.Context, rec models.AnalysisRecord, nearby []models.NearbyEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	assoc := [][]string{associationColumns, recordRow(rec)}
	events := [][]string{nearbyColumns}
	for _, e := range nearby {
		events = append(events, nearbyRow(rec.RunID, e))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(associationsName, assoc); err != nil {
		return err
	}
	if err := s.write(nearbyName, events); err != nil {
		return err
	}
	s.log.Info("analysis saved",
		logger.String("run_id", rec.RunID),
		logger.String("dir", s.dir),
		logger.String("format", s.format),
		logger.Int("nearby_events", len(nearby)),
	)
	return nil
}

func (s *FileResultStore) Latest(ctx context.Context) (models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return models.AnalysisResult{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.read(associationsName)
	if errors.Is(err, fs.ErrNotExist) {
		return models.PendingResult("no analysis has been run yet"), nil
	}
	if err != nil {
		return models.AnalysisResult{}, err
	}
	if len(rows) < 2 {
		return models.PendingResult("no analysis has been run yet"), nil
	}
	// The last row is the most recent run.
	rec, err := parseRecord(rows[0], rows[len(rows)-1])
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("parse %s: %w", associationsName, err)
	}

	var nearby []models.NearbyEvent
	rows, err = s.read(nearbyName)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return models.AnalysisResult{}, err
	case len(rows) > 1:
		for _, row := range rows[1:] {
			runID, ev, err := parseNearby(rows[0], row)
			if err != nil {
				return models.AnalysisResult{}, fmt.Errorf("parse %s: %w", nearbyName, err)
			}
			if runID == rec.RunID {
				nearby = append(nearby, ev)
			}
		}
	}
	return models.ComputedResult(rec, nearby), nil
}

func (s *FileResultStore) Close() error { return nil }

func (s *FileResultStore) write(name string, rows [][]string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	dst := s.path(name)
	tmp := s.path(name + ".tmp")
	var err error
	if s.format == FormatXLSX {
		err = writeXLSX(tmp, name, rows)
	} else {
		err = writeCSV(tmp, rows)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return os.Rename(tmp, dst)
}

func (s *FileResultStore) read(name string) ([][]string, error) {
	if s.format == FormatXLSX {
		return readXLSX(s.path(name), name)
	}
	return readCSV(s.path(name))
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func writeXLSX(path, sheet string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func readXLSX(path, sheet string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(sheet)
}
