package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/store"
)

// FileStore keeps past reports in a JSON array file capped at maxReports entries.
type FileStore struct {
	path       string
	maxReports int
	log        *zap.Logger
}

// NewFileStore returns a report FileStore at path keeping at most maxReports
// reports. Zero keeps all of them.
func NewFileStore(path string, maxReports int, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, maxReports: maxReports, log: logger}
}

// List returns the stored reports, oldest first. A missing or corrupt file
// yields no reports.
func (s *FileStore) List() ([]model.DailyReport, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.DailyReport{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "report: read %s", s.path)
	}

	var reports []model.DailyReport
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &reports); err != nil {
			s.log.Warn("report: report file is corrupt, starting empty",
				zap.String("path", s.path),
				zap.Error(err),
			)
			return []model.DailyReport{}, nil
		}
	}
	if reports == nil {
		reports = []model.DailyReport{}
	}
	return reports, nil
}

// Last returns up to n of the most recent reports, oldest first.
func (s *FileStore) Last(n int) ([]model.DailyReport, error) {
	reports, err := s.List()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(reports) > n {
		reports = reports[len(reports)-n:]
	}
	return reports, nil
}

// Append adds r and drops the oldest reports beyond the cap.
func (s *FileStore) Append(r model.DailyReport) error {
	reports, err := s.List()
	if err != nil {
		return err
	}
	reports = append(reports, r)
	if s.maxReports > 0 && len(reports) > s.maxReports {
		reports = reports[len(reports)-s.maxReports:]
	}

	data, err := store.EncodeJSON(reports)
	if err != nil {
		return eris.Wrap(err, "report: encode reports")
	}
	if err := store.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return eris.Wrap(err, "report: save reports")
	}
	return nil
}
