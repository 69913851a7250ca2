package csvstore

import (
	"context"
	"os"
	"path/filepath"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/epl-pipeline/internal/domain/match"
)

// FileStore writes per-season match files under a directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "."
	}
	return &FileStore{dir: dir}
}

// SeasonFileName returns epl_matches_<season>.csv.
func SeasonFileName(season string) string {
	return "epl_matches_" + season + ".csv"
}

func (s *FileStore) WriteSeason(_ context.Context, season string, matches []match.Match) (string, error) {
	path := filepath.Join(s.dir, SeasonFileName(season))
	if err := SaveFile(path, matches); err != nil {
		return "", err
	}
	return path, nil
}

// SaveFile writes matches to path, replacing any existing file.
func SaveFile(path string, matches []match.Match) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return crerr.Wrapf(err, "create csv dir for %s", path)
	}
	file, err := os.Create(path)
	if err != nil {
		return crerr.Wrapf(err, "create %s", path)
	}
	if err := WriteMatches(file, matches); err != nil {
		_ = file.Close()
		return err
	}
	return crerr.Wrapf(file.Close(), "close %s", path)
}

func LoadFile(path string) ([]match.Match, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, crerr.Wrapf(err, "open %s", path)
	}
	defer file.Close()
	return ReadMatches(file)
}

func LoadOddsFile(path string) ([]match.OddsFragment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, crerr.Wrapf(err, "open %s", path)
	}
	defer file.Close()
	return ReadOddsRows(file)
}
