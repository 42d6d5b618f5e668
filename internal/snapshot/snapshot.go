// Package snapshot reads and writes the two JSON files the dashboard serves:
// stocks.json and recommendations.json.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bighogz/insider-monitor/internal/models"
)

const (
	StocksFile          = "stocks.json"
	RecommendationsFile = "recommendations.json"
)

// Store is a directory holding the snapshot files.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	if dir == "" {
		dir = "data"
	}
	return &Store{Dir: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.Dir, name)
}

func (s *Store) WriteStocks(snap models.StocksSnapshot) error {
	if snap.Stocks == nil {
		snap.Stocks = map[string]models.StockRecord{}
	}
	return s.write(StocksFile, snap)
}

func (s *Store) WriteRecommendations(snap models.RecommendationsSnapshot) error {
	if snap.Recommendations.Buy == nil {
		snap.Recommendations.Buy = []models.RecommendationEntry{}
	}
	if snap.Recommendations.Sell == nil {
		snap.Recommendations.Sell = []models.RecommendationEntry{}
	}
	return s.write(RecommendationsFile, snap)
}

// ReadStocks returns os.ErrNotExist (wrapped) when no snapshot was written yet.
func (s *Store) ReadStocks() (models.StocksSnapshot, error) {
	var snap models.StocksSnapshot
	err := s.read(StocksFile, &snap)
	return snap, err
}

func (s *Store) ReadRecommendations() (models.RecommendationsSnapshot, error) {
	var snap models.RecommendationsSnapshot
	err := s.read(RecommendationsFile, &snap)
	return snap, err
}

// Raw returns the file bytes as written, for serving over HTTP.
func (s *Store) Raw(name string) ([]byte, error) {
	if name != StocksFile && name != RecommendationsFile {
		return nil, fmt.Errorf("unknown snapshot %q", name)
	}
	return os.ReadFile(s.path(name))
}

// LastUpdate reports the lastUpdate field of a snapshot file, or the zero
// time if it is missing or unreadable.
func (s *Store) LastUpdate(name string) time.Time {
	var head struct {
		LastUpdate time.Time `json:"lastUpdate"`
	}
	if err := s.read(name, &head); err != nil {
		return time.Time{}
	}
	return head.LastUpdate
}

// Fresh reports whether both snapshots exist and are younger than maxAge.
func (s *Store) Fresh(maxAge time.Duration, now time.Time) bool {
	for _, name := range []string{StocksFile, RecommendationsFile} {
		t := s.LastUpdate(name)
		if t.IsZero() || now.Sub(t) > maxAge {
			return false
		}
	}
	return true
}

func (s *Store) read(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// write replaces the file atomically so readers never see a partial document.
func (s *Store) write(name string, v any) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.Dir, name+".*.tmp")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(append(body, '\n'))
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
