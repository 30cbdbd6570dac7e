package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bot_arena/internal/domain"
)

// RunRecord identifies one batch execution.
type RunRecord struct {
	ID        string `gorm:"primaryKey"`
	Label     string
	Rounds    int
	Ticks     int
	Seed      uint64
	StartedAt time.Time
}

// ScorecardRecord is one trader's end-of-round result.
type ScorecardRecord struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	RunID          string `gorm:"index"`
	Round          int
	BotName        string
	InitialFunds   float64
	RealizedProfit float64
	RelativeProfit float64
	TotalAssets    float64
	Fees           float64
	Transactions   int
}

// PricePathRecord stores a round's full price series, semicolon-joined.
type PricePathRecord struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	RunID  string `gorm:"index"`
	Round  int
	Prices string
}

// Storage persists batch results to SQLite. All writes funnel through a
// single background goroutine, so concurrently finishing rounds never
// contend on the database.
type Storage struct {
	db      *gorm.DB
	writeCh chan func(db *gorm.DB)
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewStorage opens (or creates) the database file and starts the writer.
func NewStorage(dbPath string) (*Storage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Pure Go SQLite driver
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&RunRecord{}, &ScorecardRecord{}, &PricePathRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s := &Storage{
		db:      db,
		writeCh: make(chan func(db *gorm.DB), 64),
	}
	s.wg.Add(1)
	go s.writeLoop()

	return s, nil
}

func (s *Storage) writeLoop() {
	defer s.wg.Done()
	for write := range s.writeCh {
		write(s.db)
	}
}

// enqueue hands a write to the background goroutine. Writes arriving after
// Close are dropped, so stragglers from an interrupted batch cannot hit a
// closed channel.
func (s *Storage) enqueue(write func(db *gorm.DB)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.writeCh <- write
}

// Close waits for queued writes to land and shuts the writer down. The
// storage must not be used afterwards.
func (s *Storage) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.writeCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// StartRun records batch metadata and returns a sink bound to the run id.
func (s *Storage) StartRun(id uuid.UUID, label string, rounds, ticks int, seed uint64) *RunSink {
	rec := RunRecord{
		ID:        id.String(),
		Label:     label,
		Rounds:    rounds,
		Ticks:     ticks,
		Seed:      seed,
		StartedAt: time.Now(),
	}
	s.enqueue(func(db *gorm.DB) {
		db.Create(&rec)
	})
	return &RunSink{storage: s, runID: rec.ID}
}

// RunSink files round results under one run. Implements the arena's Sink.
type RunSink struct {
	storage *Storage
	runID   string
}

// SaveRound enqueues the round's scorecards and price path. Returns as soon
// as the write is queued.
func (rs *RunSink) SaveRound(round int, cards []domain.Scorecard, path []float64) {
	records := make([]ScorecardRecord, len(cards))
	for i, card := range cards {
		records[i] = ScorecardRecord{
			RunID:          rs.runID,
			Round:          round,
			BotName:        card.Name,
			InitialFunds:   card.InitialFunds,
			RealizedProfit: card.RealizedProfit,
			RelativeProfit: card.RelativeProfit,
			TotalAssets:    card.TotalAssets,
			Fees:           card.Fees,
			Transactions:   card.Transactions,
		}
	}
	pathRec := PricePathRecord{
		RunID:  rs.runID,
		Round:  round,
		Prices: encodePrices(path),
	}

	rs.storage.enqueue(func(db *gorm.DB) {
		db.Create(&records)
		db.Create(&pathRec)
	})
}

// Runs lists all recorded runs, newest first.
func (s *Storage) Runs() ([]RunRecord, error) {
	var runs []RunRecord
	err := s.db.Order("started_at desc").Find(&runs).Error
	return runs, err
}

// Scorecards loads every scorecard of a run ordered by round then insert
// order.
func (s *Storage) Scorecards(runID uuid.UUID) ([]ScorecardRecord, error) {
	var records []ScorecardRecord
	err := s.db.Where("run_id = ?", runID.String()).Order("round, id").Find(&records).Error
	return records, err
}

// PricePaths loads every price path of a run ordered by round.
func (s *Storage) PricePaths(runID uuid.UUID) ([][]float64, error) {
	var records []PricePathRecord
	if err := s.db.Where("run_id = ?", runID.String()).Order("round").Find(&records).Error; err != nil {
		return nil, err
	}

	paths := make([][]float64, len(records))
	for i, rec := range records {
		path, err := decodePrices(rec.Prices)
		if err != nil {
			return nil, fmt.Errorf("run %s round %d: %w", rec.RunID, rec.Round, err)
		}
		paths[i] = path
	}
	return paths, nil
}

func encodePrices(prices []float64) string {
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = strconv.FormatFloat(p, 'f', -1, 64)
	}
	return strings.Join(parts, ";")
}

func decodePrices(encoded string) ([]float64, error) {
	if encoded == "" {
		return nil, nil
	}
	parts := strings.Split(encoded, ";")
	prices := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("bad price %q: %w", part, err)
		}
		prices[i] = v
	}
	return prices, nil
}
