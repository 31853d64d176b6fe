package internal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/time/rate"
)

// Header is the first row of every driver block
var Header = []any{"N°", "Nom du circuit", "World record", "Mon temps", "Classement", "Total"}

// RecommendationHeader is the first row of the recommendation sheet blocks
var RecommendationHeader = []any{"Voiture", "Circuit conseillé", "World record", "Total"}

// SheetWriter persists rows at an A1 range of the destination spreadsheet
type SheetWriter interface {
	UpdateValues(ctx context.Context, a1Range string, rows [][]any) error
}

// ColumnBlock is the column span holding one driver's rows
type ColumnBlock struct {
	Driver string
	First  string
	Last   string
}

// RowRange returns the A1 range of a single row of the block
func (b ColumnBlock) RowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!%s%d:%s%d", QuoteSheet(sheet), b.First, row, b.Last, row)
}

// SheetLayout maps driver index to its column block; drivers are laid out
// left to right, each block width columns wide with gap empty columns between.
type SheetLayout struct {
	Blocks []ColumnBlock
}

func NewSheetLayout(drivers []string, width, gap int) SheetLayout {
	return SheetLayout{
		Blocks: lo.Map(drivers, func(d string, i int) ColumnBlock {
			start := i * (width + gap)
			return ColumnBlock{
				Driver: d,
				First:  ColumnName(start),
				Last:   ColumnName(start + width - 1),
			}
		}),
	}
}

// ColumnName converts a zero based column index to its letters (0 -> A, 26 -> AA)
func ColumnName(idx int) string {
	var sb []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		sb = append([]byte{byte('A' + (n-1)%26)}, sb...)
	}
	return string(sb)
}

// QuoteSheet quotes a sheet name for use in A1 notation
func QuoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// NewWriteLimiter paces spreadsheet writes to one per pause
func NewWriteLimiter(pause time.Duration) *rate.Limiter {
	if pause <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(pause), 1)
}

// CarSheet writes one car's results into its own sheet
type CarSheet struct {
	writer  SheetWriter
	limiter *rate.Limiter
	layout  SheetLayout
	name    string
	rows    []int
}

func NewCarSheet(writer SheetWriter, limiter *rate.Limiter, layout SheetLayout, name string) *CarSheet {
	return &CarSheet{
		writer:  writer,
		limiter: limiter,
		layout:  layout,
		name:    name,
		rows:    make([]int, len(layout.Blocks)),
	}
}

func (s *CarSheet) update(ctx context.Context, rng string, row []any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.writer.UpdateValues(ctx, rng, [][]any{row}); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// WriteHeader writes the header row of every driver block
func (s *CarSheet) WriteHeader(ctx context.Context) error {
	for _, b := range s.layout.Blocks {
		if err := s.update(ctx, b.RowRange(s.name, 1), Header); err != nil {
			return err
		}
	}
	return nil
}

// WriteTrack appends the track to the block of every driver that has a
// result and returns those drivers. Each driver keeps its own row counter.
func (s *CarSheet) WriteTrack(ctx context.Context, track TrackConfig, res LeaderboardResult) ([]string, error) {
	var written []string
	for i, b := range s.layout.Blocks {
		d, ok := res.Driver(b.Driver)
		if !ok {
			continue
		}
		n := s.rows[i] + 1
		row := []any{n, track.Name, res.WorldRecord, d.LapTime, d.Rank, res.Total}
		if err := s.update(ctx, b.RowRange(s.name, n+1), row); err != nil {
			return written, err
		}
		s.rows[i] = n
		written = append(written, b.Driver)
	}
	return written, nil
}

// Rows returns how many data rows each driver block holds
func (s *CarSheet) Rows() map[string]int {
	out := make(map[string]int, len(s.rows))
	for i, b := range s.layout.Blocks {
		out[b.Driver] = s.rows[i]
	}
	return out
}

// RecommendationSheet writes one row per car with each driver's recommended track
type RecommendationSheet struct {
	writer  SheetWriter
	limiter *rate.Limiter
	layout  SheetLayout
	name    string
}

func NewRecommendationSheet(writer SheetWriter, limiter *rate.Limiter, layout SheetLayout, name string) *RecommendationSheet {
	return &RecommendationSheet{writer: writer, limiter: limiter, layout: layout, name: name}
}

// Write stores the recommendations of the car at position carIdx; drivers
// without a recommendation get an empty row so stale values are cleared.
func (s *RecommendationSheet) Write(ctx context.Context, carIdx int, carName string, rec *Recommender) error {
	for _, b := range s.layout.Blocks {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		header := b.RowRange(s.name, 1)
		if err := s.writer.UpdateValues(ctx, header, [][]any{RecommendationHeader}); err != nil {
			return fmt.Errorf("update %s: %w", header, err)
		}

		row := []any{carName, "", "", ""}
		if r, ok := rec.Recommendation(b.Driver); ok {
			row = []any{carName, r.Track, FormatSeconds(r.WorldRecord), r.Total}
		}
		rng := b.RowRange(s.name, carIdx+2)
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.writer.UpdateValues(ctx, rng, [][]any{row}); err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
	}
	return nil
}
