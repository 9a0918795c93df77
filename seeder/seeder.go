// Package seeder imports catalog records from RAWG into the games table.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gamelog/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultWorkers = 4

// Source yields one page of provider records.
type Source interface {
	FetchGames(ctx context.Context, page, pageSize int) ([]RawgGame, error)
}

// Summary reports how a run went.
type Summary struct {
	Fetched  int `json:"fetched"`
	Upserted int `json:"upserted"`
	Failed   int `json:"failed"`
}

type Seeder struct {
	db      *gorm.DB
	source  Source
	log     *logrus.Logger
	workers int
}

func New(db *gorm.DB, source Source, log *logrus.Logger, workers int) *Seeder {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Seeder{db: db, source: source, log: log, workers: workers}
}

type upsertResult struct {
	game RawgGame
	err  error
}

// Run fetches one page and upserts every record keyed by its RAWG id.
// A provider failure aborts the run; a failing record is logged and
// counted but does not stop the others.
func (s *Seeder) Run(ctx context.Context, page, pageSize int) (Summary, error) {
	games, err := s.source.FetchGames(ctx, page, pageSize)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Fetched: len(games)}
	s.log.WithFields(logrus.Fields{"page": page, "count": len(games)}).Info("fetched catalog page")

	jobs := make(chan RawgGame, len(games))
	results := make(chan upsertResult, len(games))

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range jobs {
				results <- upsertResult{game: g, err: s.upsert(ctx, g)}
			}
		}()
	}

	for _, g := range games {
		jobs <- g
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		entry := s.log.WithFields(logrus.Fields{"rawg_id": r.game.ID, "title": r.game.Name})
		if r.err != nil {
			summary.Failed++
			entry.WithError(r.err).Error("upsert failed")
			continue
		}
		summary.Upserted++
		entry.Info("upserted")
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

var errInvalidRecord = errors.New("record has no id or name")

func (s *Seeder) upsert(ctx context.Context, g RawgGame) error {
	if g.ID <= 0 || g.Name == "" {
		return errInvalidRecord
	}
	game := ToGame(g)

	// rating and rating_count belong to local reviews and are never overwritten
	columns := []string{"title", "slug", "released", "platforms", "genres", "cover", "updated_at"}
	if game.Description != "" {
		columns = append(columns, "description")
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "rawg_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&game).Error
	if err != nil {
		return fmt.Errorf("upsert rawg %d: %w", g.ID, err)
	}
	return nil
}

// ToGame maps a provider record onto a catalog game.
func ToGame(g RawgGame) models.Game {
	rawgID := g.ID
	platforms := make([]string, 0, len(g.Platforms))
	for _, p := range g.Platforms {
		if p.Platform.Name != "" {
			platforms = append(platforms, p.Platform.Name)
		}
	}
	genres := make([]string, 0, len(g.Genres))
	for _, gg := range g.Genres {
		if gg.Name != "" {
			genres = append(genres, gg.Name)
		}
	}
	return models.Game{
		RawgID:      &rawgID,
		Title:       g.Name,
		Slug:        g.Slug,
		Released:    g.Released,
		Platforms:   platforms,
		Genres:      genres,
		Cover:       g.BackgroundImage,
		Description: g.DescriptionRaw,
	}
}
