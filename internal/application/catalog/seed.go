package catalog

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"time"

	"github.com/aescanero/gridmock/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedComponent is one entry of the startup dataset
type SeedComponent struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
	Type   string `yaml:"type"`
}

// seedFile is the YAML layout accepted by LoadSeedFile
type seedFile struct {
	Components []SeedComponent `yaml:"components"`
}

// DefaultSeed returns the built-in startup dataset
func DefaultSeed() []SeedComponent {
	return []SeedComponent{
		{Name: "Hovedmåler 1", Status: string(domain.StatusActive), Type: "meter"},
		{Name: "Siemens Nord", Status: string(domain.StatusMaintenance), Type: "transformer"},
		{Name: "Batteri-Siemens", Status: string(domain.StatusInactive), Type: "battery"},
		{Name: "Reserve", Status: string(domain.StatusMaintenance), Type: "battery"},
	}
}

// LoadSeedFile reads a YAML dataset of the form
//
//	components:
//	  - name: Hovedmåler 1
//	    status: active
//	    type: meter
func LoadSeedFile(path string) ([]SeedComponent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	if len(f.Components) == 0 {
		return nil, fmt.Errorf("seed file %s has no components", path)
	}

	return f.Components, nil
}

// HistoryGenerator produces synthetic history series
type HistoryGenerator struct {
	points int
	start  time.Time
	end    time.Time
	rng    *rand.Rand
}

// NewHistoryGenerator creates a generator drawing timestamps from
// [start, end). A nil rng uses a randomly seeded source.
func NewHistoryGenerator(points int, start, end time.Time, rng *rand.Rand) *HistoryGenerator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &HistoryGenerator{
		points: points,
		start:  start,
		end:    end,
		rng:    rng,
	}
}

// RandomTime returns a uniformly random instant in the window at
// millisecond precision
func (g *HistoryGenerator) RandomTime() time.Time {
	span := g.end.Sub(g.start)
	if span <= 0 {
		return g.start.UTC()
	}
	return g.start.Add(time.Duration(g.rng.Int64N(int64(span)))).UTC().Truncate(time.Millisecond)
}

// Generate returns a series sorted ascending by timestamp with values in [0, 100)
func (g *HistoryGenerator) Generate() []domain.HistoryPoint {
	points := make([]domain.HistoryPoint, g.points)
	for i := range points {
		points[i] = domain.HistoryPoint{
			Timestamp: g.RandomTime(),
			Value:     g.rng.IntN(100),
		}
	}

	slices.SortStableFunc(points, func(a, b domain.HistoryPoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	return points
}

// Seed resets the store and loads seeds, each with a generated history
// series. Seeding publishes no events.
func (m *Manager) Seed(ctx context.Context, seeds []SeedComponent, gen *HistoryGenerator) error {
	for i, s := range seeds {
		in := ComponentInput{Name: String(s.Name), Status: String(s.Status), Type: String(s.Type)}
		if err := m.validator.ValidateCreate(in); err != nil {
			return fmt.Errorf("invalid seed component %d: %w", i, err)
		}
	}

	if err := m.store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}

	for _, s := range seeds {
		c := domain.Component{
			ID:          uuid.New().String(),
			Name:        s.Name,
			Status:      domain.Status(s.Status),
			Type:        s.Type,
			LastUpdated: gen.RandomTime(),
		}

		if err := m.store.Insert(ctx, c); err != nil {
			return fmt.Errorf("failed to insert seed component: %w", err)
		}

		if err := m.store.SaveHistory(ctx, c.ID, gen.Generate()); err != nil {
			return fmt.Errorf("failed to save seed history: %w", err)
		}

		m.logger.Debug("seeded component",
			zap.String("component_id", c.ID),
			zap.String("name", c.Name))
	}

	m.refreshCount(ctx)
	m.logger.Info("catalog seeded", zap.Int("components", len(seeds)))

	return nil
}
