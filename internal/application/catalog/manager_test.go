package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	eventsmemory "github.com/aescanero/gridmock/pkg/adapters/events/memory"
	"github.com/aescanero/gridmock/pkg/adapters/metrics/prometheus"
	storagememory "github.com/aescanero/gridmock/pkg/adapters/storage/memory"
	"github.com/aescanero/gridmock/pkg/domain"
	"go.uber.org/zap"
)

// testManager builds a manager on in-memory adapters with a controllable clock.
func testManager(t *testing.T) (*Manager, *eventsmemory.InMemoryEventBus, *time.Time) {
	t.Helper()

	bus := eventsmemory.NewInMemoryEventBus(zap.NewNop())
	m := NewManager(
		storagememory.NewComponentStorage(),
		bus,
		prometheus.NewCollector(),
		NewValidator(),
		zap.NewNop(),
	)

	clock := time.Date(2025, 3, 1, 12, 0, 0, 123456789, time.UTC)
	m.now = func() time.Time { return clock }

	return m, bus, &clock
}

func testGenerator() *HistoryGenerator {
	return NewHistoryGenerator(
		50,
		time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		rand.New(rand.NewPCG(1, 2)),
	)
}

func validInput() ComponentInput {
	return ComponentInput{
		Name:   String("Trafo Syd"),
		Status: String("active"),
		Type:   String("transformer"),
	}
}

func TestCreateThenGet(t *testing.T) {
	m, _, _ := testManager(t)
	ctx := context.Background()

	created, err := m.CreateComponent(ctx, validInput())
	if err != nil {
		t.Fatalf("CreateComponent: %v", err)
	}
	if created.ID == "" {
		t.Fatal("empty id")
	}
	want := time.Date(2025, 3, 1, 12, 0, 0, 123000000, time.UTC)
	if !created.LastUpdated.Equal(want) {
		t.Errorf("lastUpdated = %v, want %v", created.LastUpdated, want)
	}

	got, err := m.GetComponent(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetComponent: %v", err)
	}
	if *got != *created {
		t.Errorf("GetComponent = %+v, want %+v", got, created)
	}

	if _, err := m.GetHistory(ctx, created.ID); !errors.Is(err, domain.ErrHistoryNotFound) {
		t.Errorf("GetHistory error = %v, want ErrHistoryNotFound", err)
	}
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	m, _, _ := testManager(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		c, err := m.CreateComponent(context.Background(), validInput())
		if err != nil {
			t.Fatalf("CreateComponent: %v", err)
		}
		if seen[c.ID] {
			t.Fatalf("duplicate id %s", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestCreateValidation(t *testing.T) {
	statusMsg := "Status must be one of: active, inactive, maintenance"

	tests := []struct {
		name    string
		mutate  func(*ComponentInput)
		field   string
		message string
	}{
		{"missing name", func(in *ComponentInput) { in.Name = Value{} }, FieldName, "Name is required and must be a string"},
		{"empty name", func(in *ComponentInput) { in.Name = String("") }, FieldName, "Name is required and must be a string"},
		{"numeric name", func(in *ComponentInput) { in.Name = Value{Present: true} }, FieldName, "Name is required and must be a string"},
		{"unknown status", func(in *ComponentInput) { in.Status = String("unknown") }, FieldStatus, statusMsg},
		{"missing status", func(in *ComponentInput) { in.Status = Value{} }, FieldStatus, statusMsg},
		{"status wrong case", func(in *ComponentInput) { in.Status = String("Active") }, FieldStatus, statusMsg},
		{"missing type", func(in *ComponentInput) { in.Type = Value{} }, FieldType, "Type is required and must be a string"},
		{"empty type", func(in *ComponentInput) { in.Type = String("") }, FieldType, "Type is required and must be a string"},
		{"name checked before status", func(in *ComponentInput) {
			in.Name = Value{}
			in.Status = String("bogus")
		}, FieldName, "Name is required and must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := testManager(t)
			in := validInput()
			tt.mutate(&in)

			_, err := m.CreateComponent(context.Background(), in)

			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.field || verr.Message != tt.message {
				t.Errorf("got (%s, %q), want (%s, %q)", verr.Field, verr.Message, tt.field, tt.message)
			}

			page, _ := m.ListComponents(context.Background(), 0, 50)
			if page.Total != 0 {
				t.Errorf("rejected component was stored")
			}
		})
	}
}

func TestUpdateStatusOnly(t *testing.T) {
	m, _, clock := testManager(t)
	ctx := context.Background()

	created, _ := m.CreateComponent(ctx, validInput())

	*clock = clock.Add(time.Minute)
	updated, err := m.UpdateComponent(ctx, created.ID, ComponentInput{Status: String("maintenance")})
	if err != nil {
		t.Fatalf("UpdateComponent: %v", err)
	}

	if updated.Name != created.Name || updated.Type != created.Type {
		t.Errorf("name/type changed: %+v", updated)
	}
	if updated.Status != domain.StatusMaintenance {
		t.Errorf("status = %q", updated.Status)
	}
	if updated.LastUpdated.Before(created.LastUpdated) || updated.LastUpdated.Equal(created.LastUpdated) {
		t.Errorf("lastUpdated %v not after %v", updated.LastUpdated, created.LastUpdated)
	}
}

func TestUpdateNoFieldsRefreshesTimestamp(t *testing.T) {
	m, _, clock := testManager(t)
	ctx := context.Background()

	created, _ := m.CreateComponent(ctx, validInput())
	*clock = clock.Add(time.Second)

	updated, err := m.UpdateComponent(ctx, created.ID, ComponentInput{})
	if err != nil {
		t.Fatalf("UpdateComponent: %v", err)
	}
	if !updated.LastUpdated.After(created.LastUpdated) {
		t.Errorf("lastUpdated not refreshed")
	}
}

func TestUpdateValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      ComponentInput
		message string
	}{
		{"empty name", ComponentInput{Name: String("")}, "Name must be a non-empty string"},
		{"null name", ComponentInput{Name: Value{Present: true}}, "Name must be a non-empty string"},
		{"empty type", ComponentInput{Type: String("")}, "Type must be a non-empty string"},
		{"bad status", ComponentInput{Status: String("broken")}, "Status must be one of: active, inactive, maintenance"},
		{"status checked before name", ComponentInput{Name: String(""), Status: String("broken")}, "Status must be one of: active, inactive, maintenance"},
		{"valid name invalid type", ComponentInput{Name: String("New"), Type: String("")}, "Type must be a non-empty string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := testManager(t)
			ctx := context.Background()
			created, _ := m.CreateComponent(ctx, validInput())

			_, err := m.UpdateComponent(ctx, created.ID, tt.in)

			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Message != tt.message {
				t.Fatalf("error = %v, want %q", err, tt.message)
			}

			got, _ := m.GetComponent(ctx, created.ID)
			if *got != *created {
				t.Errorf("component changed by rejected update: %+v", got)
			}
		})
	}
}

func TestUpdateUnknownIDBeforeValidation(t *testing.T) {
	m, _, _ := testManager(t)

	_, err := m.UpdateComponent(context.Background(), "missing", ComponentInput{Status: String("broken")})
	if !errors.Is(err, domain.ErrComponentNotFound) {
		t.Errorf("error = %v, want ErrComponentNotFound", err)
	}
}

func TestDeleteTwice(t *testing.T) {
	m, _, _ := testManager(t)
	ctx := context.Background()
	created, _ := m.CreateComponent(ctx, validInput())

	if err := m.DeleteComponent(ctx, created.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := m.DeleteComponent(ctx, created.ID); !errors.Is(err, domain.ErrComponentNotFound) {
		t.Errorf("second delete error = %v, want ErrComponentNotFound", err)
	}
	if _, err := m.GetComponent(ctx, created.ID); !errors.Is(err, domain.ErrComponentNotFound) {
		t.Errorf("get after delete error = %v", err)
	}
}

func TestListComponentsWindow(t *testing.T) {
	m, _, _ := testManager(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 7; i++ {
		in := validInput()
		in.Name = String(fmt.Sprintf("c%d", i))
		c, _ := m.CreateComponent(ctx, in)
		ids = append(ids, c.ID)
	}

	for _, tc := range []struct{ offset, limit int }{{0, 50}, {0, 3}, {3, 3}, {6, 3}, {7, 3}, {100, 3}, {2, 0}} {
		page, err := m.ListComponents(ctx, tc.offset, tc.limit)
		if err != nil {
			t.Fatalf("ListComponents: %v", err)
		}
		if page.Total != 7 || page.Offset != tc.offset || page.Limit != tc.limit {
			t.Errorf("page meta = %d/%d/%d", page.Total, page.Offset, page.Limit)
		}
		if page.Items == nil {
			t.Errorf("items nil for offset=%d limit=%d", tc.offset, tc.limit)
		}
		if len(page.Items) > tc.limit {
			t.Errorf("len(items) = %d > limit %d", len(page.Items), tc.limit)
		}
		for i, c := range page.Items {
			if c.ID != ids[tc.offset+i] {
				t.Errorf("offset=%d item %d = %s, want %s", tc.offset, i, c.ID, ids[tc.offset+i])
			}
		}
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	m, bus, _ := testManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan domain.Event, 3)
	if err := bus.Subscribe(ctx, domain.ComponentEventsTopic, func(_ context.Context, ev domain.Event) error {
		got <- ev
		return nil
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	created, _ := m.CreateComponent(ctx, validInput())
	want := []domain.EventType{domain.EventTypeComponentCreated}
	expect := func() {
		t.Helper()
		select {
		case ev := <-got:
			if ev.Type != want[0] || ev.ComponentID != created.ID {
				t.Errorf("event = %+v, want type %s", ev, want[0])
			}
		case <-time.After(time.Second):
			t.Fatalf("no %s event", want[0])
		}
	}
	expect()

	want[0] = domain.EventTypeComponentUpdated
	_, _ = m.UpdateComponent(ctx, created.ID, ComponentInput{Name: String("renamed")})
	expect()

	want[0] = domain.EventTypeComponentDeleted
	_ = m.DeleteComponent(ctx, created.ID)
	expect()
}

func TestSeed(t *testing.T) {
	m, _, _ := testManager(t)
	ctx := context.Background()

	if err := m.Seed(ctx, DefaultSeed(), testGenerator()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	page, _ := m.ListComponents(ctx, 0, 50)
	if page.Total != 4 {
		t.Fatalf("total = %d, want 4", page.Total)
	}

	first := page.Items[0]
	if first.Name != "Hovedmåler 1" || first.Status != domain.StatusActive || first.Type != "meter" {
		t.Errorf("first seed = %+v", first)
	}

	windowStart := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, c := range page.Items {
		if c.LastUpdated.Before(windowStart) || !c.LastUpdated.Before(windowEnd) {
			t.Errorf("%s lastUpdated %v outside window", c.Name, c.LastUpdated)
		}

		history, err := m.GetHistory(ctx, c.ID)
		if err != nil {
			t.Fatalf("GetHistory(%s): %v", c.Name, err)
		}
		if len(history) != 50 {
			t.Errorf("%s history has %d points, want 50", c.Name, len(history))
		}
		for i, p := range history {
			if p.Value < 0 || p.Value >= 100 {
				t.Errorf("value %d out of range", p.Value)
			}
			if i > 0 && p.Timestamp.Before(history[i-1].Timestamp) {
				t.Errorf("history not sorted at %d", i)
			}
		}
	}
}

func TestSeedResetsStore(t *testing.T) {
	m, _, _ := testManager(t)
	ctx := context.Background()

	created, _ := m.CreateComponent(ctx, validInput())
	if err := m.Seed(ctx, DefaultSeed()[:1], testGenerator()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	if _, err := m.GetComponent(ctx, created.ID); !errors.Is(err, domain.ErrComponentNotFound) {
		t.Errorf("component survived seed: %v", err)
	}
	page, _ := m.ListComponents(ctx, 0, 50)
	if page.Total != 1 {
		t.Errorf("total = %d, want 1", page.Total)
	}
}

func TestSeedRejectsInvalidEntry(t *testing.T) {
	m, _, _ := testManager(t)

	seeds := []SeedComponent{{Name: "x", Status: "retired", Type: "meter"}}
	if err := m.Seed(context.Background(), seeds, testGenerator()); err == nil {
		t.Fatal("expected error for invalid seed status")
	}
}

func TestDeletedSeedKeepsHistory(t *testing.T) {
	m, _, _ := testManager(t)
	ctx := context.Background()
	_ = m.Seed(ctx, DefaultSeed(), testGenerator())

	page, _ := m.ListComponents(ctx, 0, 1)
	id := page.Items[0].ID

	if err := m.DeleteComponent(ctx, id); err != nil {
		t.Fatalf("DeleteComponent: %v", err)
	}
	if _, err := m.GetHistory(ctx, id); err != nil {
		t.Errorf("history removed with component: %v", err)
	}
}
