package companies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/newsletter/internal/domain/models"
	"github.com/mamadbah2/newsletter/internal/repository/mongodb"
)

type memoryStore struct {
	items   map[primitive.ObjectID]models.Company
	updates int
}

func newMemoryStore(companies ...models.Company) *memoryStore {
	m := &memoryStore{items: map[primitive.ObjectID]models.Company{}}
	for _, c := range companies {
		m.items[c.ID] = c
	}
	return m
}

func (m *memoryStore) Insert(_ context.Context, c *models.Company) error {
	c.ID = primitive.NewObjectID()
	m.items[c.ID] = *c
	return nil
}

func (m *memoryStore) List(context.Context) ([]models.Company, error) {
	out := []models.Company{}
	for _, c := range m.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Company, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", id.Hex(), models.ErrNotFound)
	}
	return &c, nil
}

func (m *memoryStore) FindByIDs(context.Context, []primitive.ObjectID) (map[primitive.ObjectID]models.Company, error) {
	return nil, nil
}

func (m *memoryStore) Update(_ context.Context, id primitive.ObjectID, u mongodb.CompanyUpdate) (*models.Company, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("company %s: %w", id.Hex(), models.ErrNotFound)
	}
	m.updates++
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Logo != nil {
		c.Logo = *u.Logo
	}
	if u.Template != nil {
		c.Template = *u.Template
	}
	m.items[id] = c
	return &c, nil
}

func (m *memoryStore) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("company %s: %w", id.Hex(), models.ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

func acme() models.Company {
	return models.Company{
		ID:   primitive.NewObjectID(),
		Name: "Acme Advisors",
		Template: models.Template{
			ModelPortfolios: models.TemplatePortfolios{
				Aggressive: []models.Allocation{{FundName: "Growth Fund", Allocation: 100}},
			},
			DefaultCommentary: models.DefaultCommentary{MarketSummary: "Markets were steady."},
		},
	}
}

func body(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestService_Create(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, zaptest.NewLogger(t))

	company, err := svc.Create(context.Background(), CreateInput{Name: "  Globex  ", Logo: "https://cdn.example.com/globex.png"})
	require.NoError(t, err)
	assert.Equal(t, "Globex", company.Name)
	assert.Len(t, store.items, 1)

	_, err = svc.Create(context.Background(), CreateInput{Name: " "})
	assert.True(t, errors.Is(err, ErrNameRequired))

	_, err = svc.Create(context.Background(), CreateInput{
		Name: "Initech",
		Template: &models.Template{ModelPortfolios: models.TemplatePortfolios{
			Moderate: []models.Allocation{{FundName: "Bond Fund", Allocation: 50}},
		}},
	})
	assert.True(t, errors.Is(err, ErrInvalidAllocation))
	assert.Len(t, store.items, 1)
}

func TestService_ListAndGet(t *testing.T) {
	a := acme()
	b := models.Company{ID: primitive.NewObjectID(), Name: "Beta Wealth"}
	svc := NewService(newMemoryStore(b, a), zaptest.NewLogger(t))

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Acme Advisors", list[0].Name)

	got, err := svc.Get(context.Background(), a.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, a.Template, got.Template)

	_, err = svc.Get(context.Background(), primitive.NewObjectID().Hex())
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = svc.Get(context.Background(), "acme")
	assert.True(t, errors.Is(err, ErrInvalidID))
}

func TestService_Update(t *testing.T) {
	a := acme()
	store := newMemoryStore(a)
	svc := NewService(store, zaptest.NewLogger(t))

	got, err := svc.Update(context.Background(), a.ID.Hex(), body(t, `{"name": "Acme Wealth", "logo": "https://cdn.example.com/new.png"}`))
	require.NoError(t, err)
	assert.Equal(t, "Acme Wealth", got.Name)
	assert.Equal(t, "https://cdn.example.com/new.png", got.Logo)
	assert.Equal(t, a.Template, got.Template)
}

func TestService_Update_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "unknown field", raw: `{"name": "Renamed", "createdAt": "2024-01-01T00:00:00Z"}`},
		{name: "empty", raw: `{}`},
		{name: "blank name", raw: `{"name": "  "}`},
		{name: "wrong type", raw: `{"logo": 42}`},
		{name: "bad template", raw: `{"template": {"modelPortfolios": {"aggressive": [{"fundName": "A", "allocation": 10}]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := acme()
			store := newMemoryStore(a)
			svc := NewService(store, zaptest.NewLogger(t))

			_, err := svc.Update(context.Background(), a.ID.Hex(), body(t, tt.raw))
			assert.True(t, errors.Is(err, models.ErrBadRequest), "got %v", err)
			assert.Zero(t, store.updates)
		})
	}
}

func TestService_UpdateTemplate_Merges(t *testing.T) {
	a := acme()
	store := newMemoryStore(a)
	svc := NewService(store, zaptest.NewLogger(t))

	got, err := svc.UpdateTemplate(context.Background(), a.ID.Hex(), TemplateInput{
		DefaultCommentary: &models.DefaultCommentary{IndexAnalysis: "S&P 500 up 3%."},
	})
	require.NoError(t, err)
	assert.Equal(t, "S&P 500 up 3%.", got.Template.DefaultCommentary.IndexAnalysis)
	assert.Equal(t, a.Template.ModelPortfolios, got.Template.ModelPortfolios)

	_, err = svc.UpdateTemplate(context.Background(), a.ID.Hex(), TemplateInput{
		ModelPortfolios: &models.TemplatePortfolios{Aggressive: []models.Allocation{{FundName: "A", Allocation: 90}}},
	})
	assert.True(t, errors.Is(err, ErrInvalidAllocation))

	_, err = svc.UpdateTemplate(context.Background(), primitive.NewObjectID().Hex(), TemplateInput{})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestService_Delete(t *testing.T) {
	a := acme()
	store := newMemoryStore(a)
	svc := NewService(store, zaptest.NewLogger(t))

	require.NoError(t, svc.Delete(context.Background(), a.ID.Hex()))
	assert.Empty(t, store.items)
	assert.True(t, errors.Is(svc.Delete(context.Background(), a.ID.Hex()), models.ErrNotFound))
}
