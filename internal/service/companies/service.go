package companies

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/newsletter/internal/domain/models"
	"github.com/mamadbah2/newsletter/internal/repository/mongodb"
)

var (
	// ErrInvalidID is returned for identifiers that are not object ids.
	ErrInvalidID = fmt.Errorf("%w: invalid company identifier", models.ErrBadRequest)
	// ErrNameRequired is returned when a company has no name.
	ErrNameRequired = fmt.Errorf("%w: company name is required", models.ErrBadRequest)
	// ErrEmptyUpdate is returned when an update carries no fields.
	ErrEmptyUpdate = fmt.Errorf("%w: no fields to update", models.ErrBadRequest)
	// ErrFieldNotAllowed is returned when an update names a field outside the allow-list.
	ErrFieldNotAllowed = fmt.Errorf("%w: invalid updates", models.ErrBadRequest)
)

var updatable = map[string]bool{
	"name":     true,
	"logo":     true,
	"template": true,
}

// CreateInput is the payload for a new company.
type CreateInput struct {
	Name     string           `json:"name"`
	Logo     string           `json:"logo"`
	Template *models.Template `json:"template"`
}

// TemplateInput carries the template sections to replace. Absent sections
// keep their stored value.
type TemplateInput struct {
	ModelPortfolios   *models.TemplatePortfolios `json:"modelPortfolios"`
	DefaultCommentary *models.DefaultCommentary  `json:"defaultCommentary"`
}

// Service manages companies and their newsletter templates.
type Service struct {
	store  mongodb.CompanyStore
	logger *zap.Logger
}

// NewService wires a company service.
func NewService(store mongodb.CompanyStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Create stores a new company.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Company, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	company := &models.Company{Name: name, Logo: strings.TrimSpace(in.Logo)}
	if in.Template != nil {
		if err := ValidatePortfolios(in.Template.ModelPortfolios); err != nil {
			return nil, err
		}
		company.Template = *in.Template
	}

	if err := s.store.Insert(ctx, company); err != nil {
		return nil, err
	}

	s.logger.Info("company created", zap.String("company_id", company.ID.Hex()), zap.String("name", company.Name))
	return company, nil
}

// List returns every company sorted by name.
func (s *Service) List(ctx context.Context) ([]models.Company, error) {
	return s.store.List(ctx)
}

// Get returns one company.
func (s *Service) Get(ctx context.Context, rawID string) (*models.Company, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// Update replaces the allow-listed fields present in body. Any other key
// rejects the request.
func (s *Service) Update(ctx context.Context, rawID string, body map[string]json.RawMessage) (*models.Company, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrEmptyUpdate
	}
	for key := range body {
		if !updatable[key] {
			return nil, fmt.Errorf("%w: %s", ErrFieldNotAllowed, key)
		}
	}

	var update mongodb.CompanyUpdate
	if raw, ok := body["name"]; ok {
		var name string
		if err := decodeField("name", raw, &name); err != nil {
			return nil, err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ErrNameRequired
		}
		update.Name = &name
	}
	if raw, ok := body["logo"]; ok {
		var logo string
		if err := decodeField("logo", raw, &logo); err != nil {
			return nil, err
		}
		update.Logo = &logo
	}
	if raw, ok := body["template"]; ok {
		var template models.Template
		if err := decodeField("template", raw, &template); err != nil {
			return nil, err
		}
		if err := ValidatePortfolios(template.ModelPortfolios); err != nil {
			return nil, err
		}
		update.Template = &template
	}

	company, err := s.store.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info("company updated", zap.String("company_id", id.Hex()))
	return company, nil
}

// UpdateTemplate merges the provided template sections into the stored one.
func (s *Service) UpdateTemplate(ctx context.Context, rawID string, in TemplateInput) (*models.Company, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	company, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	template := company.Template
	if in.ModelPortfolios != nil {
		if err := ValidatePortfolios(*in.ModelPortfolios); err != nil {
			return nil, err
		}
		template.ModelPortfolios = *in.ModelPortfolios
	}
	if in.DefaultCommentary != nil {
		template.DefaultCommentary = *in.DefaultCommentary
	}

	updated, err := s.store.Update(ctx, id, mongodb.CompanyUpdate{Template: &template})
	if err != nil {
		return nil, err
	}
	s.logger.Info("company template updated", zap.String("company_id", id.Hex()))
	return updated, nil
}

// Delete removes a company. Its reports are kept.
func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.Info("company deleted", zap.String("company_id", id.Hex()))
	return nil
}

func decodeField(key string, raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: invalid %s: %v", models.ErrBadRequest, key, err)
	}
	return nil
}

func parseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}
