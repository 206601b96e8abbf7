package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/propgraph/propgraph/internal/graph/model"
	platformerrors "github.com/propgraph/propgraph/internal/platform/errors"
	"gorm.io/gorm"
)

// CreateTypeInput is the request shape for POST /types. Types are
// immutable once created (§3); there is no update operation.
type CreateTypeInput struct {
	Name        string
	Category    model.TypeCategory
	Description string
	JSONSchema  json.RawMessage
}

// CreateType inserts a new immutable type definition.
func (s *Service) CreateType(ctx context.Context, in CreateTypeInput) (*model.Type, error) {
	typ := &model.Type{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		JSONSchema:  in.JSONSchema,
		CreatedAt:   model.Now(),
	}
	if err := s.db.WithContext(ctx).Create(typ).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "types", "CreateType")
	}
	return typ, nil
}

// ListTypes returns every type, optionally filtered by category.
func (s *Service) ListTypes(ctx context.Context, category string) ([]model.Type, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var types []model.Type
	if err := q.Find(&types).Error; err != nil {
		return nil, platformerrors.HandleGormError(err, "types", "ListTypes")
	}
	return types, nil
}

// GetType returns a single type by id.
func (s *Service) GetType(ctx context.Context, id string) (*model.Type, error) {
	var typ model.Type
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&typ).Error
	if err == gorm.ErrRecordNotFound {
		return nil, platformerrors.NewTypeNotFound(id)
	}
	if err != nil {
		return nil, platformerrors.HandleGormError(err, "types", "GetType")
	}
	return &typ, nil
}
