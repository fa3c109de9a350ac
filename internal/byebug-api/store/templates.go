package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"byebug-backend/internal/byebug-api/db"
)

// TemplateStore owns prompt-template persistence.
type TemplateStore struct {
	DB *gorm.DB
}

func NewTemplateStore(gormDB *gorm.DB) *TemplateStore {
	return &TemplateStore{DB: gormDB}
}

// TemplatePatch carries a partial template update; nil means unchanged.
type TemplatePatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	Tag         *string `json:"tag"`
}

func (s *TemplateStore) Create(ctx context.Context, tmpl *db.Template) error {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&db.Template{}).Where("id = ?", tmpl.ID).Count(&count).Error; err != nil {
		return wrapDBErr(err, "template", tmpl.ID)
	}
	if count > 0 {
		return fmt.Errorf("template %q: %w", tmpl.ID, ErrConflict)
	}
	if err := s.DB.WithContext(ctx).Create(tmpl).Error; err != nil {
		return wrapDBErr(err, "template", tmpl.ID)
	}
	return nil
}

func (s *TemplateStore) Get(ctx context.Context, id string) (*db.Template, error) {
	var tmpl db.Template
	if err := s.DB.WithContext(ctx).First(&tmpl, "id = ?", id).Error; err != nil {
		return nil, wrapDBErr(err, "template", id)
	}
	return &tmpl, nil
}

// List returns all templates, optionally filtered by tag.
func (s *TemplateStore) List(ctx context.Context, tag string) ([]db.Template, error) {
	templates := []db.Template{}
	query := s.DB.WithContext(ctx).Model(&db.Template{}).Order("id")
	if tag != "" {
		query = query.Where("tag = ?", tag)
	}
	if err := query.Find(&templates).Error; err != nil {
		return nil, wrapDBErr(err, "template", "*")
	}
	return templates, nil
}

func (s *TemplateStore) Update(ctx context.Context, id string, patch TemplatePatch) (*db.Template, error) {
	tmpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.Tag != nil {
		updates["tag"] = *patch.Tag
	}
	if len(updates) == 0 {
		return tmpl, nil
	}

	if err := s.DB.WithContext(ctx).Model(tmpl).Updates(updates).Error; err != nil {
		return nil, wrapDBErr(err, "template", id)
	}
	return s.Get(ctx, id)
}

func (s *TemplateStore) Delete(ctx context.Context, id string) error {
	result := s.DB.WithContext(ctx).Delete(&db.Template{}, "id = ?", id)
	if result.Error != nil {
		return wrapDBErr(result.Error, "template", id)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	return nil
}
