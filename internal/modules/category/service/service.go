package category

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"anoa.com/kopilka/internal/entity"
	"anoa.com/kopilka/internal/modules/category/dto"
	"anoa.com/kopilka/internal/modules/category/repository"
	"anoa.com/kopilka/pkg/apperror"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	GetAllCategories(ctx context.Context, filter dto.CategoryFilter) ([]dto.CategoryResponse, error)
	// ResolveSlug returns the id of the category with slug, or ErrNotFound.
	ResolveSlug(ctx context.Context, slug string) (uuid.UUID, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func (s *categoryService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	category := &entity.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        Slugify(req.Name),
		Description: req.Description,
	}
	if category.Slug == "" {
		return nil, fmt.Errorf("category name: %w", apperror.ErrInvalidInput)
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("category %s already exists: %w", category.Name, apperror.ErrConflict)
		}
		return nil, apperror.Storage("create category", err)
	}

	resp := toResponse(*category)
	return &resp, nil
}

func (s *categoryService) GetAllCategories(ctx context.Context, filter dto.CategoryFilter) ([]dto.CategoryResponse, error) {
	categories, err := s.repo.FindAll(ctx, filter.Search)
	if err != nil {
		return nil, apperror.Storage("list categories", err)
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		responses = append(responses, toResponse(cat))
	}
	return responses, nil
}

func (s *categoryService) ResolveSlug(ctx context.Context, slug string) (uuid.UUID, error) {
	category, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fmt.Errorf("category %q: %w", slug, apperror.ErrNotFound)
		}
		return uuid.Nil, apperror.Storage("find category", err)
	}
	return category.ID, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("category: %w", apperror.ErrNotFound)
		}
		return apperror.Storage("find category", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.Storage("delete category", err)
	}
	return nil
}

func toResponse(c entity.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
	}
}
