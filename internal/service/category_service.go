package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dentalsupply/internal/cache"
	apperrors "dentalsupply/internal/errors"
	"dentalsupply/internal/metrics"
	"dentalsupply/internal/model"
	"dentalsupply/internal/repository"
)

const (
	categoryCacheAll       = "categories:all"
	categoryCacheMain      = "categories:main"
	categoryCacheSub       = "categories:sub"
	categoryCacheTree      = "categories:tree"
	categoryCacheParentPfx = "categories:parent:"
)

// CategoryInput is the writable part of a category. ParentID is the raw
// value sent by the client; "", "null" and "undefined" all mean no parent.
type CategoryInput struct {
	Name     string
	Image    string
	ParentID string
}

// CategoryService manages the two-level category hierarchy.
type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	ListMain(ctx context.Context) ([]model.Category, error)
	ListSub(ctx context.Context) ([]model.Category, error)
	ListByParent(ctx context.Context, parentID string) ([]model.Category, error)
	Tree(ctx context.Context) ([]model.Category, error)
	Get(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, in CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id string, in CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, id string) error
}

type categoryService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	cache      *cache.Client
	cacheTTL   time.Duration
	metrics    *metrics.Collector
	logger     *zap.Logger
}

// NewCategoryService creates a new category service. cache and metrics may be nil.
func NewCategoryService(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	cache *cache.Client,
	cacheTTL time.Duration,
	metrics *metrics.Collector,
	logger *zap.Logger,
) CategoryService {
	return &categoryService{
		categories: categories,
		products:   products,
		cache:      cache,
		cacheTTL:   cacheTTL,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.cached(ctx, categoryCacheAll, s.categories.List)
}

func (s *categoryService) ListMain(ctx context.Context) ([]model.Category, error) {
	return s.cached(ctx, categoryCacheMain, s.categories.ListMain)
}

func (s *categoryService) ListSub(ctx context.Context) ([]model.Category, error) {
	return s.cached(ctx, categoryCacheSub, s.categories.ListSub)
}

// ListByParent returns the subcategories of parentID. A parent without
// subcategories, one that does not exist, or an id that is not a UUID yields
// an empty list.
func (s *categoryService) ListByParent(ctx context.Context, parentID string) ([]model.Category, error) {
	id, err := uuid.Parse(strings.TrimSpace(parentID))
	if err != nil {
		return []model.Category{}, nil
	}
	return s.cached(ctx, categoryCacheParentPfx+id.String(), func(ctx context.Context) ([]model.Category, error) {
		return s.categories.ListByParent(ctx, id)
	})
}

// Tree returns the main categories with their subcategories nested under Children.
func (s *categoryService) Tree(ctx context.Context) ([]model.Category, error) {
	return s.cached(ctx, categoryCacheTree, func(ctx context.Context) ([]model.Category, error) {
		all, err := s.categories.List(ctx)
		if err != nil {
			return nil, err
		}
		return buildTree(all), nil
	})
}

func buildTree(all []model.Category) []model.Category {
	children := make(map[uuid.UUID][]model.Category)
	for _, c := range all {
		if c.ParentID != nil {
			c.Parent = nil
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}
	roots := make([]model.Category, 0, len(all)-len(children))
	for _, c := range all {
		if c.ParentID == nil {
			c.Children = children[c.ID]
			if c.Children == nil {
				c.Children = []model.Category{}
			}
			roots = append(roots, c)
		}
	}
	return roots
}

func (s *categoryService) Get(ctx context.Context, id string) (*model.Category, error) {
	categoryID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apperrors.NotFound("Category not found")
	}
	return s.find(ctx, categoryID)
}

func (s *categoryService) Create(ctx context.Context, in CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation("Category name is required")
	}
	parentID, err := s.resolveParent(ctx, in.ParentID)
	if err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:     name,
		Image:    strings.TrimSpace(in.Image),
		ParentID: parentID,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.invalidate(ctx, parentID)
	s.metrics.CategoryMutation("create")
	s.logger.Info("category created",
		zap.String("category_id", category.ID.String()),
		zap.Bool("main", category.IsMain()),
	)
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id string, in CategoryInput) (*model.Category, error) {
	categoryID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apperrors.NotFound("Category not found")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation("Category name is required")
	}

	category, err := s.find(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	parentID, err := parseParentRef(in.ParentID)
	if err != nil {
		return nil, err
	}
	if parentID != nil && *parentID == categoryID {
		return nil, apperrors.Validation("A category cannot be its own parent")
	}
	if err := s.checkParent(ctx, parentID); err != nil {
		return nil, err
	}
	if parentID != nil && category.IsMain() {
		children, err := s.categories.CountChildren(ctx, categoryID)
		if err != nil {
			return nil, fmt.Errorf("count subcategories: %w", err)
		}
		if children > 0 {
			return nil, apperrors.Validation("A category with subcategories cannot become a subcategory")
		}
	}

	previousParent := category.ParentID
	category.Name = name
	category.Image = strings.TrimSpace(in.Image)
	category.ParentID = parentID
	category.Parent = nil
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	s.invalidate(ctx, previousParent, parentID)
	s.metrics.CategoryMutation("update")
	s.logger.Info("category updated", zap.String("category_id", categoryID.String()))
	return category, nil
}

// Delete removes a category that has no subcategories and no products.
// Subcategories are never removed along with their parent.
func (s *categoryService) Delete(ctx context.Context, id string) error {
	categoryID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return apperrors.NotFound("Category not found")
	}
	category, err := s.find(ctx, categoryID)
	if err != nil {
		return err
	}

	children, err := s.categories.CountChildren(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("count subcategories: %w", err)
	}
	if children > 0 {
		return apperrors.Conflict("Cannot delete category with subcategories")
	}

	if s.products != nil {
		products, err := s.products.CountByCategory(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		if products > 0 {
			return apperrors.Conflict("Cannot delete category that still has products")
		}
	}

	if err := s.categories.Delete(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Category not found")
		}
		return fmt.Errorf("delete category: %w", err)
	}

	s.invalidate(ctx, category.ParentID)
	s.metrics.CategoryMutation("delete")
	s.logger.Info("category deleted", zap.String("category_id", categoryID.String()))
	return nil
}

func (s *categoryService) find(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Category not found")
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return category, nil
}

// normalizeRef maps the placeholder values forms send for an empty
// select to "".
func normalizeRef(raw string) string {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "null", "undefined":
		return ""
	}
	return raw
}

// resolveParent validates a raw parent reference. The parent must exist and
// must itself be a main category, which keeps the hierarchy two levels deep.
func (s *categoryService) resolveParent(ctx context.Context, raw string) (*uuid.UUID, error) {
	parentID, err := parseParentRef(raw)
	if err != nil {
		return nil, err
	}
	if err := s.checkParent(ctx, parentID); err != nil {
		return nil, err
	}
	return parentID, nil
}

// parseParentRef parses a parent reference in any form uuid.Parse accepts.
// Callers compare the parsed id, never the raw string.
func parseParentRef(raw string) (*uuid.UUID, error) {
	raw = normalizeRef(raw)
	if raw == "" {
		return nil, nil
	}
	parentID, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.Validation("Parent category does not exist")
	}
	return &parentID, nil
}

func (s *categoryService) checkParent(ctx context.Context, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	parent, err := s.categories.FindByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Validation("Parent category does not exist")
		}
		return fmt.Errorf("find parent category: %w", err)
	}
	if !parent.IsMain() {
		return apperrors.Validation("Parent must be a main category")
	}
	return nil
}

func (s *categoryService) cached(ctx context.Context, key string, load func(context.Context) ([]model.Category, error)) ([]model.Category, error) {
	var categories []model.Category
	if s.cache.GetJSON(ctx, key, &categories) {
		return categories, nil
	}
	categories, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	if err := s.cache.SetJSON(ctx, key, categories, s.cacheTTL); err != nil {
		s.logger.Warn("cache category list", zap.String("key", key), zap.Error(err))
	}
	return categories, nil
}

func (s *categoryService) invalidate(ctx context.Context, parents ...*uuid.UUID) {
	keys := []string{categoryCacheAll, categoryCacheMain, categoryCacheSub, categoryCacheTree}
	for _, p := range parents {
		if p != nil {
			keys = append(keys, categoryCacheParentPfx+p.String())
		}
	}
	_ = s.cache.Delete(ctx, keys...)
}
