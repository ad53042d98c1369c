package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dentalsupply/internal/model"
)

// CategoryRepository defines category persistence operations.
type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	ListMain(ctx context.Context) ([]model.Category, error)
	ListSub(ctx context.Context) ([]model.Category, error)
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]model.Category, error)
	CountChildren(ctx context.Context, id uuid.UUID) (int64, error)
	FindMainByName(ctx context.Context, name string) (*model.Category, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// withParentName preloads the parent with only the columns the list views show.
func withParentName(db *gorm.DB) *gorm.DB {
	return db.Preload("Parent", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name")
	})
}

// Create creates a new category.
func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Omit("Parent").Create(category).Error
}

// Update writes name, image and parent. The parent column is written even
// when nil so a subcategory can be promoted to a main category.
func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]interface{}{
			"name":      category.Name,
			"image":     category.Image,
			"parent_id": category.ParentID,
		}).Error
}

// Delete removes a category by ID.
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Category{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID finds a category by ID.
func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// List returns every category with its parent's name resolved.
func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := withParentName(r.db.WithContext(ctx)).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListMain returns categories without a parent.
func (r *categoryRepository) ListMain(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("parent_id IS NULL").Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListSub returns every category that has a parent.
func (r *categoryRepository) ListSub(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := withParentName(r.db.WithContext(ctx)).Where("parent_id IS NOT NULL").Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListByParent returns the subcategories of one parent.
func (r *categoryRepository) ListByParent(ctx context.Context, parentID uuid.UUID) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("parent_id = ?", parentID).Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CountChildren counts categories whose parent is id.
func (r *categoryRepository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Category{}).Where("parent_id = ?", id).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindMainByName finds a main category by exact name.
func (r *categoryRepository) FindMainByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("name = ? AND parent_id IS NULL", name).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}
