package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "dentalsupply/internal/errors"
	"dentalsupply/internal/model"
	"dentalsupply/internal/repository"
)

// BrandInput is the writable part of a brand.
type BrandInput struct {
	Name string
	Logo string
}

// BrandService manages brands.
type BrandService interface {
	List(ctx context.Context) ([]model.Brand, error)
	Get(ctx context.Context, id string) (*model.Brand, error)
	Create(ctx context.Context, in BrandInput) (*model.Brand, error)
	Update(ctx context.Context, id string, in BrandInput) (*model.Brand, error)
	Delete(ctx context.Context, id string) error
}

type brandService struct {
	brands   repository.BrandRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

// NewBrandService creates a new brand service.
func NewBrandService(brands repository.BrandRepository, products repository.ProductRepository, logger *zap.Logger) BrandService {
	return &brandService{brands: brands, products: products, logger: logger}
}

func (s *brandService) List(ctx context.Context) ([]model.Brand, error) {
	brands, err := s.brands.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

func (s *brandService) Get(ctx context.Context, id string) (*model.Brand, error) {
	brandID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apperrors.NotFound("Brand not found")
	}
	brand, err := s.brands.FindByID(ctx, brandID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Brand not found")
		}
		return nil, fmt.Errorf("find brand: %w", err)
	}
	return brand, nil
}

func (s *brandService) Create(ctx context.Context, in BrandInput) (*model.Brand, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation("Brand name is required")
	}
	brand := &model.Brand{Name: name, Logo: strings.TrimSpace(in.Logo)}
	if err := s.brands.Create(ctx, brand); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("Brand already exists")
		}
		return nil, fmt.Errorf("create brand: %w", err)
	}
	s.logger.Info("brand created", zap.String("brand_id", brand.ID.String()))
	return brand, nil
}

func (s *brandService) Update(ctx context.Context, id string, in BrandInput) (*model.Brand, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.Validation("Brand name is required")
	}
	brand, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	brand.Name = name
	brand.Logo = strings.TrimSpace(in.Logo)
	if err := s.brands.Update(ctx, brand); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("Brand already exists")
		}
		return nil, fmt.Errorf("update brand: %w", err)
	}
	return brand, nil
}

// Delete removes a brand no product refers to.
func (s *brandService) Delete(ctx context.Context, id string) error {
	brand, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.products.CountByBrand(ctx, brand.ID)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return apperrors.Conflict("Cannot delete brand that still has products")
	}
	if err := s.brands.Delete(ctx, brand.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Brand not found")
		}
		return fmt.Errorf("delete brand: %w", err)
	}
	s.logger.Info("brand deleted", zap.String("brand_id", brand.ID.String()))
	return nil
}

// ProductInput is the writable part of a product. Reference ids are raw
// client values; an empty subcategory or brand means none.
type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	Stock         int
	Image         string
	CategoryID    string
	SubcategoryID string
	BrandID       string
}

// ProductQuery filters product listings by raw reference ids.
type ProductQuery struct {
	CategoryID    string
	SubcategoryID string
	BrandID       string
}

// ProductService manages the product catalog.
type ProductService interface {
	List(ctx context.Context, q ProductQuery) ([]model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, in ProductInput) (*model.Product, error)
	Update(ctx context.Context, id string, in ProductInput) (*model.Product, error)
	Delete(ctx context.Context, id string) error
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	brands     repository.BrandRepository
	logger     *zap.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	brands repository.BrandRepository,
	logger *zap.Logger,
) ProductService {
	return &productService{products: products, categories: categories, brands: brands, logger: logger}
}

func (s *productService) List(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	var (
		filter repository.ProductFilter
		err    error
	)
	if filter.CategoryID, err = parseOptionalID(q.CategoryID, "category"); err != nil {
		return nil, err
	}
	if filter.SubcategoryID, err = parseOptionalID(q.SubcategoryID, "subcategory"); err != nil {
		return nil, err
	}
	if filter.BrandID, err = parseOptionalID(q.BrandID, "brand"); err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id string) (*model.Product, error) {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apperrors.NotFound("Product not found")
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	product := &model.Product{}
	if err := s.apply(ctx, product, in); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", zap.String("product_id", product.ID.String()))
	return product, nil
}

func (s *productService) Update(ctx context.Context, id string, in ProductInput) (*model.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, product, in); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	productID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return apperrors.NotFound("Product not found")
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Product not found")
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.logger.Info("product deleted", zap.String("product_id", productID.String()))
	return nil
}

// apply validates in and copies it onto product. The category must be a main
// category and the subcategory, when given, one of its children.
func (s *productService) apply(ctx context.Context, product *model.Product, in ProductInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperrors.Validation("Product name is required")
	}
	if in.Price.IsNegative() {
		return apperrors.Validation("Price cannot be negative")
	}
	if in.Stock < 0 {
		return apperrors.Validation("Stock cannot be negative")
	}

	categoryID, err := parseOptionalID(in.CategoryID, "category")
	if err != nil {
		return err
	}
	if categoryID == nil {
		return apperrors.Validation("Category is required")
	}
	category, err := s.lookupCategory(ctx, *categoryID, "Category does not exist")
	if err != nil {
		return err
	}
	if !category.IsMain() {
		return apperrors.Validation("Products must be filed under a main category")
	}

	subcategoryID, err := parseOptionalID(in.SubcategoryID, "subcategory")
	if err != nil {
		return err
	}
	if subcategoryID != nil {
		sub, err := s.lookupCategory(ctx, *subcategoryID, "Subcategory does not exist")
		if err != nil {
			return err
		}
		if sub.ParentID == nil || *sub.ParentID != category.ID {
			return apperrors.Validation("Subcategory does not belong to the category")
		}
	}

	brandID, err := parseOptionalID(in.BrandID, "brand")
	if err != nil {
		return err
	}
	if brandID != nil {
		if _, err := s.brands.FindByID(ctx, *brandID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Validation("Brand does not exist")
			}
			return fmt.Errorf("find brand: %w", err)
		}
	}

	product.Name = name
	product.Description = strings.TrimSpace(in.Description)
	product.Price = in.Price
	product.Stock = in.Stock
	product.Image = strings.TrimSpace(in.Image)
	product.CategoryID = category.ID
	product.SubcategoryID = subcategoryID
	product.BrandID = brandID
	return nil
}

func (s *productService) lookupCategory(ctx context.Context, id uuid.UUID, missing string) (*model.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Validation(missing)
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return category, nil
}

// parseOptionalID parses a reference id, treating the placeholders forms send
// for an empty select as absent.
func parseOptionalID(raw, field string) (*uuid.UUID, error) {
	raw = normalizeRef(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("Invalid %s id", field))
	}
	return &id, nil
}
