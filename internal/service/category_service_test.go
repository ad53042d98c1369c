package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "dentalsupply/internal/errors"
	"dentalsupply/internal/model"
)

func newCategoryService(categories *MockCategoryRepository, products *MockProductRepository) CategoryService {
	return NewCategoryService(categories, products, nil, 0, nil, zap.NewNop())
}

func TestCategoryService_Create(t *testing.T) {
	mainID := uuid.New()
	subID := uuid.New()
	missingID := uuid.New()

	tests := []struct {
		name       string
		input      CategoryInput
		setupMock  func(*MockCategoryRepository)
		wantParent *uuid.UUID
		wantErr    error
		wantMsg    string
	}{
		{
			name:  "main category",
			input: CategoryInput{Name: " Instruments ", Image: "https://img.example/instruments.png"},
			setupMock: func(m *MockCategoryRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Category) bool {
					return c.Name == "Instruments" && c.ParentID == nil
				})).Return(nil)
			},
		},
		{
			name:  "placeholder parent values mean no parent",
			input: CategoryInput{Name: "Consumables", ParentID: "undefined"},
			setupMock: func(m *MockCategoryRepository) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Category) bool {
					return c.ParentID == nil
				})).Return(nil)
			},
		},
		{
			name:  "subcategory of a main category",
			input: CategoryInput{Name: "Forceps", ParentID: mainID.String()},
			setupMock: func(m *MockCategoryRepository) {
				m.On("FindByID", mock.Anything, mainID).Return(&model.Category{ID: mainID, Name: "Instruments"}, nil)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.Category")).Return(nil)
			},
			wantParent: &mainID,
		},
		{
			name:      "missing name",
			input:     CategoryInput{Name: "  "},
			setupMock: func(m *MockCategoryRepository) {},
			wantErr:   apperrors.ErrValidation,
			wantMsg:   "Category name is required",
		},
		{
			name:  "parent does not exist",
			input: CategoryInput{Name: "Forceps", ParentID: missingID.String()},
			setupMock: func(m *MockCategoryRepository) {
				m.On("FindByID", mock.Anything, missingID).Return(nil, gorm.ErrRecordNotFound)
			},
			wantErr: apperrors.ErrValidation,
			wantMsg: "Parent category does not exist",
		},
		{
			name:      "parent is not an id",
			input:     CategoryInput{Name: "Forceps", ParentID: "64f1c0ffee"},
			setupMock: func(m *MockCategoryRepository) {},
			wantErr:   apperrors.ErrValidation,
			wantMsg:   "Parent category does not exist",
		},
		{
			name:  "parent is itself a subcategory",
			input: CategoryInput{Name: "Extraction forceps", ParentID: subID.String()},
			setupMock: func(m *MockCategoryRepository) {
				m.On("FindByID", mock.Anything, subID).Return(&model.Category{ID: subID, ParentID: &mainID}, nil)
			},
			wantErr: apperrors.ErrValidation,
			wantMsg: "Parent must be a main category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			categories := new(MockCategoryRepository)
			tt.setupMock(categories)
			svc := newCategoryService(categories, new(MockProductRepository))

			created, err := svc.Create(context.Background(), tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantMsg, err.Error())
				assert.Nil(t, created)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantParent, created.ParentID)
			}
			categories.AssertExpectations(t)
		})
	}
}

func TestCategoryService_Update(t *testing.T) {
	id := uuid.New()
	otherMain := uuid.New()

	tests := []struct {
		name      string
		id        string
		input     CategoryInput
		setupMock func(*MockCategoryRepository)
		wantErr   error
		wantMsg   string
	}{
		{
			name:  "rename and move under another main category",
			id:    id.String(),
			input: CategoryInput{Name: "Hand instruments", ParentID: otherMain.String()},
			setupMock: func(m *MockCategoryRepository) {
				m.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id, Name: "Instruments"}, nil)
				m.On("FindByID", mock.Anything, otherMain).Return(&model.Category{ID: otherMain, Name: "Surgery"}, nil)
				m.On("CountChildren", mock.Anything, id).Return(int64(0), nil)
				m.On("Update", mock.Anything, mock.MatchedBy(func(c *model.Category) bool {
					return c.Name == "Hand instruments" && c.ParentID != nil && *c.ParentID == otherMain
				})).Return(nil)
			},
		},
		{
			name:  "self parent rejected",
			id:    id.String(),
			input: CategoryInput{Name: "Instruments", ParentID: id.String()},
			setupMock: func(m *MockCategoryRepository) {
				m.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id, Name: "Instruments"}, nil)
			},
			wantErr: apperrors.ErrValidation,
			wantMsg: "A category cannot be its own parent",
		},
		{
			name:  "self parent without dashes rejected",
			id:    id.String(),
			input: CategoryInput{Name: "Instruments", ParentID: strings.ReplaceAll(id.String(), "-", "")},
			setupMock: func(m *MockCategoryRepository) {
				m.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id, Name: "Instruments"}, nil).Once()
			},
			wantErr: apperrors.ErrValidation,
			wantMsg: "A category cannot be its own parent",
		},
		{
			name:  "self parent in braces rejected",
			id:    id.String(),
			input: CategoryInput{Name: "Instruments", ParentID: "{" + id.String() + "}"},
			setupMock: func(m *MockCategoryRepository) {
				m.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id, Name: "Instruments"}, nil).Once()
			},
			wantErr: apperrors.ErrValidation,
			wantMsg: "A category cannot be its own parent",
		},
		{
			name:  "self parent as urn rejected",
			id:    id.String(),
			input: CategoryInput{Name: "Instruments", ParentID: "urn:uuid:" + strings.ToUpper(id.String())},
			setupMock: func(m *MockCategoryRepository) {
				m.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id, Name: "Instruments"}, nil).Once()
			},
			wantErr: apperrors.ErrValidation,
			wantMsg: "A category cannot be its own parent",
		},
		{
			name:  "category with subcategories cannot get a parent",
			id:    id.String(),
			input: CategoryInput{Name: "Instruments", ParentID: otherMain.String()},
			setupMock: func(m *MockCategoryRepository) {
				m.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id, Name: "Instruments"}, nil)
				m.On("FindByID", mock.Anything, otherMain).Return(&model.Category{ID: otherMain}, nil)
				m.On("CountChildren", mock.Anything, id).Return(int64(2), nil)
			},
			wantErr: apperrors.ErrValidation,
			wantMsg: "A category with subcategories cannot become a subcategory",
		},
		{
			name:  "not found",
			id:    id.String(),
			input: CategoryInput{Name: "Instruments"},
			setupMock: func(m *MockCategoryRepository) {
				m.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)
			},
			wantErr: apperrors.ErrNotFound,
			wantMsg: "Category not found",
		},
		{
			name:      "malformed id",
			id:        "nope",
			input:     CategoryInput{Name: "Instruments"},
			setupMock: func(m *MockCategoryRepository) {},
			wantErr:   apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			categories := new(MockCategoryRepository)
			tt.setupMock(categories)
			svc := newCategoryService(categories, new(MockProductRepository))

			updated, err := svc.Update(context.Background(), tt.id, tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, err.Error())
				}
				assert.Nil(t, updated)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.input.Name, updated.Name)
			}
			categories.AssertExpectations(t)
		})
	}
}

func TestCategoryService_UpdateSubcategoryToMain(t *testing.T) {
	id := uuid.New()
	parent := uuid.New()
	categories := new(MockCategoryRepository)
	categories.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id, Name: "Forceps", ParentID: &parent}, nil)
	categories.On("Update", mock.Anything, mock.MatchedBy(func(c *model.Category) bool {
		return c.ParentID == nil
	})).Return(nil)

	updated, err := newCategoryService(categories, new(MockProductRepository)).Update(context.Background(), id.String(), CategoryInput{Name: "Forceps", ParentID: "null"})
	require.NoError(t, err)
	assert.True(t, updated.IsMain())
	categories.AssertExpectations(t)
}

func TestCategoryService_Delete(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name      string
		setupMock func(*MockCategoryRepository, *MockProductRepository)
		wantErr   error
		wantMsg   string
	}{
		{
			name: "no dependents",
			setupMock: func(c *MockCategoryRepository, p *MockProductRepository) {
				c.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id}, nil)
				c.On("CountChildren", mock.Anything, id).Return(int64(0), nil)
				p.On("CountByCategory", mock.Anything, id).Return(int64(0), nil)
				c.On("Delete", mock.Anything, id).Return(nil)
			},
		},
		{
			name: "has subcategories",
			setupMock: func(c *MockCategoryRepository, p *MockProductRepository) {
				c.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id}, nil)
				c.On("CountChildren", mock.Anything, id).Return(int64(1), nil)
			},
			wantErr: apperrors.ErrConflict,
			wantMsg: "Cannot delete category with subcategories",
		},
		{
			name: "has products",
			setupMock: func(c *MockCategoryRepository, p *MockProductRepository) {
				c.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id}, nil)
				c.On("CountChildren", mock.Anything, id).Return(int64(0), nil)
				p.On("CountByCategory", mock.Anything, id).Return(int64(4), nil)
			},
			wantErr: apperrors.ErrConflict,
			wantMsg: "Cannot delete category that still has products",
		},
		{
			name: "not found",
			setupMock: func(c *MockCategoryRepository, p *MockProductRepository) {
				c.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)
			},
			wantErr: apperrors.ErrNotFound,
			wantMsg: "Category not found",
		},
		{
			name: "removed concurrently",
			setupMock: func(c *MockCategoryRepository, p *MockProductRepository) {
				c.On("FindByID", mock.Anything, id).Return(&model.Category{ID: id}, nil)
				c.On("CountChildren", mock.Anything, id).Return(int64(0), nil)
				p.On("CountByCategory", mock.Anything, id).Return(int64(0), nil)
				c.On("Delete", mock.Anything, id).Return(gorm.ErrRecordNotFound)
			},
			wantErr: apperrors.ErrNotFound,
			wantMsg: "Category not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			categories := new(MockCategoryRepository)
			products := new(MockProductRepository)
			tt.setupMock(categories, products)
			svc := newCategoryService(categories, products)

			err := svc.Delete(context.Background(), id.String())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.wantMsg, err.Error())
			} else {
				require.NoError(t, err)
			}
			categories.AssertExpectations(t)
			products.AssertExpectations(t)
		})
	}
}

func TestCategoryService_Lists(t *testing.T) {
	ctx := context.Background()
	instruments := model.Category{ID: uuid.New(), Name: "Instruments"}
	forceps := model.Category{ID: uuid.New(), Name: "Forceps", ParentID: &instruments.ID, Parent: &model.Category{ID: instruments.ID, Name: "Instruments"}}
	consumables := model.Category{ID: uuid.New(), Name: "Consumables"}

	categories := new(MockCategoryRepository)
	categories.On("List", mock.Anything).Return([]model.Category{consumables, forceps, instruments}, nil)
	categories.On("ListMain", mock.Anything).Return([]model.Category{consumables, instruments}, nil)
	categories.On("ListSub", mock.Anything).Return([]model.Category{forceps}, nil)
	categories.On("ListByParent", mock.Anything, instruments.ID).Return([]model.Category{forceps}, nil)
	categories.On("ListByParent", mock.Anything, consumables.ID).Return(nil, nil)
	svc := newCategoryService(categories, new(MockProductRepository))

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	main, err := svc.ListMain(ctx)
	require.NoError(t, err)
	assert.Len(t, main, 2)

	sub, err := svc.ListSub(ctx)
	require.NoError(t, err)
	require.Len(t, sub, 1)
	assert.Equal(t, "Instruments", sub[0].Parent.Name)

	children, err := svc.ListByParent(ctx, instruments.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []model.Category{forceps}, children)

	// A parent without subcategories is an empty list, not an error.
	none, err := svc.ListByParent(ctx, consumables.ID.String())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	// So is a parent id that is not a UUID.
	garbage, err := svc.ListByParent(ctx, "garbage")
	require.NoError(t, err)
	assert.NotNil(t, garbage)
	assert.Empty(t, garbage)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Consumables", tree[0].Name)
	assert.Empty(t, tree[0].Children)
	assert.Equal(t, "Instruments", tree[1].Name)
	require.Len(t, tree[1].Children, 1)
	assert.Equal(t, "Forceps", tree[1].Children[0].Name)

	categories.AssertExpectations(t)
}

func TestCategoryService_ListPropagatesStorageErrors(t *testing.T) {
	categories := new(MockCategoryRepository)
	categories.On("ListMain", mock.Anything).Return(nil, errors.New("db down"))

	_, err := newCategoryService(categories, new(MockProductRepository)).ListMain(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrValidation)
}
