package services

import (
	"context"
	"errors"
	"net/url"

	"github.com/modaliv/modaliv-backend/internal/models"
	"github.com/modaliv/modaliv-backend/internal/queryfilter"
	"github.com/modaliv/modaliv-backend/internal/utils"

	"github.com/sirupsen/logrus"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrProductExists   = errors.New("product already exists")
	ErrProductFailed   = errors.New("product operation failed")
)

// ProductStore is the persistence surface the product service needs.
type ProductStore interface {
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, sku string) error
}

// ProductService serves catalog listings. Filtering runs through the
// queryfilter engine over the loaded records, so any product field is
// filterable without per-field query code.
type ProductService struct {
	products ProductStore
}

func NewProductService(products ProductStore) *ProductService {
	return &ProductService{products: products}
}

// List applies query-string filters, sorting and pagination to the catalog.
// Filter syntax errors (bad range arity, empty groups) surface to the caller;
// unknown filters are dropped by the engine.
func (s *ProductService) List(ctx context.Context, query url.Values) ([]models.Product, utils.PaginationResponse, error) {
	filtered, err := s.Filtered(ctx, query)
	if err != nil {
		return nil, utils.PaginationResponse{}, err
	}

	page, pageSize := utils.ParsePaginationFromQuery(query.Get("page"), query.Get("page_size"))
	paged, info := utils.Paginate(filtered, page, pageSize)
	return paged, info, nil
}

// Filtered returns the full filtered and sorted result set without paging.
// The Excel export uses this directly.
func (s *ProductService) Filtered(ctx context.Context, query url.Values) ([]models.Product, error) {
	params, err := queryfilter.Parse(query)
	if err != nil {
		return nil, err
	}

	products, err := s.products.ListAll(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to load product catalog")
		return nil, ErrProductFailed
	}

	filtered, err := queryfilter.Apply(products, params)
	if err != nil {
		return nil, err
	}

	if sortValue := query.Get("sort"); sortValue != "" {
		queryfilter.Sort(filtered, queryfilter.ParseSortSpecs(sortValue))
	}
	return filtered, nil
}

// Get loads one product by SKU.
func (s *ProductService) Get(ctx context.Context, sku string) (*models.Product, error) {
	product, err := s.products.GetBySKU(ctx, sku)
	if err != nil {
		logrus.WithError(err).WithField("sku", sku).Error("Failed to load product")
		return nil, ErrProductFailed
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create adds a product to the catalog. SKU collisions are a conflict.
func (s *ProductService) Create(ctx context.Context, product *models.Product) error {
	existing, err := s.products.GetBySKU(ctx, product.SKU)
	if err != nil {
		logrus.WithError(err).WithField("sku", product.SKU).Error("Failed to check product")
		return ErrProductFailed
	}
	if existing != nil {
		return ErrProductExists
	}
	if err := s.products.Create(ctx, product); err != nil {
		logrus.WithError(err).WithField("sku", product.SKU).Error("Failed to create product")
		return ErrProductFailed
	}
	return nil
}

// Update replaces the stored product with the same SKU.
func (s *ProductService) Update(ctx context.Context, product *models.Product) error {
	existing, err := s.Get(ctx, product.SKU)
	if err != nil {
		return err
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	if err := s.products.Update(ctx, product); err != nil {
		logrus.WithError(err).WithField("sku", product.SKU).Error("Failed to update product")
		return ErrProductFailed
	}
	return nil
}

// Delete removes a product by SKU.
func (s *ProductService) Delete(ctx context.Context, sku string) error {
	if _, err := s.Get(ctx, sku); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, sku); err != nil {
		logrus.WithError(err).WithField("sku", sku).Error("Failed to delete product")
		return ErrProductFailed
	}
	return nil
}
