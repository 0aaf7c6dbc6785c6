package service

import (
	"errors"
	"fmt"

	"go-pos-backoffice/internal/cache"
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const productSearchLimit = 20

// ProductOption is one entry of the checkout product picker.
type ProductOption struct {
	ID           uuid.UUID       `json:"id"`
	Text         string          `json:"text"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	BuyingPrice  decimal.Decimal `json:"buying_price"`
	Stock        int             `json:"stock"`
	Quantity     int             `json:"quantity"`
	TotalProduct decimal.Decimal `json:"total_product"`
}

type CatalogService interface {
	ListCategories() ([]model.Category, error)
	GetCategory(id uuid.UUID) (*model.Category, error)
	CreateCategory(req *model.Category, userID string) error
	UpdateCategory(id uuid.UUID, req *model.Category, userID string) (*model.Category, error)
	DeleteCategory(id uuid.UUID, userID string) error

	ListProducts() ([]model.Product, error)
	GetProduct(id uuid.UUID) (*model.Product, error)
	CreateProduct(req *model.Product, userID string) error
	UpdateProduct(id uuid.UUID, req *model.Product, userID string) (*model.Product, error)
	DeleteProduct(id uuid.UUID, userID string) error
	SearchProducts(term string) ([]ProductOption, error)
}

type catalogService struct {
	db           *gorm.DB
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	counterRepo  repository.CounterRepository
	cache        *cache.Cache
	log          *logrus.Logger
}

func NewCatalogService(
	db *gorm.DB,
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
	counterRepo repository.CounterRepository,
	c *cache.Cache,
	log *logrus.Logger,
) CatalogService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &catalogService{
		db:           db,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		counterRepo:  counterRepo,
		cache:        c,
		log:          log,
	}
}

func (s *catalogService) invalidate() {
	invalidateDashboard(s.cache, s.log)
}

func (s *catalogService) ListCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}

func (s *catalogService) GetCategory(id uuid.UUID) (*model.Category, error) {
	c, err := s.categoryRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

func (s *catalogService) CreateCategory(req *model.Category, userID string) error {
	if req.Status == "" {
		req.Status = model.StatusActive
	}
	if err := validate(req); err != nil {
		return err
	}
	req.CreatedBy = userID
	req.UpdatedBy = userID
	if err := s.categoryRepo.Create(req); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *catalogService) UpdateCategory(id uuid.UUID, req *model.Category, userID string) (*model.Category, error) {
	existing, err := s.GetCategory(id)
	if err != nil {
		return nil, err
	}
	existing.Name = req.Name
	existing.Description = req.Description
	existing.Status = req.Status
	existing.UpdatedBy = userID
	if err := validate(existing); err != nil {
		return nil, err
	}
	if err := s.categoryRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteCategory soft-deletes the category and its products and takes their
// stock value off the product counter.
func (s *catalogService) DeleteCategory(id uuid.UUID, userID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.categoryRepo.WithTx(tx).FindByID(id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		stock, err := s.productRepo.WithTx(tx).SumTotalByCategory(id)
		if err != nil {
			return err
		}
		if err := s.categoryRepo.WithTx(tx).Delete(id, userID); err != nil {
			return err
		}
		return s.counterRepo.Increment(tx, model.CounterGrandProductTotal, stock.Neg())
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *catalogService) ListProducts() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func (s *catalogService) GetProduct(id uuid.UUID) (*model.Product, error) {
	p, err := s.productRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (s *catalogService) checkPrices(p *model.Product) error {
	if err := checkMoney("Product.Price", p.Price); err != nil {
		return err
	}
	return checkMoney("Product.BuyingPrice", p.BuyingPrice)
}

func (s *catalogService) CreateProduct(req *model.Product, userID string) error {
	if req.Status == "" {
		req.Status = model.StatusActive
	}
	if err := validate(req); err != nil {
		return err
	}
	if err := s.checkPrices(req); err != nil {
		return err
	}
	if _, err := s.GetCategory(req.CategoryID); err != nil {
		return err
	}
	req.CreatedBy = userID
	req.UpdatedBy = userID
	req.RecomputeTotal()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.WithTx(tx).Create(req); err != nil {
			return err
		}
		return s.counterRepo.Increment(tx, model.CounterGrandProductTotal, req.TotalAmount)
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *catalogService) UpdateProduct(id uuid.UUID, req *model.Product, userID string) (*model.Product, error) {
	if err := s.checkPrices(req); err != nil {
		return nil, err
	}
	if _, err := s.GetCategory(req.CategoryID); err != nil {
		return nil, err
	}

	var updated *model.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.productRepo.WithTx(tx)
		existing, err := repo.FindForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		oldTotal := existing.TotalAmount

		existing.Name = req.Name
		existing.Description = req.Description
		existing.Status = req.Status
		existing.CategoryID = req.CategoryID
		existing.Price = req.Price
		existing.BuyingPrice = req.BuyingPrice
		existing.Quantity = req.Quantity
		existing.UpdatedBy = userID
		existing.RecomputeTotal()
		if err := validate(existing); err != nil {
			return err
		}
		if err := repo.Update(existing); err != nil {
			return err
		}
		updated = existing
		return s.counterRepo.Increment(tx, model.CounterGrandProductTotal, existing.TotalAmount.Sub(oldTotal))
	})
	if err != nil {
		return nil, err
	}
	s.invalidate()
	return updated, nil
}

func (s *catalogService) DeleteProduct(id uuid.UUID, userID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.productRepo.WithTx(tx)
		existing, err := repo.FindForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		if err := repo.Delete(id, userID); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		return s.counterRepo.Increment(tx, model.CounterGrandProductTotal, existing.TotalAmount.Neg())
	})
	if err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *catalogService) SearchProducts(term string) ([]ProductOption, error) {
	products, err := s.productRepo.Search(term, productSearchLimit)
	if err != nil {
		return nil, err
	}
	options := make([]ProductOption, 0, len(products))
	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = p.Category.Name
		}
		options = append(options, ProductOption{
			ID:           p.ID,
			Text:         p.Name,
			Category:     category,
			Price:        p.Price,
			BuyingPrice:  p.BuyingPrice,
			Stock:        p.Quantity,
			Quantity:     1,
			TotalProduct: decimal.Zero,
		})
	}
	return options, nil
}
