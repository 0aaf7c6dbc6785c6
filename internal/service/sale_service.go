package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go-pos-backoffice/internal/cache"
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/internal/ws"
	"go-pos-backoffice/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CartLine is one product row of the checkout form.
type CartLine struct {
	ID           uuid.UUID       `json:"id" validate:"uuid_required"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity" validate:"gt=0"`
	TotalProduct decimal.Decimal `json:"total_product"`
}

// CreateSaleRequest is the JSON body posted by the checkout form.
// A line price, when sent, must match the product's current price. SubTotal and
// GrandTotal are what the browser displayed; the stored figures are always
// recomputed from the product rows.
type CreateSaleRequest struct {
	Customer      uuid.UUID       `json:"customer" validate:"uuid_required"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	TaxPercentage decimal.Decimal `json:"tax_percentage"`
	AmountPayed   decimal.Decimal `json:"amount_payed"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Products      []CartLine      `json:"products" validate:"dive"`
}

type SaleService interface {
	CreateSale(req *CreateSaleRequest, userID, userName string) (*model.Sale, error)
	RecomputeTotals(saleID uuid.UUID) (*model.Sale, error)
	ListSales(filter repository.SaleFilter) ([]model.Sale, error)
	GetSale(id uuid.UUID) (*model.Sale, error)
	Counters() ([]model.RunningTotal, error)
}

type saleService struct {
	db           *gorm.DB
	saleRepo     repository.SaleRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	counterRepo  repository.CounterRepository
	cache        *cache.Cache
	wsHub        *ws.Hub
	log          *logrus.Logger
	now          func() time.Time
}

func NewSaleService(
	db *gorm.DB,
	saleRepo repository.SaleRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	counterRepo repository.CounterRepository,
	c *cache.Cache,
	hub *ws.Hub,
	log *logrus.Logger,
) SaleService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &saleService{
		db:           db,
		saleRepo:     saleRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		counterRepo:  counterRepo,
		cache:        c,
		wsHub:        hub,
		log:          log,
		now:          time.Now,
	}
}

func (s *saleService) CreateSale(req *CreateSaleRequest, userID, userName string) (*model.Sale, error) {
	if req == nil || len(req.Products) == 0 {
		return nil, ErrEmptyCart
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkMoney("CreateSaleRequest.TaxPercentage", req.TaxPercentage); err != nil {
		return nil, err
	}
	if req.TaxPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &ValidationError{Field: "CreateSaleRequest.TaxPercentage", Tag: "range"}
	}
	if err := checkMoney("CreateSaleRequest.AmountPayed", req.AmountPayed); err != nil {
		return nil, err
	}

	var sale *model.Sale
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.customerRepo.FindInTx(tx, req.Customer); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrCustomerNotFound, req.Customer)
			}
			return err
		}

		products, err := s.lockProducts(tx, req.Products)
		if err != nil {
			return err
		}

		sale = &model.Sale{
			Date:       s.now(),
			CustomerID: req.Customer,
			CreatedBy:  userID,
		}
		details := make([]model.SaleDetail, 0, len(req.Products))
		for _, line := range req.Products {
			p := products[line.ID]
			if !line.Price.IsZero() && !line.Price.Equal(p.Price) {
				return fmt.Errorf("%w: %s now costs %s", ErrPriceChanged, p.Name, p.Price.StringFixed(2))
			}
			if p.Quantity < line.Quantity {
				return fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, p.Name, p.Quantity, line.Quantity)
			}
			p.Quantity -= line.Quantity
			detail := model.SaleDetail{
				ProductID:   p.ID,
				Price:       p.Price,
				Quantity:    line.Quantity,
				BuyingPrice: decimal.NewNullDecimal(p.BuyingPrice),
			}
			detail.ComputeTotals()
			details = append(details, detail)
		}

		sale.ApplyTotals(details)
		sale.ApplyPayment(req.TaxPercentage, req.AmountPayed)
		if err := s.saleRepo.Create(tx, sale); err != nil {
			return err
		}

		linesTotal := decimal.Zero
		for i := range details {
			details[i].SaleID = sale.ID
			if err := s.saleRepo.CreateDetail(tx, &details[i]); err != nil {
				return err
			}
			linesTotal = linesTotal.Add(details[i].TotalDetail)
		}
		if err := s.recomputeTotals(tx, sale); err != nil {
			return err
		}

		for _, p := range products {
			p.UpdatedBy = userID
			if err := s.productRepo.SaveStock(tx, p); err != nil {
				return err
			}
		}

		if err := s.counterRepo.Increment(tx, model.CounterGrandProductTotal, linesTotal.Neg()); err != nil {
			return err
		}
		return s.counterRepo.Increment(tx, model.CounterGrandSalesTotal, sale.GrandTotal)
	})
	if err != nil {
		logger.LogError(s.log, "service", "CreateSale", "create sale transaction", req, err)
		return nil, err
	}

	s.warnOnClientMismatch(req, sale)
	s.afterCommit(sale, userName)
	return sale, nil
}

// lockProducts row-locks every distinct product of the cart in id order, so two
// checkouts sharing products always lock them in the same sequence.
func (s *saleService) lockProducts(tx *gorm.DB, lines []CartLine) (map[uuid.UUID]*model.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ID] {
			seen[l.ID] = true
			ids = append(ids, l.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	products := make(map[uuid.UUID]*model.Product, len(ids))
	for _, id := range ids {
		p, err := s.productRepo.FindForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
			}
			return nil, err
		}
		if p.Status != model.StatusActive {
			return nil, fmt.Errorf("%w: %s", ErrProductInactive, p.Name)
		}
		products[id] = p
	}
	return products, nil
}

// recomputeTotals re-derives the sale's sub total, profit, grand total and change
// from the detail rows stored under it and persists them.
func (s *saleService) recomputeTotals(tx *gorm.DB, sale *model.Sale) error {
	details, err := s.saleRepo.FindDetails(tx, sale.ID)
	if err != nil {
		return err
	}
	sale.ApplyTotals(details)
	return s.saleRepo.SaveTotals(tx, sale)
}

func (s *saleService) RecomputeTotals(saleID uuid.UUID) (*model.Sale, error) {
	var sale *model.Sale
	err := s.db.Transaction(func(tx *gorm.DB) error {
		found, err := s.saleRepo.FindInTx(tx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSaleNotFound
			}
			return err
		}
		sale = found
		return s.recomputeTotals(tx, sale)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) warnOnClientMismatch(req *CreateSaleRequest, sale *model.Sale) {
	fields := logrus.Fields{}
	if !req.SubTotal.IsZero() && !req.SubTotal.Round(2).Equal(sale.SubTotal.Round(2)) {
		fields["client_sub_total"] = req.SubTotal.String()
	}
	if !req.GrandTotal.IsZero() && !req.GrandTotal.Round(2).Equal(sale.GrandTotal.Round(2)) {
		fields["client_grand_total"] = req.GrandTotal.String()
	}
	if len(fields) == 0 {
		return
	}
	fields["sale_id"] = sale.ID.String()
	fields["sub_total"] = sale.SubTotal.String()
	fields["grand_total"] = sale.GrandTotal.String()
	s.log.WithFields(fields).Warn("checkout totals differ from stored totals")
}

func (s *saleService) afterCommit(sale *model.Sale, userName string) {
	invalidateDashboard(s.cache, s.log)
	s.wsHub.Publish(ws.Event{
		Type:    "sale_created",
		Message: fmt.Sprintf("%s recorded a sale of %s", userName, sale.GrandTotal.StringFixed(2)),
		Data: map[string]interface{}{
			"id":          sale.ID,
			"date":        sale.Date,
			"customer_id": sale.CustomerID,
			"grand_total": sale.GrandTotal.StringFixed(2),
			"profit":      sale.Profit.StringFixed(2),
		},
	})
}

func (s *saleService) ListSales(filter repository.SaleFilter) ([]model.Sale, error) {
	return s.saleRepo.FindAll(filter)
}

func (s *saleService) GetSale(id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (s *saleService) Counters() ([]model.RunningTotal, error) {
	return s.counterRepo.FindAll()
}
