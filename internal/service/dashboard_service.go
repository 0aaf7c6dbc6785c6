package service

import (
	"context"
	"time"

	"go-pos-backoffice/internal/cache"
	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DashboardCacheKey   = "dashboard"
	DashboardVersionKey = "dashboard:version"
)

// SnapshotCache stores dashboard snapshots tagged with a version counter.
// *cache.Cache satisfies it, including a nil *cache.Cache.
type SnapshotCache interface {
	GetObject(ctx context.Context, key string, dest interface{}) (bool, error)
	SetObject(ctx context.Context, key string, obj interface{}) error
	Version(ctx context.Context, key string) (int64, error)
}

// invalidateDashboard retires every snapshot built before this call, including
// one still being built concurrently.
func invalidateDashboard(c *cache.Cache, log *logrus.Logger) {
	ctx := context.Background()
	if err := c.Bump(ctx, DashboardVersionKey); err != nil {
		log.WithError(err).Warn("invalidate dashboard cache")
	}
	if err := c.Delete(ctx, DashboardCacheKey); err != nil {
		log.WithError(err).Warn("drop dashboard snapshot")
	}
}

const topProductsLimit = 3

// MonthFigures holds one calendar month of the current year.
type MonthFigures struct {
	Month    int             `json:"month"`
	Name     string          `json:"name"`
	Sales    int64           `json:"sales"`
	Earnings decimal.Decimal `json:"earnings"`
	Profit   decimal.Decimal `json:"profit"`
}

// Dashboard is a point-in-time snapshot of the reporting figures. All money is rounded to cents.
type Dashboard struct {
	Day         string    `json:"day"`
	Version     int64     `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`

	ProfitToday    decimal.Decimal         `json:"profit_today"`
	Profit7Days    decimal.Decimal         `json:"profit_7_days"`
	Profit30Days   decimal.Decimal         `json:"profit_30_days"`
	ProfitAllTime  decimal.Decimal         `json:"profit_all_time"`
	Months         []MonthFigures          `json:"months"`
	YearSales      int64                   `json:"year_sales"`
	YearEarnings   decimal.Decimal         `json:"year_earnings"`
	YearProfit     decimal.Decimal         `json:"year_profit"`
	YearAverage    decimal.Decimal         `json:"year_average"`
	TopProducts    []repository.TopProduct `json:"top_products"`
	WeekSales      decimal.Decimal         `json:"week_sales"`
	WeekProfit     decimal.Decimal         `json:"week_profit"`
	TodaySales     decimal.Decimal         `json:"today_sales"`
	TodaySaleCount int64                   `json:"today_sale_count"`
	Last7SaleCount int64                   `json:"last_7_sale_count"`
	ProductCount   int64                   `json:"product_count"`
	CategoryCount  int64                   `json:"category_count"`

	Counters []model.RunningTotal `json:"counters"`
}

// ChartSeries is the data the dashboard charts are drawn from.
type ChartSeries struct {
	Months           []string `json:"months"`
	Earnings         []string `json:"earnings"`
	Profits          []string `json:"profits"`
	Sales            []int64  `json:"sales"`
	TopProductNames  []string `json:"top_product_names"`
	TopProductCounts []int64  `json:"top_product_counts"`
}

func (d *Dashboard) Chart() ChartSeries {
	cs := ChartSeries{
		Months:           make([]string, 0, len(d.Months)),
		Earnings:         make([]string, 0, len(d.Months)),
		Profits:          make([]string, 0, len(d.Months)),
		Sales:            make([]int64, 0, len(d.Months)),
		TopProductNames:  make([]string, 0, len(d.TopProducts)),
		TopProductCounts: make([]int64, 0, len(d.TopProducts)),
	}
	for _, m := range d.Months {
		cs.Months = append(cs.Months, m.Name)
		cs.Earnings = append(cs.Earnings, m.Earnings.StringFixed(2))
		cs.Profits = append(cs.Profits, m.Profit.StringFixed(2))
		cs.Sales = append(cs.Sales, m.Sales)
	}
	for _, p := range d.TopProducts {
		cs.TopProductNames = append(cs.TopProductNames, p.Name)
		cs.TopProductCounts = append(cs.TopProductCounts, p.TotalQuantity)
	}
	return cs
}

type DashboardService interface {
	GetDashboard(ctx context.Context) (*Dashboard, error)
}

type dashboardService struct {
	reportRepo   repository.ReportRepository
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	counterRepo  repository.CounterRepository
	cache        SnapshotCache
	loc          *time.Location
	log          *logrus.Logger
	now          func() time.Time
}

func NewDashboardService(
	reportRepo repository.ReportRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	counterRepo repository.CounterRepository,
	c SnapshotCache,
	loc *time.Location,
	log *logrus.Logger,
) DashboardService {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if c == nil {
		c = (*cache.Cache)(nil)
	}
	return &dashboardService{
		reportRepo:   reportRepo,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		counterRepo:  counterRepo,
		cache:        c,
		loc:          loc,
		log:          log,
		now:          time.Now,
	}
}

// Windows derived from a single "now" in the shop's time zone.
type windows struct {
	today, last7, last30, week, year, last7Count repository.Period
	months                                       [12]repository.Period
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func computeWindows(now time.Time) windows {
	var w windows
	day := startOfDay(now)
	w.today = repository.Period{From: day, To: day.AddDate(0, 0, 1)}
	w.last7 = repository.Period{From: now.AddDate(0, 0, -7)}
	w.last30 = repository.Period{From: now.AddDate(0, 0, -30)}
	w.last7Count = repository.Period{From: day.AddDate(0, 0, -7), To: day.AddDate(0, 0, 1)}

	// Weeks start on Monday.
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	w.week = repository.Period{From: monday, To: monday.AddDate(0, 0, 7)}

	jan1 := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	w.year = repository.Period{From: jan1, To: jan1.AddDate(1, 0, 0)}
	for i := 0; i < 12; i++ {
		first := jan1.AddDate(0, i, 0)
		w.months[i] = repository.Period{From: first, To: first.AddDate(0, 1, 0)}
	}
	return w
}

func cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func (s *dashboardService) GetDashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now().In(s.loc)
	day := now.Format("2006-01-02")

	version, err := s.cache.Version(ctx, DashboardVersionKey)
	if err != nil {
		s.log.WithError(err).Warn("read dashboard cache version")
		return s.build(now)
	}

	var cached Dashboard
	found, err := s.cache.GetObject(ctx, DashboardCacheKey, &cached)
	if err != nil {
		s.log.WithError(err).Warn("read dashboard cache")
	}
	if found && cached.Day == day && cached.Version == version {
		return &cached, nil
	}

	d, err := s.build(now)
	if err != nil {
		return nil, err
	}
	// Tagged with the version read before building: an invalidation that lands
	// while building makes this snapshot stale on the next read.
	d.Version = version
	if err := s.cache.SetObject(ctx, DashboardCacheKey, d); err != nil {
		s.log.WithError(err).Warn("write dashboard cache")
	}
	return d, nil
}

func (s *dashboardService) build(now time.Time) (*Dashboard, error) {
	w := computeWindows(now)
	d := &Dashboard{Day: now.Format("2006-01-02"), GeneratedAt: now}

	profits := []struct {
		dst *decimal.Decimal
		p   repository.Period
	}{
		{&d.ProfitToday, w.today},
		{&d.Profit7Days, w.last7},
		{&d.Profit30Days, w.last30},
		{&d.ProfitAllTime, repository.Period{}},
		{&d.WeekProfit, w.week},
	}
	for _, pr := range profits {
		v, err := s.reportRepo.DetailProfit(pr.p)
		if err != nil {
			return nil, err
		}
		*pr.dst = cents(v)
	}

	for i, p := range w.months {
		totals, err := s.reportRepo.SalesTotals(p)
		if err != nil {
			return nil, err
		}
		cost, err := s.reportRepo.CostOfGoods(p)
		if err != nil {
			return nil, err
		}
		d.Months = append(d.Months, MonthFigures{
			Month:    i + 1,
			Name:     p.From.Month().String()[:3],
			Sales:    totals.Count,
			Earnings: cents(totals.Earnings),
			Profit:   cents(totals.Earnings.Sub(cost)),
		})
	}

	year, err := s.reportRepo.SalesTotals(w.year)
	if err != nil {
		return nil, err
	}
	yearCost, err := s.reportRepo.CostOfGoods(w.year)
	if err != nil {
		return nil, err
	}
	d.YearSales = year.Count
	d.YearEarnings = cents(year.Earnings)
	d.YearProfit = cents(year.Earnings.Sub(yearCost))
	d.YearAverage = cents(year.Average)

	if d.TopProducts, err = s.reportRepo.TopProducts(topProductsLimit); err != nil {
		return nil, err
	}
	if d.TopProducts == nil {
		d.TopProducts = []repository.TopProduct{}
	}

	week, err := s.reportRepo.SalesTotals(w.week)
	if err != nil {
		return nil, err
	}
	d.WeekSales = cents(week.Earnings)

	today, err := s.reportRepo.SalesTotals(w.today)
	if err != nil {
		return nil, err
	}
	d.TodaySales = cents(today.Earnings)
	d.TodaySaleCount = today.Count

	if d.Last7SaleCount, err = s.reportRepo.SaleCount(w.last7Count); err != nil {
		return nil, err
	}
	if d.ProductCount, err = s.productRepo.Count(); err != nil {
		return nil, err
	}
	if d.CategoryCount, err = s.categoryRepo.Count(); err != nil {
		return nil, err
	}
	if d.Counters, err = s.counterRepo.FindAll(); err != nil {
		return nil, err
	}
	return d, nil
}
