// Package reports computes the admin dashboard and sales rollups. Nothing
// is cached; every call reads the order collection.
package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/store"
)

const (
	DefaultDays  = 30
	MaxDays      = 365
	DefaultLimit = 10
	MaxLimit     = 100
	dashboardTop = 5
	recentOrders = 5
	dayLayout    = "2006-01-02"
)

type Service struct {
	reports  store.ReportStore
	orders   store.OrderStore
	products store.ProductStore
	users    store.UserStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(st *store.Store, logger *zap.Logger) *Service {
	return &Service{
		reports:  st.Reports,
		orders:   st.Orders,
		products: st.Products,
		users:    st.Users,
		logger:   logger.Named("reports"),
		now:      time.Now,
	}
}

// Metric compares a value with the previous period.
type Metric struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Growth   float64 `json:"growth"`
}

// Growth is the percentage change from previous to current. A zero
// previous period reports 100.
func Growth(current, previous float64) float64 {
	if previous == 0 {
		return 100
	}
	c, p := decimal.NewFromFloat(current), decimal.NewFromFloat(previous)
	return c.Sub(p).Div(p).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

func metric(current, previous float64) Metric {
	return Metric{Current: current, Previous: previous, Growth: Growth(current, previous)}
}

type Dashboard struct {
	Revenue        Metric                       `json:"revenue"`
	Orders         Metric                       `json:"orders"`
	ActiveProducts int64                        `json:"activeProducts"`
	Customers      int64                        `json:"customers"`
	RecentOrders   []models.Order               `json:"recentOrders"`
	TopProducts    []models.ProductPerformance  `json:"topProducts"`
	DailySales     []models.DailySales          `json:"dailySales"`
	Categories     []models.CategoryPerformance `json:"categoryPerformance"`
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// lastDays is the half-open window of the last n calendar days, today
// included.
func (s *Service) lastDays(n int) (time.Time, time.Time) {
	to := dayStart(s.now().UTC()).AddDate(0, 0, 1)
	return to.AddDate(0, 0, -n), to
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now().UTC()
	thisMonth := monthStart(now)
	nextMonth := thisMonth.AddDate(0, 1, 0)
	lastMonth := thisMonth.AddDate(0, -1, 0)
	salesFrom, salesTo := s.lastDays(DefaultDays)

	var (
		d        Dashboard
		current  models.PeriodTotals
		previous models.PeriodTotals
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		current, err = s.reports.PeriodTotals(ctx, thisMonth, nextMonth)
		return err
	})
	g.Go(func() (err error) {
		previous, err = s.reports.PeriodTotals(ctx, lastMonth, thisMonth)
		return err
	})
	g.Go(func() (err error) {
		d.ActiveProducts, err = s.products.CountActive(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Customers, err = s.users.CountByRole(ctx, models.RoleUser)
		return err
	})
	g.Go(func() (err error) {
		d.RecentOrders, _, err = s.orders.List(ctx, store.OrderFilter{
			Sort: store.SortNewest,
			Page: store.Page{Page: 1, Limit: recentOrders},
		})
		return err
	})
	g.Go(func() (err error) {
		d.TopProducts, err = s.reports.TopProducts(ctx, thisMonth, nextMonth, dashboardTop)
		return err
	})
	g.Go(func() error {
		sales, err := s.reports.DailySales(ctx, salesFrom, salesTo)
		d.DailySales = fillDays(sales, salesFrom, salesTo)
		return err
	})
	g.Go(func() (err error) {
		d.Categories, err = s.reports.CategoryPerformance(ctx, thisMonth, nextMonth)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard rollup failed", zap.Error(err))
		return nil, apperr.Internal(err, "dashboard")
	}

	d.Revenue = metric(current.Revenue, previous.Revenue)
	d.Orders = metric(float64(current.Orders), float64(previous.Orders))
	return &d, nil
}

// fillDays returns one entry per day of [from, to), zero for days without
// sales.
func fillDays(sales []models.DailySales, from, to time.Time) []models.DailySales {
	byDay := make(map[string]models.DailySales, len(sales))
	for _, s := range sales {
		byDay[s.Date] = s
	}
	out := make([]models.DailySales, 0, int(to.Sub(from).Hours()/24))
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayLayout)
		entry, ok := byDay[key]
		if !ok {
			entry = models.DailySales{Date: key}
		}
		out = append(out, entry)
	}
	return out
}

func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

func (s *Service) DailySales(ctx context.Context, days int) ([]models.DailySales, error) {
	from, to := s.lastDays(clamp(days, DefaultDays, MaxDays))
	sales, err := s.reports.DailySales(ctx, from, to)
	if err != nil {
		return nil, apperr.Internal(err, "daily sales")
	}
	return fillDays(sales, from, to), nil
}

// Categories reports the current month.
func (s *Service) Categories(ctx context.Context) ([]models.CategoryPerformance, error) {
	from := monthStart(s.now().UTC())
	out, err := s.reports.CategoryPerformance(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, apperr.Internal(err, "category performance")
	}
	if out == nil {
		out = []models.CategoryPerformance{}
	}
	return out, nil
}

func (s *Service) Products(ctx context.Context, days, limit int) ([]models.ProductPerformance, error) {
	from, to := s.lastDays(clamp(days, DefaultDays, MaxDays))
	out, err := s.reports.TopProducts(ctx, from, to, clamp(limit, DefaultLimit, MaxLimit))
	if err != nil {
		return nil, apperr.Internal(err, "product performance")
	}
	if out == nil {
		out = []models.ProductPerformance{}
	}
	return out, nil
}
