package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jayjaytrn/refund-desk/internal/apperrors"
	"github.com/jayjaytrn/refund-desk/models"
	"github.com/shopspring/decimal"
)

const dayLayout = "2006-01-02"

// progression lists the statuses in lifecycle order.
var progression = []models.OrderStatus{
	models.OrderUnallotted,
	models.OrderAllotted,
	models.OrderPlaced,
	models.OrderConfirmed,
}

// reached returns status and every status after it.
func reached(status models.OrderStatus) []models.OrderStatus {
	for i, s := range progression {
		if s == status {
			return append([]models.OrderStatus(nil), progression[i:]...)
		}
	}
	return nil
}

// statusFilter maps the dashboard status parameter to the statuses it admits.
// An allotted order stays counted as allotted after it is placed or confirmed.
func statusFilter(raw string) ([]models.OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return nil, nil
	case "unallotted":
		return []models.OrderStatus{models.OrderUnallotted}, nil
	case "allotted", "alloted":
		return reached(models.OrderAllotted), nil
	case "placed":
		return reached(models.OrderPlaced), nil
	case "confirmed":
		return reached(models.OrderConfirmed), nil
	}
	return nil, apperrors.Validation("unknown status %q", raw)
}

// DashboardFilter turns the raw query into an order filter. The end date
// covers its whole day.
func DashboardFilter(brand string, q models.DashboardQuery) (models.OrderFilter, error) {
	filter := models.OrderFilter{BrandName: brand}

	if season := strings.TrimSpace(q.Season); season != "" && !strings.EqualFold(season, "all") {
		filter.Season = season
	}

	statuses, err := statusFilter(q.Status)
	if err != nil {
		return filter, err
	}
	filter.Statuses = statuses

	if q.StartDate != "" {
		if filter.From, err = time.Parse(dayLayout, q.StartDate); err != nil {
			return filter, apperrors.Validation("startDate must be YYYY-MM-DD")
		}
	}
	if q.EndDate != "" {
		end, err := time.Parse(dayLayout, q.EndDate)
		if err != nil {
			return filter, apperrors.Validation("endDate must be YYYY-MM-DD")
		}
		filter.To = end.AddDate(0, 0, 1)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return filter, apperrors.Validation("endDate is before startDate")
	}
	return filter, nil
}

// Brands lists the brands that have at least one order.
func (s *Service) Brands(ctx context.Context) ([]string, error) {
	brands, err := s.Database.GetBrands(ctx)
	if err != nil {
		return nil, apperrors.Store("list brands", err)
	}
	return brands, nil
}

// BrandDashboard lists a brand's orders with their totals. Revenue counts
// placed and confirmed orders only.
func (s *Service) BrandDashboard(ctx context.Context, brand string, q models.DashboardQuery) (*models.BrandDashboard, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, apperrors.Validation("brand name is required")
	}
	filter, err := DashboardFilter(brand, q)
	if err != nil {
		return nil, err
	}

	orders, err := s.Database.GetOrders(ctx, filter)
	if err != nil {
		return nil, apperrors.Store("list brand orders", err)
	}

	stats := models.BrandStats{TotalRevenue: decimal.Zero, AllOrders: len(orders)}
	for _, o := range orders {
		if o.Placed() {
			stats.TotalOrders++
			stats.TotalRevenue = stats.TotalRevenue.Add(o.Price)
		} else {
			stats.PendingOrders++
		}
		if o.Allotted() {
			stats.AllottedOrders++
		}
		if o.Confirmed() {
			stats.ConfirmedOrders++
		}
	}

	return &models.BrandDashboard{BrandName: brand, Stats: stats, Orders: orders}, nil
}

// PaymentHistory lists the orders userID has placed and what they add up to.
func (s *Service) PaymentHistory(ctx context.Context, userID string) (*models.PaymentHistory, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.Validation("invalid user id %q", userID)
	}

	orders, err := s.Database.GetOrders(ctx, models.OrderFilter{
		UserID:   userID,
		Statuses: reached(models.OrderPlaced),
	})
	if err != nil {
		return nil, apperrors.Store("list payment history", err)
	}

	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.Price)
	}
	return &models.PaymentHistory{Orders: orders, TotalAmount: total, OrderCount: len(orders)}, nil
}
