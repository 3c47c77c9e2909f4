package service

import (
	"context"
	"time"

	"github.com/Baaaki/buy-sell-store/internal/metrics"
	"github.com/Baaaki/buy-sell-store/internal/models"
	"github.com/Baaaki/buy-sell-store/internal/repository"
	"github.com/Baaaki/buy-sell-store/internal/validation"
	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"go.uber.org/zap"
)

// CalculateIncome sums what role earned over products. Only bought
// products count. Sellers earn the margin (which may be negative),
// suppliers earn their own cost. The input is not filtered here.
func CalculateIncome(products []models.Product, role models.Role) (int64, error) {
	var total int64

	switch role {
	case models.RoleSeller:
		for i := range products {
			if products[i].Bought() {
				total += products[i].Margin()
			}
		}
	case models.RoleSupplier:
		for i := range products {
			if products[i].Bought() {
				total += products[i].SupplierCost
			}
		}
	default:
		return 0, newError(ErrForbiddenRole, "role %s has no income", role)
	}

	return total, nil
}

// IncomeQuery selects the products an income report covers. Dates are
// inclusive calendar days in UTC; empty means unbounded.
type IncomeQuery struct {
	Category string `form:"category" json:"category" validate:"omitempty,max=100,category"`
	From     string `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
}

type IncomeReport struct {
	Role     models.Role `json:"role"`
	Category string      `json:"category,omitempty"`
	From     string      `json:"from,omitempty"`
	To       string      `json:"to,omitempty"`
	Sold     int         `json:"sold"`
	Income   int64       `json:"income"`
}

type IncomeService struct {
	productRepo *repository.ProductRepository
}

func NewIncomeService(productRepo *repository.ProductRepository) *IncomeService {
	return &IncomeService{productRepo: productRepo}
}

// Report computes the actor's income over their own products.
func (s *IncomeService) Report(ctx context.Context, actor Principal, q IncomeQuery) (*IncomeReport, error) {
	if err := actor.requireRole("request an income report", models.RoleSeller, models.RoleSupplier); err != nil {
		return nil, err
	}

	filter, err := s.buildFilter(actor, q)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.FindForIncome(ctx, filter)
	if err != nil {
		logger.Log.Error("Failed to load products for income report",
			zap.String("user_id", actor.UserID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	income, err := CalculateIncome(products, actor.Role)
	if err != nil {
		return nil, err
	}

	sold := 0
	for i := range products {
		if products[i].Bought() {
			sold++
		}
	}

	metrics.IncomeReportsTotal.WithLabelValues(string(actor.Role)).Inc()

	logger.Log.Info("Income report computed",
		zap.String("user_id", actor.UserID.String()),
		zap.String("role", string(actor.Role)),
		zap.String("category", q.Category),
		zap.Int("sold", sold),
		zap.Int64("income", income),
	)

	return &IncomeReport{
		Role:     actor.Role,
		Category: q.Category,
		From:     q.From,
		To:       q.To,
		Sold:     sold,
		Income:   income,
	}, nil
}

func (s *IncomeService) buildFilter(actor Principal, q IncomeQuery) (repository.IncomeFilter, error) {
	if err := validation.Struct(q); err != nil {
		return repository.IncomeFilter{}, err
	}

	filter := repository.IncomeFilter{Category: q.Category}

	id := actor.UserID
	if actor.Role == models.RoleSeller {
		filter.SellerID = &id
	} else {
		filter.SupplierID = &id
	}

	if q.From != "" {
		from, _ := time.Parse(validation.DateLayout, q.From)
		filter.From = from
	}
	if q.To != "" {
		to, _ := time.Parse(validation.DateLayout, q.To)
		filter.To = to.AddDate(0, 0, 1)
	}

	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return repository.IncomeFilter{}, &validation.Error{Fields: []string{"from must not be after to"}}
	}

	return filter, nil
}
