package services

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/table-order-app/models"
	"github.com/yeremiapane/table-order-app/repository"
	"github.com/yeremiapane/table-order-app/utils"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	dateLayout         = "2006-01-02"
)

// SearchInput is the raw admin query. Dates are YYYY-MM-DD and both ends
// are inclusive.
type SearchInput struct {
	TableNumber  string
	MobileNumber string
	OrderCode    string
	Status       string
	StartDate    string
	EndDate      string
	Limit        int
	Offset       int
}

// OrderSummary is an order with its derived figures.
type OrderSummary struct {
	models.Order
	ItemCount  int             `json:"item_count"`
	Total      decimal.Decimal `json:"total"`
	CreatedAgo string          `json:"created_ago"`
}

type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

type SearchResult struct {
	Orders     []OrderSummary `json:"orders"`
	Pagination Pagination     `json:"pagination"`
}

// Summarize derives item count, total and relative age.
func Summarize(order models.Order) OrderSummary {
	return OrderSummary{
		Order:      order,
		ItemCount:  order.ItemCount(),
		Total:      order.Total(),
		CreatedAgo: utils.TimeAgo(order.CreatedAt),
	}
}

func summarizeAll(orders []models.Order) []OrderSummary {
	out := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, Summarize(o))
	}
	return out
}

func parseSearch(in SearchInput) (repository.OrderFilter, error) {
	f := repository.OrderFilter{
		TableNumber:  strings.TrimSpace(in.TableNumber),
		MobileNumber: strings.TrimSpace(in.MobileNumber),
		Limit:        in.Limit,
		Offset:       in.Offset,
	}

	if code := strings.TrimSpace(in.OrderCode); code != "" {
		f.OrderCode = strings.ToUpper(code)
	}
	if s := strings.TrimSpace(in.Status); s != "" {
		status, ok := models.ParseOrderStatus(s)
		if !ok {
			return f, invalid("status", "unknown status")
		}
		f.Status = status
	}

	if in.StartDate != "" {
		start, err := time.Parse(dateLayout, in.StartDate)
		if err != nil {
			return f, invalid("start_date", "must be YYYY-MM-DD")
		}
		f.CreatedFrom = &start
	}
	if in.EndDate != "" {
		end, err := time.Parse(dateLayout, in.EndDate)
		if err != nil {
			return f, invalid("end_date", "must be YYYY-MM-DD")
		}
		// hari terakhir ikut dihitung
		endExclusive := end.AddDate(0, 0, 1)
		f.CreatedTo = &endExclusive
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && !f.CreatedFrom.Before(*f.CreatedTo) {
		return f, invalid("end_date", "must not be before start_date")
	}

	if f.Offset < 0 {
		return f, invalid("offset", "must not be negative")
	}
	if f.Limit <= 0 {
		f.Limit = defaultSearchLimit
	}
	if f.Limit > maxSearchLimit {
		f.Limit = maxSearchLimit
	}
	return f, nil
}

// Search filters orders for the admin list, newest first.
func (e *OrderEngine) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	filter, err := parseSearch(in)
	if err != nil {
		return nil, err
	}
	orders, total, err := e.store.Orders().Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &SearchResult{
		Orders: summarizeAll(orders),
		Pagination: Pagination{
			Total:   total,
			Limit:   filter.Limit,
			Offset:  filter.Offset,
			HasMore: int64(filter.Offset+len(orders)) < total,
		},
	}, nil
}

// SearchAll returns every order matching the filters of in, paging through
// the store maxSearchLimit rows at a time. Limit and Offset of in are
// ignored. Used by the CSV export.
func (e *OrderEngine) SearchAll(ctx context.Context, in SearchInput) ([]OrderSummary, int64, error) {
	in.Offset = 0
	in.Limit = maxSearchLimit

	var (
		all   []OrderSummary
		total int64
	)
	for {
		page, err := e.Search(ctx, in)
		if err != nil {
			return nil, 0, err
		}
		total = page.Pagination.Total
		all = append(all, page.Orders...)
		if !page.Pagination.HasMore || len(page.Orders) == 0 {
			break
		}
		in.Offset += len(page.Orders)
	}
	if all == nil {
		all = []OrderSummary{}
	}
	return all, total, nil
}
