package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankledger/internal/models"
	"bankledger/internal/money"
	"bankledger/internal/store"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
	dateLayout      = "2006-01-02"
)

var errInvalidFilter = errors.New("invalid filter")

// parseAmount accepts a JSON number or a numeric string.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.Zero, money.ErrInvalidAmount
	}
	if strings.HasPrefix(text, `"`) {
		var unquoted string
		if err := json.Unmarshal(raw, &unquoted); err != nil {
			return decimal.Zero, money.ErrInvalidAmount
		}
		text = unquoted
	}
	return money.Parse(text)
}

func filterError(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", errInvalidFilter, name, err)
}

// parseTransactionFilter reads list and export query parameters.
func parseTransactionFilter(query url.Values) (store.TransactionFilter, error) {
	var filter store.TransactionFilter
	filter.AccountID = strings.TrimSpace(query.Get("account_id"))

	if raw := query.Get("min_amount"); raw != "" {
		amount, err := money.Parse(raw)
		if err != nil {
			return filter, filterError("min_amount", err)
		}
		filter.MinAmount = &amount
	}
	if raw := query.Get("max_amount"); raw != "" {
		amount, err := money.Parse(raw)
		if err != nil {
			return filter, filterError("max_amount", err)
		}
		filter.MaxAmount = &amount
	}
	if method := query.Get("transaction_type"); method != "" {
		if !models.ValidMethod(method) {
			return filter, filterError("transaction_type", errors.New("unknown value"))
		}
		filter.Method = method
	}
	if direction := query.Get("deposit_and_withdrawal_type"); direction != "" {
		if !models.ValidDirection(direction) {
			return filter, filterError("deposit_and_withdrawal_type", errors.New("unknown value"))
		}
		filter.Direction = direction
	}
	if raw := query.Get("transaction_timestamp_after"); raw != "" {
		after, err := parseTimeBound(raw, false)
		if err != nil {
			return filter, filterError("transaction_timestamp_after", err)
		}
		filter.After = &after
	}
	if raw := query.Get("transaction_timestamp_before"); raw != "" {
		before, err := parseTimeBound(raw, true)
		if err != nil {
			return filter, filterError("transaction_timestamp_before", err)
		}
		filter.Before = &before
	}
	filter.Search = strings.Fields(query.Get("search"))

	if raw := query.Get("ordering"); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			field = strings.TrimSpace(field)
			if _, ok := store.OrderColumns[strings.TrimPrefix(field, "-")]; !ok {
				return filter, filterError("ordering", fmt.Errorf("cannot order by %q", field))
			}
			filter.Ordering = append(filter.Ordering, field)
		}
	}

	limit, offset, err := parsePaging(query)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	filter.Offset = offset
	return filter, nil
}

// parseTimeBound accepts a calendar date or an RFC 3339 instant. A date used
// as an upper bound covers the whole day.
func parseTimeBound(raw string, upper bool) (time.Time, error) {
	if day, err := time.Parse(dateLayout, raw); err == nil {
		if upper {
			return day.Add(24*time.Hour - time.Microsecond), nil
		}
		return day, nil
	}
	instant, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("expected YYYY-MM-DD or RFC 3339")
	}
	return instant.UTC(), nil
}

func parsePaging(query url.Values) (int, int, error) {
	limit := defaultPageSize
	if raw := query.Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 || value > maxPageSize {
			return 0, 0, filterError("limit", fmt.Errorf("must be between 1 and %d", maxPageSize))
		}
		limit = value
	}
	page := 1
	if raw := query.Get("page"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			return 0, 0, filterError("page", errors.New("must be a positive integer"))
		}
		page = value
	}
	return limit, (page - 1) * limit, nil
}
