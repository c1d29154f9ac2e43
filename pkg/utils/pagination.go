package utils

import (
	"net/url"
	"strconv"

	"delivery-system/pkg/types"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// ParseFilterFromQuery reads pagination and common order filters from the
// request query string.
func ParseFilterFromQuery(values url.Values) types.Filter {
	f := types.Filter{
		Limit:  defaultLimit,
		Offset: 0,
		Page:   1,
	}

	if v := values.Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			f.Page = page
		}
	}
	if v := values.Get("per_page"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			if limit > maxLimit {
				limit = maxLimit
			}
			f.Limit = limit
		}
	}
	f.Offset = (f.Page - 1) * f.Limit

	f.Search = values.Get("search")
	f.Status = splitNonEmpty(values.Get("status"))
	f.DriverID = values.Get("driver_id")
	if v := values.Get("week_number"); v != "" {
		if wk, err := strconv.Atoi(v); err == nil {
			f.WeekNumber = wk
		}
	}
	f.StartDate = values.Get("start_date")
	f.EndDate = values.Get("end_date")
	if v := values.Get("include_archived"); v != "" {
		if include, err := strconv.ParseBool(v); err == nil {
			f.IncludeArchived = include
		}
	}

	return f
}

// NewPagination folds a total row count into page metadata.
func NewPagination(total uint64, page, limit int) types.Pagination {
	totalPages := 1
	if limit > 0 {
		totalPages = int((total + uint64(limit) - 1) / uint64(limit))
		if totalPages < 1 {
			totalPages = 1
		}
	}
	return types.Pagination{
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
