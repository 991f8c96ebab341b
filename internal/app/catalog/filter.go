package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrInvalidFilter = errors.New("invalid filter")

// SortKey picks the listing order. Every key falls back to recency order,
// so ties are broken the same way everywhere.
type SortKey string

const (
	SortNew      SortKey = "new"
	SortTrending SortKey = "trending"
	SortProfit   SortKey = "profit"
)

func ParseSort(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "", SortNew:
		return SortNew, nil
	case SortTrending, SortProfit:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown sort %q", ErrInvalidFilter, s)
}

func (k SortKey) order() string {
	switch k {
	case SortTrending:
		return "views DESC, " + recencyOrder
	case SortProfit:
		return "profit_margin DESC, " + recencyOrder
	}
	return recencyOrder
}

// Since turns a date range name (today, week, month, quarter) into the
// earliest created_at it admits. "all" and "" mean no bound.
func Since(name string, now time.Time) (*time.Time, error) {
	now = now.UTC()
	var since time.Time
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "all":
		return nil, nil
	case "today":
		y, m, d := now.Date()
		since = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case "week":
		since = now.AddDate(0, 0, -7)
	case "month":
		since = now.AddDate(0, -1, 0)
	case "quarter":
		since = now.AddDate(0, -3, 0)
	default:
		return nil, fmt.Errorf("%w: unknown date range %q", ErrInvalidFilter, name)
	}
	return &since, nil
}

// Filter narrows a listing. Conditions are ANDed. A filtered row keeps its
// index in the whole catalog, not its index in the filtered result.
type Filter struct {
	Search     string // case-insensitive substring of the name
	CategoryID string
	Since      *time.Time
	Sort       SortKey
}

// Unfiltered reports whether f selects the plain recency listing.
func (f Filter) Unfiltered() bool {
	return strings.TrimSpace(f.Search) == "" &&
		f.CategoryID == "" &&
		f.Since == nil &&
		(f.Sort == "" || f.Sort == SortNew)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where is a gorm scope holding only the WHERE part, shared by the row and
// count queries.
func (f Filter) where(db *gorm.DB) *gorm.DB {
	if q := strings.TrimSpace(f.Search); q != "" {
		db = db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(q))+"%")
	}
	if f.CategoryID != "" {
		sub := db.Session(&gorm.Session{NewDB: true}).
			Table("product_categories").
			Select("product_id").
			Where("category_id = ?", f.CategoryID)
		db = db.Where("id IN (?)", sub)
	}
	if f.Since != nil {
		db = db.Where("created_at >= ?", f.Since.UTC())
	}
	return db
}
