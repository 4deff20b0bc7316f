package transport

import (
	"net/url"
	"strconv"
	"strings"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/middleware"

	"github.com/shopspring/decimal"
)

// productsParams holds the typed query of a products listing. Ranges are
// checked by the validator after parsing succeeds. The page and limit caps
// keep the row offset well inside an int.
type productsParams struct {
	Category       *string
	Brand          *string
	Model          *string
	Color          *string
	Currency       *string
	MinPrice       *float64 `query:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice       *float64 `query:"maxPrice" validate:"omitempty,gte=0"`
	Page           *int     `query:"page" validate:"omitempty,gte=1,lte=1000000"`
	Limit          *int     `query:"limit" validate:"omitempty,gte=1,lte=1000"`
	IncludeDeleted bool

	minPrice *decimal.Decimal
	maxPrice *decimal.Decimal
}

// filter converts the parsed query into a catalog filter
func (p *productsParams) filter() domain.QueryFilter {
	f := domain.QueryFilter{
		Category:       p.Category,
		Brand:          p.Brand,
		Model:          p.Model,
		Color:          p.Color,
		Currency:       p.Currency,
		MinPrice:       p.minPrice,
		MaxPrice:       p.maxPrice,
		IncludeDeleted: p.IncludeDeleted,
	}
	if p.Page != nil {
		f.Page = *p.Page
	}
	if p.Limit != nil {
		f.Limit = *p.Limit
	}
	return f
}

// queryReader pulls typed values out of a query string and collects a
// validation error for every value that does not parse.
type queryReader struct {
	values url.Values
	errs   []middleware.ValidationError
}

func newQueryReader(values url.Values) *queryReader {
	return &queryReader{values: values}
}

func (q *queryReader) raw(name string) (string, bool) {
	v := strings.TrimSpace(q.values.Get(name))
	return v, v != ""
}

func (q *queryReader) str(name string) *string {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	return &v
}

func (q *queryReader) integer(name string) *int {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.fail(name, "Must be an integer")
		return nil
	}
	return &n
}

func (q *queryReader) number(name string) *decimal.Decimal {
	v, ok := q.raw(name)
	if !ok {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		q.fail(name, "Must be a number")
		return nil
	}
	return &d
}

func (q *queryReader) boolean(name string) bool {
	v, ok := q.raw(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.fail(name, "Must be true or false")
		return false
	}
	return b
}

func (q *queryReader) fail(field, message string) {
	q.errs = append(q.errs, middleware.ValidationError{Field: field, Message: message})
}

func inexact(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// parseProductsQuery reads the products listing query. includeDeleted is
// honoured only when allowDeleted is set.
func parseProductsQuery(values url.Values, allowDeleted bool) (*productsParams, []middleware.ValidationError) {
	q := newQueryReader(values)

	params := &productsParams{
		Category: q.str("category"),
		Brand:    q.str("brand"),
		Model:    q.str("model"),
		Color:    q.str("color"),
		Currency: q.str("currency"),
		Page:     q.integer("page"),
		Limit:    q.integer("limit"),
		minPrice: q.number("minPrice"),
		maxPrice: q.number("maxPrice"),
	}
	if allowDeleted {
		params.IncludeDeleted = q.boolean("includeDeleted")
	}
	if len(q.errs) > 0 {
		return nil, q.errs
	}

	params.MinPrice = inexact(params.minPrice)
	params.MaxPrice = inexact(params.maxPrice)
	if err := middleware.ValidateRequest(params); err != nil {
		return nil, middleware.FormatValidationErrors(err)
	}

	return params, nil
}
