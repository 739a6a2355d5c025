package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"tmdbetl/internal/analytics"
)

// Query holds the filter and size parameters shared by the report routes.
type Query struct {
	Genres []string `json:"genres" validate:"dive,required,max=64"`
	From   int      `json:"from" validate:"omitempty,min=1870,max=2100"`
	To     int      `json:"to" validate:"omitempty,min=1870,max=2100,gtefield=From"`
	Limit  int      `json:"limit" validate:"omitempty,min=1,max=1000"`
}

// Filter converts q, falling back to base for unset criteria.
func (q Query) Filter(base analytics.Filter) analytics.Filter {
	f := base
	if len(q.Genres) > 0 {
		f.Genres = q.Genres
	}
	if q.From != 0 {
		f.YearFrom = q.From
	}
	if q.To != 0 {
		f.YearTo = q.To
	}
	return f
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseQuery reads and validates the query string.
func (s *Server) parseQuery(r *http.Request) (Query, *APIError) {
	vals := r.URL.Query()
	var q Query
	if g := strings.TrimSpace(vals.Get("genres")); g != "" {
		for _, name := range strings.Split(g, ",") {
			q.Genres = append(q.Genres, strings.TrimSpace(name))
		}
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"from", &q.From},
		{"to", &q.To},
		{"limit", &q.Limit},
	} {
		n, err := intParam(vals, p.name)
		if err != nil {
			return Query{}, invalidParameter(p.name, err.Error())
		}
		*p.dst = n
	}

	if err := s.validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Query{}, validationFailed([]FieldError{{Message: err.Error()}})
		}
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fieldName(fe), Message: describe(fe)})
		}
		return Query{}, validationFailed(fields)
	}
	return q, nil
}

func intParam(vals url.Values, name string) (int, error) {
	raw := strings.TrimSpace(vals.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	return n, nil
}

// fieldName strips the slice index validator adds for dived elements.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gtefield":
		return "must not be before from"
	default:
		return "failed " + fe.Tag()
	}
}
