package handler

import (
	"net/http"
	"strconv"
	"strings"

	"uservault/internal/users/store"

	dErrors "uservault/pkg/domain-errors"
)

// parseListQuery reads page, size and sort query parameters. All are
// optional; defaults are the store's (page 0, size 20, name ascending).
// Sort follows the "field,direction" convention, e.g. sort=lastName,desc.
func parseListQuery(r *http.Request) (store.Page, error) {
	q := r.URL.Query()
	page := store.Page{}

	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return store.Page{}, dErrors.Newf(dErrors.CodeBadRequest, "page must be a non-negative integer, got %q", raw)
		}
		page.Number = n
	}

	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return store.Page{}, dErrors.Newf(dErrors.CodeBadRequest, "size must be a positive integer, got %q", raw)
		}
		page.Size = n
	}

	if raw := q.Get("sort"); raw != "" {
		sort, err := parseSort(raw)
		if err != nil {
			return store.Page{}, err
		}
		page.Sort = sort
	}

	return page.Normalize(), nil
}

func parseSort(raw string) (store.Sort, error) {
	field, direction, hasDirection := strings.Cut(raw, ",")

	sortField, err := store.ParseSortField(field)
	if err != nil {
		return store.Sort{}, err
	}

	sort := store.Sort{Field: sortField}
	if hasDirection {
		switch strings.ToLower(direction) {
		case "asc":
		case "desc":
			sort.Desc = true
		default:
			return store.Sort{}, dErrors.Newf(dErrors.CodeBadRequest, "sort direction must be asc or desc, got %q", direction)
		}
	}
	return sort, nil
}
