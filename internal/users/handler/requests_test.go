package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uservault/internal/users/store"

	dErrors "uservault/pkg/domain-errors"
)

func TestParseListQuery(t *testing.T) {
	parse := func(t *testing.T, query string) (store.Page, error) {
		t.Helper()
		return parseListQuery(httptest.NewRequest("GET", "/users"+query, nil))
	}

	t.Run("applies defaults when no parameters are given", func(t *testing.T) {
		page, err := parse(t, "")
		require.NoError(t, err)
		assert.Equal(t, 0, page.Number)
		assert.Equal(t, store.DefaultPageSize, page.Size)
		assert.Equal(t, store.DefaultSort, page.Sort)
	})

	t.Run("parses page, size and sort together", func(t *testing.T) {
		page, err := parse(t, "?page=2&size=5&sort=lastName,desc")
		require.NoError(t, err)
		assert.Equal(t, 2, page.Number)
		assert.Equal(t, 5, page.Size)
		assert.Equal(t, store.Sort{Field: store.SortByLastName, Desc: true}, page.Sort)
	})

	t.Run("sort direction defaults to ascending", func(t *testing.T) {
		page, err := parse(t, "?sort=email")
		require.NoError(t, err)
		assert.Equal(t, store.Sort{Field: store.SortByEmail}, page.Sort)
	})

	t.Run("sort direction is case-insensitive", func(t *testing.T) {
		page, err := parse(t, "?sort=birthday,DESC")
		require.NoError(t, err)
		assert.True(t, page.Sort.Desc)
	})

	t.Run("caps size at the maximum", func(t *testing.T) {
		page, err := parse(t, "?size=10000")
		require.NoError(t, err)
		assert.Equal(t, store.MaxPageSize, page.Size)
	})

	t.Run("rejects bad parameters", func(t *testing.T) {
		tests := []struct {
			name  string
			query string
			code  dErrors.Code
		}{
			{"negative page", "?page=-1", dErrors.CodeBadRequest},
			{"non-numeric page", "?page=abc", dErrors.CodeBadRequest},
			{"zero size", "?size=0", dErrors.CodeBadRequest},
			{"negative size", "?size=-5", dErrors.CodeBadRequest},
			{"unknown sort field", "?sort=password", dErrors.CodeValidation},
			{"unknown sort direction", "?sort=name,sideways", dErrors.CodeBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := parse(t, tt.query)
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, tt.code), "got %v", err)
			})
		}
	})
}
