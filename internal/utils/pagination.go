package utils

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
}

// GetPaginationParams reads page/limit (1-indexed page, bounded limit) from the query string.
// Out-of-range or non-numeric values are rejected rather than clamped.
func GetPaginationParams(c *gin.Context) (PaginationParams, error) {
	verr := &apierrors.ValidationError{}

	page, ok := intQuery(c, "page", constants.DefaultPage, verr)
	if ok && page < 1 {
		verr.Add("page", "must be greater than or equal to 1")
	}

	limit, ok := intQuery(c, "limit", constants.DefaultPageSize, verr)
	if ok && (limit < constants.MinPageSize || limit > constants.MaxPageSize) {
		verr.Add("limit", fmt.Sprintf("must be between %d and %d", constants.MinPageSize, constants.MaxPageSize))
	}

	if err := verr.OrNil(); err != nil {
		return PaginationParams{}, err
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}, nil
}

// GetSkipLimitParams reads skip/limit (offset style) from the query string.
func GetSkipLimitParams(c *gin.Context) (PaginationParams, error) {
	verr := &apierrors.ValidationError{}

	skip, ok := intQuery(c, "skip", 0, verr)
	if ok && skip < 0 {
		verr.Add("skip", "must be greater than or equal to 0")
	}

	limit, ok := intQuery(c, "limit", constants.DefaultProjectLimit, verr)
	if ok && (limit < 1 || limit > constants.MaxProjectLimit) {
		verr.Add("limit", fmt.Sprintf("must be between 1 and %d", constants.MaxProjectLimit))
	}

	if err := verr.OrNil(); err != nil {
		return PaginationParams{}, err
	}

	params := PaginationParams{Limit: limit, Offset: skip}
	params.Page = skip/limit + 1
	return params, nil
}

func intQuery(c *gin.Context, key string, def int, verr *apierrors.ValidationError) (int, bool) {
	raw, present := c.GetQuery(key)
	if !present || raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(key, "value is not a valid integer")
		return 0, false
	}
	return v, true
}
