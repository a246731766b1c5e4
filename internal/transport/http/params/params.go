package params

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultCount = 10
	maxCount     = 100
)

// Pagination reads the count/page query parameters, applying defaults and
// clamping count to [1,100] and page to >=1. Bounds live here, at the
// ingress layer; repositories take the values as given.
func Pagination(c echo.Context) (count, page int) {
	count = defaultCount
	page = 1

	if raw := c.QueryParam("count"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			count = v
		}
	}
	if raw := c.QueryParam("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page = v
		}
	}

	if count < 1 {
		count = 1
	}
	if count > maxCount {
		count = maxCount
	}
	if page < 1 {
		page = 1
	}
	return count, page
}
