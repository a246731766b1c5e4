package params_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/mercury/internal/transport/http/params"
)

func paginationFor(t *testing.T, query string) (int, int) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	return params.Pagination(c)
}

func TestPaginationDefaults(t *testing.T) {
	count, page := paginationFor(t, "")
	require.Equal(t, 10, count)
	require.Equal(t, 1, page)
}

func TestPaginationClamps(t *testing.T) {
	count, page := paginationFor(t, "count=500&page=0")
	require.Equal(t, 100, count)
	require.Equal(t, 1, page)

	count, page = paginationFor(t, "count=-3&page=-1")
	require.Equal(t, 1, count)
	require.Equal(t, 1, page)
}

func TestPaginationPassesThroughValidValues(t *testing.T) {
	count, page := paginationFor(t, "count=25&page=4")
	require.Equal(t, 25, count)
	require.Equal(t, 4, page)
}

func TestPaginationIgnoresGarbage(t *testing.T) {
	count, page := paginationFor(t, "count=abc&page=xyz")
	require.Equal(t, 10, count)
	require.Equal(t, 1, page)
}
