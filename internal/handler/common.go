package handler

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// parseID reads a numeric path parameter.  Zero is never a valid ID, so
// callers can treat (0, false) uniformly.
func parseID(c echo.Context, name string) (uint64, bool) {
    n, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || n == 0 {
        return 0, false
    }
    return n, true
}
