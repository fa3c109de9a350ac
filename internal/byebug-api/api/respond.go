package api

import (
	"errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	"byebug-backend/internal/byebug-api/store"
)

// writeStoreError maps the store taxonomy onto HTTP status codes. The
// message always names the missing or conflicting entity.
func writeStoreError(c *app.RequestContext, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInvalidTransition):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, utils.H{"error": err.Error()})
}
