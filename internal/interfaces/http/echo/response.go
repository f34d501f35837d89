package echo

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	app "github.com/mohammadpnp/person-registry/internal/application/person"
	domain "github.com/mohammadpnp/person-registry/internal/domain/person"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []fieldError `json:"fields,omitempty"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, apiResponse{Error: &errorBody{Code: code, Message: message}})
}

// responder renders service errors as HTTP responses.
type responder struct {
	retryAfter time.Duration
}

func newResponder(retryAfter time.Duration) responder {
	if retryAfter <= 0 {
		retryAfter = time.Second
	}
	return responder{retryAfter: retryAfter}
}

func (r responder) fail(c echo.Context, err error) error {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		fields := make([]fieldError, 0, len(validationErr.Violations))
		for _, v := range validationErr.Violations {
			fields = append(fields, fieldError{Field: v.Field, Message: v.Message})
		}
		return c.JSON(http.StatusUnprocessableEntity, apiResponse{Error: &errorBody{
			Code:    "validation_failed",
			Message: "request failed validation",
			Fields:  fields,
		}})
	case errors.Is(err, app.ErrPersonNotFound):
		return errorJSON(c, http.StatusNotFound, "not_found", "person not found")
	case errors.Is(err, app.ErrAddressNotFound):
		return errorJSON(c, http.StatusNotFound, "not_found", "address not found")
	case errors.Is(err, app.ErrPersonHasAddresses):
		return errorJSON(c, http.StatusConflict, "conflict", "person still has addresses")
	case errors.Is(err, app.ErrStoreUnavailable):
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(r.retryAfter.Round(time.Second).Seconds())))
		return errorJSON(c, http.StatusServiceUnavailable, "store_unavailable", "store is busy, retry later")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errorJSON(c, http.StatusServiceUnavailable, "request_aborted", "request was aborted")
	default:
		return errorJSON(c, http.StatusInternalServerError, "internal_error", "failed to process request")
	}
}

func badRequest(c echo.Context, message string) error {
	return errorJSON(c, http.StatusBadRequest, "bad_request", message)
}

func pathID(c echo.Context) (int64, bool) {
	var id int64
	if err := echo.PathParamsBinder(c).MustInt64("id", &id).BindError(); err != nil {
		return 0, false
	}
	return id, true
}

func pageQuery(c echo.Context) (offset, limit int, ok bool) {
	err := echo.QueryParamsBinder(c).
		Int("offset", &offset).
		Int("limit", &limit).
		BindError()
	return offset, limit, err == nil
}
