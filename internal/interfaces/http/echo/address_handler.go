package echo

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	app "github.com/mohammadpnp/person-registry/internal/application/person"
)

type AddressHandler struct {
	addresses app.AddressService
	responder
}

func NewAddressHandler(addresses app.AddressService, retryAfter time.Duration) *AddressHandler {
	return &AddressHandler{
		addresses: addresses,
		responder: newResponder(retryAfter),
	}
}

func (h *AddressHandler) CreateAddress(c echo.Context) error {
	var in app.CreateAddressInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	out, err := h.addresses.Create(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, apiResponse{Data: out})
}

func (h *AddressHandler) GetAddress(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id must be an integer")
	}

	out, err := h.addresses.Get(c.Request().Context(), app.GetAddressInput{ID: id})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *AddressHandler) ListAddresses(c echo.Context) error {
	var in app.ListAddressesInput
	err := echo.QueryParamsBinder(c).
		Int64("person_id", &in.PersonID).
		Int("offset", &in.Offset).
		Int("limit", &in.Limit).
		BindError()
	if err != nil {
		return badRequest(c, "person_id, offset and limit must be integers")
	}

	out, err := h.addresses.List(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *AddressHandler) UpdateAddress(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id must be an integer")
	}

	var in app.UpdateAddressInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	in.ID = id

	out, err := h.addresses.Update(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *AddressHandler) DeleteAddress(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id must be an integer")
	}

	if err := h.addresses.Delete(c.Request().Context(), app.DeleteAddressInput{ID: id}); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
