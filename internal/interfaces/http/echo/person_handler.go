package echo

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	app "github.com/mohammadpnp/person-registry/internal/application/person"
)

type PersonHandler struct {
	persons   app.PersonService
	addresses app.AddressService
	responder
}

func NewPersonHandler(persons app.PersonService, addresses app.AddressService, retryAfter time.Duration) *PersonHandler {
	return &PersonHandler{
		persons:   persons,
		addresses: addresses,
		responder: newResponder(retryAfter),
	}
}

func (h *PersonHandler) CreatePerson(c echo.Context) error {
	var in app.CreatePersonInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}

	out, err := h.persons.Create(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, apiResponse{Data: out})
}

func (h *PersonHandler) GetPerson(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id must be an integer")
	}

	out, err := h.persons.Get(c.Request().Context(), app.GetPersonInput{ID: id})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *PersonHandler) ListPersons(c echo.Context) error {
	offset, limit, ok := pageQuery(c)
	if !ok {
		return badRequest(c, "offset and limit must be integers")
	}

	out, err := h.persons.List(c.Request().Context(), app.ListPersonsInput{Offset: offset, Limit: limit})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *PersonHandler) UpdatePerson(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id must be an integer")
	}

	var in app.UpdatePersonInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	in.ID = id

	out, err := h.persons.Update(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

// DeletePerson answers 204 and reports cascaded addresses in a header.
func (h *PersonHandler) DeletePerson(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id must be an integer")
	}

	out, err := h.persons.Delete(c.Request().Context(), app.DeletePersonInput{ID: id})
	if err != nil {
		return h.fail(c, err)
	}
	c.Response().Header().Set("X-Addresses-Deleted", strconv.FormatInt(out.AddressesDeleted, 10))
	return c.NoContent(http.StatusNoContent)
}

func (h *PersonHandler) ListPersonAddresses(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "id must be an integer")
	}
	if id <= 0 {
		return h.fail(c, app.ErrPersonNotFound)
	}
	offset, limit, ok := pageQuery(c)
	if !ok {
		return badRequest(c, "offset and limit must be integers")
	}

	out, err := h.addresses.List(c.Request().Context(), app.ListAddressesInput{
		PersonID: id,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
