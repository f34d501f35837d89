package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, personHandler *PersonHandler, addressHandler *AddressHandler) {
	persons := server.Group("/persons")
	persons.POST("", personHandler.CreatePerson)
	persons.GET("", personHandler.ListPersons)
	persons.GET("/:id", personHandler.GetPerson)
	persons.PATCH("/:id", personHandler.UpdatePerson)
	persons.DELETE("/:id", personHandler.DeletePerson)
	persons.GET("/:id/addresses", personHandler.ListPersonAddresses)

	addresses := server.Group("/addresses")
	addresses.POST("", addressHandler.CreateAddress)
	addresses.GET("", addressHandler.ListAddresses)
	addresses.GET("/:id", addressHandler.GetAddress)
	addresses.PATCH("/:id", addressHandler.UpdateAddress)
	addresses.DELETE("/:id", addressHandler.DeleteAddress)
}
