package bootstrap

import (
	"log/slog"

	app "github.com/mohammadpnp/person-registry/internal/application/person"
	"github.com/mohammadpnp/person-registry/internal/config"
	domain "github.com/mohammadpnp/person-registry/internal/domain/person"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/db"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/repository"
	"github.com/mohammadpnp/person-registry/internal/platform/metrics"
)

type Services struct {
	Persons   app.PersonService
	Addresses app.AddressService
}

// NewServices wires the record services onto gateway using the record
// settings.
func NewServices(gateway *db.Gateway, records config.Records, logger *slog.Logger, m *metrics.Metrics) (Services, error) {
	policy, err := records.Policy()
	if err != nil {
		return Services{}, err
	}

	tx := repository.NewTransactor(gateway)
	opts := []app.Option{
		app.WithLogger(logger),
		app.WithMetrics(m),
		app.WithPageLimits(records.DefaultPageLimit, records.MaxPageLimit),
	}

	return Services{
		Persons:   app.NewPersonService(tx, domain.PersonValidator(records.MinNameLength), policy, opts...),
		Addresses: app.NewAddressService(tx, domain.DefaultAddressValidator(), opts...),
	}, nil
}
