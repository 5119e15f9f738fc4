package authz_adapter

import (
	"github.com/google/wire"

	fundsPorts "github.com/philly/school-finance/backend/internal/funds/ports"
)

// ProviderSet is the wire provider set for the authorization adapter
var ProviderSet = wire.NewSet(
	NewAuthzAdapter,
	wire.Bind(new(fundsPorts.Authorizer), new(*AuthzAdapter)),
)
