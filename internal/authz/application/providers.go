package application

import (
	"github.com/google/wire"

	"github.com/philly/school-finance/backend/internal/authz/domain"
)

// ProviderSet wires the authorization service with the built-in role grants
var ProviderSet = wire.NewSet(
	domain.DefaultGrants,
	NewAuthzService,
)
