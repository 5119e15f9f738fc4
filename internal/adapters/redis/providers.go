package redis

import (
	"github.com/google/wire"

	"github.com/philly/school-finance/backend/internal/balancesheet/ports"
)

// ProviderSet binds the redis adapters to their ports. The cache itself is
// built by the server, which owns the TTL setting.
var ProviderSet = wire.NewSet(
	wire.Bind(new(ports.SheetCache), new(*BalanceSheetCache)),
)
