package application

import "github.com/google/wire"

// ProviderSet is the wire provider set for the balance sheet application layer
var ProviderSet = wire.NewSet(
	NewBalanceSheetService,
)
