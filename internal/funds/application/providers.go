package application

import "github.com/google/wire"

// ProviderSet is the wire provider set for the funds application layer
var ProviderSet = wire.NewSet(
	NewFundsService,
)
