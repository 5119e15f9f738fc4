package application

import "github.com/google/wire"

// ProviderSet is the wire provider set for the notifications application layer
var ProviderSet = wire.NewSet(
	NewReceiptNotifier,
)
