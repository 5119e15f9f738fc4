package rest

import (
	"github.com/google/wire"
)

// ProviderSet is the wire provider set for REST handlers
var ProviderSet = wire.NewSet(
	NewBaseHandler,
	NewStaffHandler,
	NewPayrollHandler,
	NewFundsHandler,
	NewEnrollmentHandler,
	NewBillingHandler,
	NewBalanceSheetHandler,
	NewAuthzHandler,
)
