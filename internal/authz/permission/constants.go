package permission

import "strings"

// Permission represents a structured permission with metadata
type Permission struct {
	ID          string // The permission identifier (e.g., "payroll:approve")
	Resource    string // The resource being accessed (e.g., "payroll")
	Action      string // The action being performed (e.g., "approve")
	Scope       string // Optional scope qualifier: "own" or "any"
	Description string
}

// Permission ID constants
const (
	// Staff permissions
	StaffCreate     = "staff:create"
	StaffRead       = "staff:read"
	StaffUpdate     = "staff:update"
	StaffDeactivate = "staff:deactivate"

	// Payroll permissions
	PayrollGenerate = "payroll:generate"
	PayrollRun      = "payroll:run"
	PayrollApprove  = "payroll:approve"
	PayrollReadOwn  = "payroll:read:own"
	PayrollReadAny  = "payroll:read:any"

	// Funds permissions
	FundsCreate    = "funds:create"
	FundsReadOwn   = "funds:read:own"
	FundsReadAny   = "funds:read:any"
	FundsUpdateOwn = "funds:update:own"
	FundsUpdateAny = "funds:update:any"
	FundsApprove   = "funds:approve"
	FundsUsageOwn  = "funds:usage:own"
	FundsUsageAny  = "funds:usage:any"

	// Enrollment permissions
	StudentsCreate = "students:create"
	StudentsRead   = "students:read"
	StudentsEnroll = "students:enroll"

	// Billing permissions
	BillingCreate          = "billing:create"
	BillingRead            = "billing:read"
	BillingPaymentsRecord  = "billing:payments:record"
	BillingPaymentsApprove = "billing:payments:approve"

	// Balance sheet permissions
	ReportsGenerate = "reports:generate"
	ReportsClose    = "reports:close"
	ReportsRead     = "reports:read"
)

// registry holds all structured Permission objects
var registry = map[string]*Permission{
	StaffCreate:     {ID: StaffCreate, Resource: "staff", Action: "create", Description: "Create staff members"},
	StaffRead:       {ID: StaffRead, Resource: "staff", Action: "read", Description: "Read staff records"},
	StaffUpdate:     {ID: StaffUpdate, Resource: "staff", Action: "update", Description: "Update staff profile, role and salary"},
	StaffDeactivate: {ID: StaffDeactivate, Resource: "staff", Action: "deactivate", Description: "Deactivate staff members"},

	PayrollGenerate: {ID: PayrollGenerate, Resource: "payroll", Action: "generate", Description: "Generate a payslip"},
	PayrollRun:      {ID: PayrollRun, Resource: "payroll", Action: "run", Description: "Run monthly payroll for all active staff"},
	PayrollApprove:  {ID: PayrollApprove, Resource: "payroll", Action: "approve", Description: "Approve payslips"},
	PayrollReadOwn:  {ID: PayrollReadOwn, Resource: "payroll", Action: "read", Scope: "own", Description: "Read own payslips"},
	PayrollReadAny:  {ID: PayrollReadAny, Resource: "payroll", Action: "read", Scope: "any", Description: "Read any payslip"},

	FundsCreate:    {ID: FundsCreate, Resource: "funds", Action: "create", Description: "Submit fund requests"},
	FundsReadOwn:   {ID: FundsReadOwn, Resource: "funds", Action: "read", Scope: "own", Description: "Read own fund requests"},
	FundsReadAny:   {ID: FundsReadAny, Resource: "funds", Action: "read", Scope: "any", Description: "Read any fund request"},
	FundsUpdateOwn: {ID: FundsUpdateOwn, Resource: "funds", Action: "update", Scope: "own", Description: "Edit own pending fund requests"},
	FundsUpdateAny: {ID: FundsUpdateAny, Resource: "funds", Action: "update", Scope: "any", Description: "Edit any pending fund request"},
	FundsApprove:   {ID: FundsApprove, Resource: "funds", Action: "approve", Description: "Approve or reject fund requests"},
	FundsUsageOwn:  {ID: FundsUsageOwn, Resource: "funds", Action: "usage", Scope: "own", Description: "Record spending against own requests"},
	FundsUsageAny:  {ID: FundsUsageAny, Resource: "funds", Action: "usage", Scope: "any", Description: "Record spending against any request"},

	StudentsCreate: {ID: StudentsCreate, Resource: "students", Action: "create", Description: "Register students"},
	StudentsRead:   {ID: StudentsRead, Resource: "students", Action: "read", Description: "Read student records"},
	StudentsEnroll: {ID: StudentsEnroll, Resource: "students", Action: "enroll", Description: "Enroll and withdraw students"},

	BillingCreate:          {ID: BillingCreate, Resource: "billing", Action: "create", Description: "Issue bills"},
	BillingRead:            {ID: BillingRead, Resource: "billing", Action: "read", Description: "Read bills and payments"},
	BillingPaymentsRecord:  {ID: BillingPaymentsRecord, Resource: "billing", Action: "payments:record", Description: "Record incoming payments"},
	BillingPaymentsApprove: {ID: BillingPaymentsApprove, Resource: "billing", Action: "payments:approve", Description: "Approve recorded payments"},

	ReportsGenerate: {ID: ReportsGenerate, Resource: "reports", Action: "generate", Description: "Generate balance sheets"},
	ReportsClose:    {ID: ReportsClose, Resource: "reports", Action: "close", Description: "Close a year and snapshot its balance sheet"},
	ReportsRead:     {ID: ReportsRead, Resource: "reports", Action: "read", Description: "Read balance sheet snapshots"},
}

// FromID looks up a permission by its ID and returns the structured Permission object
func FromID(id string) (*Permission, bool) {
	perm, exists := registry[id]
	return perm, exists
}

// All returns all registered permissions
func All() []*Permission {
	result := make([]*Permission, 0, len(registry))
	for _, perm := range registry {
		result = append(result, perm)
	}
	return result
}

// ByResource returns all permissions for a specific resource
func ByResource(resource string) []*Permission {
	var result []*Permission
	for _, perm := range registry {
		if perm.Resource == resource {
			result = append(result, perm)
		}
	}
	return result
}

// IsOwnershipBased returns true if the permission includes ownership scope
func IsOwnershipBased(permissionID string) bool {
	return strings.HasSuffix(permissionID, ":own")
}

// AnyOf returns the ":any" counterpart of an ownership-scoped permission.
func AnyOf(permissionID string) string {
	return strings.TrimSuffix(permissionID, ":own") + ":any"
}

// IsValid checks if a permission ID exists in the registry
func IsValid(permissionID string) bool {
	_, exists := registry[permissionID]
	return exists
}
