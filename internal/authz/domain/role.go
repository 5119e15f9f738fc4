package domain

import (
	"errors"
	"sort"

	"github.com/philly/school-finance/backend/internal/authz/permission"
)

var ErrUnknownRole = errors.New("unknown role")

// Grants maps a staff role name to the permissions it carries.
// Roles are fixed; changing what a role may do is a code change.
type Grants map[string]map[string]struct{}

// DefaultGrants returns the built-in role grants.
func DefaultGrants() Grants {
	all := make([]string, 0)
	for _, p := range permission.All() {
		all = append(all, p.ID)
	}

	return NewGrants(map[string][]string{
		"admin": all,
		"bursar": {
			permission.StaffRead,
			permission.PayrollGenerate, permission.PayrollRun, permission.PayrollApprove, permission.PayrollReadAny,
			permission.FundsCreate, permission.FundsReadAny, permission.FundsUpdateOwn, permission.FundsApprove, permission.FundsUsageAny,
			permission.StudentsRead,
			permission.BillingCreate, permission.BillingRead, permission.BillingPaymentsRecord, permission.BillingPaymentsApprove,
			permission.ReportsGenerate, permission.ReportsClose, permission.ReportsRead,
		},
		"registrar": {
			permission.PayrollReadOwn,
			permission.FundsCreate, permission.FundsReadOwn, permission.FundsUpdateOwn, permission.FundsUsageOwn,
			permission.StudentsCreate, permission.StudentsRead, permission.StudentsEnroll,
			permission.BillingRead, permission.BillingPaymentsRecord,
		},
		"teacher": {
			permission.PayrollReadOwn,
			permission.FundsCreate, permission.FundsReadOwn, permission.FundsUpdateOwn, permission.FundsUsageOwn,
		},
	})
}

// NewGrants builds Grants from role → permission ID lists.
func NewGrants(roles map[string][]string) Grants {
	g := make(Grants, len(roles))
	for role, perms := range roles {
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		g[role] = set
	}
	return g
}

// Allows reports whether role carries permissionID.
func (g Grants) Allows(role, permissionID string) (bool, error) {
	perms, ok := g[role]
	if !ok {
		return false, ErrUnknownRole
	}
	_, has := perms[permissionID]
	return has, nil
}

// PermissionsOf lists the permissions of role.
func (g Grants) PermissionsOf(role string) []string {
	out := make([]string, 0, len(g[role]))
	for p := range g[role] {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Roles lists the role names in alphabetical order.
func (g Grants) Roles() []string {
	out := make([]string, 0, len(g))
	for role := range g {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}
