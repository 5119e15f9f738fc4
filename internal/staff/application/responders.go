package application

import (
	"context"
	"errors"
	"strings"

	"github.com/philly/school-finance/backend/internal/platform/eventbus"
	"github.com/philly/school-finance/backend/internal/platform/events"
	"github.com/philly/school-finance/backend/internal/staff/ports"
)

// RegisterStaffResponders answers the staff exchanges on bus.
func RegisterStaffResponders(bus *eventbus.Bus, svc *StaffService) {
	eventbus.RespondExclusive(bus, events.StaffMemberExchange,
		func(ctx context.Context, req events.StaffMemberRequest) (events.StaffMember, error) {
			staff, err := svc.GetStaff(ctx, req.StaffID)
			if err != nil {
				return events.StaffMember{}, err
			}
			return toStaffMember(staff), nil
		})

	eventbus.RespondExclusive(bus, events.StaffLookupExchange,
		func(ctx context.Context, req events.StaffLookupRequest) (events.StaffMember, error) {
			staff, err := svc.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
			if errors.Is(err, ports.ErrStaffNotFound) {
				return events.StaffMember{}, ErrStaffNotFound
			}
			if err != nil {
				return events.StaffMember{}, err
			}
			return toStaffMember(staff), nil
		})

	eventbus.RespondExclusive(bus, events.ActiveStaffExchange,
		func(ctx context.Context, _ events.ActiveStaffRequest) (events.ActiveStaff, error) {
			staff, err := svc.repo.List(ctx, ports.ListFilter{ActiveOnly: true})
			if err != nil {
				return events.ActiveStaff{}, err
			}
			out := events.ActiveStaff{Members: make([]events.StaffMember, 0, len(staff))}
			for _, s := range staff {
				out.Members = append(out.Members, toStaffMember(s))
			}
			return out, nil
		})

	eventbus.RespondExclusive(bus, events.StaffRoleExchange,
		func(ctx context.Context, req events.StaffRoleRequest) (events.StaffRole, error) {
			staff, err := svc.GetStaff(ctx, req.StaffID)
			if err != nil {
				return events.StaffRole{}, err
			}
			return events.StaffRole{StaffID: staff.ID, Role: string(staff.Role), Active: staff.Active}, nil
		})
}
