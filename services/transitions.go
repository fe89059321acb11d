package services

import (
	"github.com/medorbit/telecare/models"
)

// TransitionTable maps (actor role, current status) to the statuses that role
// may move an appointment to. It is built once at startup and consulted under
// the appointment row lock, so the check-then-act is atomic with respect to
// other transactions.
type TransitionTable map[models.ActorRole]map[models.AppointmentStatus][]models.AppointmentStatus

func DefaultTransitionTable() TransitionTable {
	return TransitionTable{
		models.RolePatient: {
			models.AppointmentStatusPending:   {models.AppointmentStatusCancelled},
			models.AppointmentStatusConfirmed: {models.AppointmentStatusCancelled},
		},
		models.RoleDoctor: {
			models.AppointmentStatusPending:    {models.AppointmentStatusConfirmed, models.AppointmentStatusRejected},
			models.AppointmentStatusConfirmed:  {models.AppointmentStatusInProgress, models.AppointmentStatusCancelled},
			models.AppointmentStatusInProgress: {models.AppointmentStatusCompleted},
		},
		models.RoleAdmin: {
			models.AppointmentStatusPending:    {models.AppointmentStatusConfirmed, models.AppointmentStatusCancelled, models.AppointmentStatusRejected},
			models.AppointmentStatusConfirmed:  {models.AppointmentStatusInProgress, models.AppointmentStatusCancelled},
			models.AppointmentStatusInProgress: {models.AppointmentStatusCompleted, models.AppointmentStatusCancelled},
		},
	}
}

// Allowed returns the statuses role may reach from current. Terminal statuses
// have no entries.
func (t TransitionTable) Allowed(role models.ActorRole, current models.AppointmentStatus) []models.AppointmentStatus {
	byStatus, ok := t[role]
	if !ok {
		return nil
	}
	return byStatus[current]
}

func (t TransitionTable) CanTransition(role models.ActorRole, current, next models.AppointmentStatus) bool {
	for _, allowed := range t.Allowed(role, current) {
		if allowed == next {
			return true
		}
	}
	return false
}
