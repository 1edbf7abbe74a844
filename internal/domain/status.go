package domain

import "time"

// EffectiveStatus derives the status a caller should observe at the given
// time. A ticket persisted as awaiting-confirmation whose timeout has
// elapsed reads as auto-completed even though no write has happened yet;
// every other status passes through unchanged. There is no background
// sweeper: this lazy promotion is the only expiry mechanism.
func EffectiveStatus(t *Ticket, now time.Time) TicketStatus {
	if t.Status == TicketStatusAwaitingConfirmation &&
		t.AutoCompleteTimeoutAt != nil &&
		now.After(*t.AutoCompleteTimeoutAt) {
		return TicketStatusAutoCompleted
	}
	return t.Status
}

// IsCompletedStatus reports whether an effective status belongs to the
// completed family: completed, auto-completed or pending-payment.
func IsCompletedStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusCompleted, TicketStatusAutoCompleted, TicketStatusPendingPayment:
		return true
	default:
		return false
	}
}

// IsCompletedFamily is the single definition of "done" used for rating
// eligibility and new-ticket eligibility. It includes the lazily-expired
// awaiting-confirmation case via EffectiveStatus.
func IsCompletedFamily(t *Ticket, now time.Time) bool {
	return IsCompletedStatus(EffectiveStatus(t, now))
}
