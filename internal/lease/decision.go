package lease

import (
	"cloud.google.com/go/civil"
	"github.com/kryptonation/creamrun-sub000/internal/model"
)

// Action is what a sweep should do with an active lease today.
type Action int

const (
	ActionNone Action = iota
	ActionNotifyExpiring
	ActionRenew
	ActionExpire
)

func (a Action) String() string {
	switch a {
	case ActionNotifyExpiring:
		return "notify_expiring"
	case ActionRenew:
		return "renew"
	case ActionExpire:
		return "expire"
	default:
		return "none"
	}
}

const (
	ReasonTermCompleted = "term_completed"
	ReasonNotRenewed    = "not_renewed"
)

// Policy carries the configured renewal rules.
type Policy struct {
	RenewalWindowDays  int
	ExpiringNoticeDays int
	DOVSegmentWeeks    int
	DefaultTermWeeks   int
	ShortTermWeeks     int
}

// Decision is the outcome of Decide.
type Decision struct {
	Action Action
	// Reason is set for ActionExpire.
	Reason string
	// NewEndDate and NewSegment are set for ActionRenew.
	NewEndDate civil.Date
	NewSegment int
}

// Renewable reports whether the lease would be extended when its term ends.
// A DOV lease stops renewing once its last segment is reached.
func Renewable(l *model.Lease) bool {
	if l.Status != model.LeaseStatusActive || !l.AutoRenew {
		return false
	}
	if l.LeaseType == model.LeaseTypeDOV && l.Segment >= l.TotalSegments {
		return false
	}
	return true
}

// TermWeeks returns the length of one renewal term for the lease type.
func (p Policy) TermWeeks(t model.LeaseType) int {
	switch t {
	case model.LeaseTypeDOV:
		return p.DOVSegmentWeeks
	case model.LeaseTypeShortTerm:
		return p.ShortTermWeeks
	default:
		return p.DefaultTermWeeks
	}
}

// NextTerm returns the end date and segment after one renewal.
func (p Policy) NextTerm(l *model.Lease) (civil.Date, int) {
	return l.EndDate.AddDays(p.TermWeeks(l.LeaseType) * 7), l.Segment + 1
}

// Decide evaluates an active lease on the given day.
//
// Renewal is checked first, so a renewable lease is renewed even when the
// sweep runs after its end date. Only leases that will not renew expire.
func Decide(l *model.Lease, today civil.Date, p Policy) Decision {
	if l.Status != model.LeaseStatusActive {
		return Decision{Action: ActionNone}
	}

	daysLeft := l.EndDate.DaysSince(today)

	if Renewable(l) {
		if daysLeft <= p.RenewalWindowDays {
			end, seg := p.NextTerm(l)
			return Decision{Action: ActionRenew, NewEndDate: end, NewSegment: seg}
		}
		return Decision{Action: ActionNone}
	}

	if l.EndDate.Before(today) {
		reason := ReasonNotRenewed
		if l.LeaseType == model.LeaseTypeDOV && l.Segment >= l.TotalSegments {
			reason = ReasonTermCompleted
		}
		return Decision{Action: ActionExpire, Reason: reason}
	}

	if daysLeft <= p.ExpiringNoticeDays && l.ExpiringNotifiedAt == nil {
		return Decision{Action: ActionNotifyExpiring}
	}

	return Decision{Action: ActionNone}
}
