package lease

import (
	"testing"
	"time"

	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/stretchr/testify/assert"
)

var testPolicy = Policy{
	RenewalWindowDays:  7,
	ExpiringNoticeDays: 14,
	DOVSegmentWeeks:    26,
	DefaultTermWeeks:   52,
	ShortTermWeeks:     4,
}

func activeLease(t model.LeaseType, autoRenew bool, segment, total int) *model.Lease {
	return &model.Lease{
		LeaseType:     t,
		Status:        model.LeaseStatusActive,
		StartDate:     date(2024, 1, 7),
		EndDate:       date(2024, 7, 6),
		AutoRenew:     autoRenew,
		Segment:       segment,
		TotalSegments: total,
	}
}

func TestDecide(t *testing.T) {
	notified := time.Date(2024, 6, 25, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		lease      func() *model.Lease
		today      func() (y int, m time.Month, d int)
		wantAction Action
		wantReason string
		wantEnd    string
		wantSeg    int
	}{
		{
			name:       "dov inside renewal window renews one segment",
			lease:      func() *model.Lease { return activeLease(model.LeaseTypeDOV, true, 1, 8) },
			today:      func() (int, time.Month, int) { return 2024, 7, 1 },
			wantAction: ActionRenew,
			wantEnd:    "2025-01-04",
			wantSeg:    2,
		},
		{
			name:       "renewal wins over expiry when past end date",
			lease:      func() *model.Lease { return activeLease(model.LeaseTypeLongTerm, true, 1, 1) },
			today:      func() (int, time.Month, int) { return 2024, 7, 10 },
			wantAction: ActionRenew,
			wantEnd:    "2025-07-05",
			wantSeg:    2,
		},
		{
			name:       "renewable lease outside window does nothing",
			lease:      func() *model.Lease { return activeLease(model.LeaseTypeDOV, true, 1, 8) },
			today:      func() (int, time.Month, int) { return 2024, 6, 1 },
			wantAction: ActionNone,
		},
		{
			name:       "dov last segment expires as term completed",
			lease:      func() *model.Lease { return activeLease(model.LeaseTypeDOV, true, 8, 8) },
			today:      func() (int, time.Month, int) { return 2024, 7, 7 },
			wantAction: ActionExpire,
			wantReason: ReasonTermCompleted,
		},
		{
			name:       "no auto renew expires as not renewed",
			lease:      func() *model.Lease { return activeLease(model.LeaseTypeShortTerm, false, 1, 1) },
			today:      func() (int, time.Month, int) { return 2024, 7, 7 },
			wantAction: ActionExpire,
			wantReason: ReasonNotRenewed,
		},
		{
			name:       "end date itself is not yet expired",
			lease:      func() *model.Lease { return activeLease(model.LeaseTypeShortTerm, false, 1, 1) },
			today:      func() (int, time.Month, int) { return 2024, 7, 6 },
			wantAction: ActionNotifyExpiring,
		},
		{
			name:       "expiring notice inside notice window",
			lease:      func() *model.Lease { return activeLease(model.LeaseTypeLongTerm, false, 1, 1) },
			today:      func() (int, time.Month, int) { return 2024, 6, 25 },
			wantAction: ActionNotifyExpiring,
		},
		{
			name: "expiring notice sent only once",
			lease: func() *model.Lease {
				l := activeLease(model.LeaseTypeLongTerm, false, 1, 1)
				l.ExpiringNotifiedAt = &notified
				return l
			},
			today:      func() (int, time.Month, int) { return 2024, 6, 30 },
			wantAction: ActionNone,
		},
		{
			name:       "far from end does nothing",
			lease:      func() *model.Lease { return activeLease(model.LeaseTypeLongTerm, false, 1, 1) },
			today:      func() (int, time.Month, int) { return 2024, 3, 1 },
			wantAction: ActionNone,
		},
		{
			name: "non active lease is ignored",
			lease: func() *model.Lease {
				l := activeLease(model.LeaseTypeLongTerm, false, 1, 1)
				l.Status = model.LeaseStatusTerminated
				return l
			},
			today:      func() (int, time.Month, int) { return 2024, 8, 1 },
			wantAction: ActionNone,
		},
		{
			name:       "short term renews by short term weeks",
			lease:      func() *model.Lease { return activeLease(model.LeaseTypeShortTerm, true, 3, 0) },
			today:      func() (int, time.Month, int) { return 2024, 7, 6 },
			wantAction: ActionRenew,
			wantEnd:    "2024-08-03",
			wantSeg:    4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.lease(), date(tt.today()), testPolicy)

			assert.Equal(t, tt.wantAction, got.Action, "action %s", got.Action)
			assert.Equal(t, tt.wantReason, got.Reason)
			if tt.wantAction == ActionRenew {
				assert.Equal(t, tt.wantEnd, got.NewEndDate.String())
				assert.Equal(t, tt.wantSeg, got.NewSegment)
			}
		})
	}
}

func TestRenewable(t *testing.T) {
	assert.True(t, Renewable(activeLease(model.LeaseTypeDOV, true, 7, 8)))
	assert.False(t, Renewable(activeLease(model.LeaseTypeDOV, true, 8, 8)))
	assert.False(t, Renewable(activeLease(model.LeaseTypeLongTerm, false, 1, 1)))
	assert.True(t, Renewable(activeLease(model.LeaseTypeMedallionOnly, true, 5, 1)))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "renew", ActionRenew.String())
	assert.Equal(t, "expire", ActionExpire.String())
	assert.Equal(t, "notify_expiring", ActionNotifyExpiring.String())
	assert.Equal(t, "none", ActionNone.String())
}
