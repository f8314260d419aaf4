package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuition-credits/internal/model"
)

func TestCostTable(t *testing.T) {
	tests := []struct {
		action    Action
		amount    int64
		direction Direction
	}{
		{SignupTeacher, 50, Credit},
		{SignupGuardian, 100, Credit},
		{ApplyJob, 10, Debit},
		{PostJob, 10, Debit},
		{ContactView, 5, Debit},
		{HireInvitation, 5, Debit},
		{VideoMeeting, 20, Debit},
		{ProfileComplete, 20, Credit},
		{VerifyPhone, 5, Credit},
		{VerifyEmail, 5, Credit},
		{VerifyNID, 20, Credit},
		{VerifyEducation, 10, Credit},
		{FirstTuition, 20, Credit},
		{TenthTuition, 50, Credit},
		{FiftiethTuition, 100, Credit},
		{HundredTuition, 200, Credit},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			c, ok := Lookup(tt.action)
			require.True(t, ok)
			assert.Equal(t, tt.amount, c.Amount)
			assert.Equal(t, tt.direction, c.Direction)
			if tt.direction == Debit {
				assert.Equal(t, model.TxSpent, c.Type)
			} else {
				assert.True(t, c.Type.IsCredit())
			}
		})
	}
}

func TestAll_DisplayOrderCoversTable(t *testing.T) {
	all := All()
	assert.Len(t, all, len(costs))
	assert.Equal(t, SignupTeacher, all[0].Action)
	assert.Equal(t, HundredTuition, all[len(all)-1].Action)
}

func TestSignupBonus(t *testing.T) {
	assert.Equal(t, int64(50), SignupBonus(model.UserTeacher))
	assert.Equal(t, int64(100), SignupBonus(model.UserGuardian))
	assert.Equal(t, int64(0), SignupBonus(model.UserStudent))
	assert.Equal(t, int64(0), SignupBonus(model.UserAdmin))
}

func TestMilestoneFor(t *testing.T) {
	for count, amount := range map[int]int64{1: 20, 10: 50, 50: 100, 100: 200} {
		c, ok := MilestoneFor(count)
		require.True(t, ok, "count %d", count)
		assert.Equal(t, amount, c.Amount)
	}

	for _, count := range []int{0, 2, 9, 11, 99, 101} {
		_, ok := MilestoneFor(count)
		assert.False(t, ok, "count %d", count)
	}
}

func TestRewards(t *testing.T) {
	rewards := Rewards()
	require.Len(t, rewards, 5)
	for _, r := range rewards {
		assert.True(t, r.OneTime)
		assert.True(t, IsReward(r.Action))
	}
	assert.False(t, IsReward(ApplyJob))
	assert.False(t, IsReward(FirstTuition))
	assert.False(t, IsReward("nope"))
}

func TestMustLookupPanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { MustLookup("nope") })
	assert.NotPanics(t, func() { MustLookup(VideoMeeting) })
}
