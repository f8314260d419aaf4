// Package action holds the fixed table of platform actions and their credit
// costs or rewards.
package action

import "tuition-credits/internal/model"

// Action names a platform action with a fixed credit effect.
type Action string

// Platform actions.
const (
	SignupTeacher   Action = "signup_teacher"
	SignupGuardian  Action = "signup_guardian"
	ApplyJob        Action = "apply_job"
	PostJob         Action = "post_job"
	ContactView     Action = "contact"
	HireInvitation  Action = "hire"
	VideoMeeting    Action = "video_meeting"
	ProfileComplete Action = "profile_complete"
	VerifyPhone     Action = "verify_phone"
	VerifyEmail     Action = "verify_email"
	VerifyNID       Action = "verify_nid"
	VerifyEducation Action = "verify_education"
	FirstTuition    Action = "milestone_first_tuition"
	TenthTuition    Action = "milestone_10_tuitions"
	FiftiethTuition Action = "milestone_50_tuitions"
	HundredTuition  Action = "milestone_100_tuitions"
)

// Direction says whether an action adds or removes credits.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// Cost is the fixed credit effect of one action.
type Cost struct {
	Action    Action           `json:"action"`
	Amount    int64            `json:"amount"`
	Direction Direction        `json:"direction"`
	Type      model.TxType     `json:"type"`
	Reason    model.ReasonCode `json:"reasonCode"`
	// Role restricts who performs the action. Empty means any role.
	Role model.UserType `json:"role,omitempty"`
	// OneTime rewards may be granted once per account.
	OneTime bool `json:"oneTime,omitempty"`
	// Milestone is the tuition count that triggers a milestone reward.
	Milestone int `json:"milestone,omitempty"`
}

var costs = map[Action]Cost{
	SignupTeacher: {
		Action: SignupTeacher, Amount: 50, Direction: Credit, Type: model.TxEarned,
		Reason: model.ReasonSignupBonus, Role: model.UserTeacher, OneTime: true,
	},
	SignupGuardian: {
		Action: SignupGuardian, Amount: 100, Direction: Credit, Type: model.TxEarned,
		Reason: model.ReasonSignupBonus, Role: model.UserGuardian, OneTime: true,
	},
	ApplyJob: {
		Action: ApplyJob, Amount: 10, Direction: Debit, Type: model.TxSpent,
		Reason: model.ReasonJobApplication, Role: model.UserTeacher,
	},
	PostJob: {
		Action: PostJob, Amount: 10, Direction: Debit, Type: model.TxSpent,
		Reason: model.ReasonJobPost, Role: model.UserGuardian,
	},
	ContactView: {
		Action: ContactView, Amount: 5, Direction: Debit, Type: model.TxSpent,
		Reason: model.ReasonContactView,
	},
	HireInvitation: {
		Action: HireInvitation, Amount: 5, Direction: Debit, Type: model.TxSpent,
		Reason: model.ReasonHireInvitation, Role: model.UserGuardian,
	},
	VideoMeeting: {
		Action: VideoMeeting, Amount: 20, Direction: Debit, Type: model.TxSpent,
		Reason: model.ReasonVideoMeeting,
	},
	ProfileComplete: {
		Action: ProfileComplete, Amount: 20, Direction: Credit, Type: model.TxBonus,
		Reason: model.ReasonProfileComplete, OneTime: true,
	},
	VerifyPhone: {
		Action: VerifyPhone, Amount: 5, Direction: Credit, Type: model.TxBonus,
		Reason: model.ReasonPhoneVerified, OneTime: true,
	},
	VerifyEmail: {
		Action: VerifyEmail, Amount: 5, Direction: Credit, Type: model.TxBonus,
		Reason: model.ReasonEmailVerified, OneTime: true,
	},
	VerifyNID: {
		Action: VerifyNID, Amount: 20, Direction: Credit, Type: model.TxBonus,
		Reason: model.ReasonNIDVerified, OneTime: true,
	},
	VerifyEducation: {
		Action: VerifyEducation, Amount: 10, Direction: Credit, Type: model.TxBonus,
		Reason: model.ReasonEducationVerified, OneTime: true,
	},
	FirstTuition: {
		Action: FirstTuition, Amount: 20, Direction: Credit, Type: model.TxEarned,
		Reason: model.ReasonTuitionMilestone, OneTime: true, Milestone: 1,
	},
	TenthTuition: {
		Action: TenthTuition, Amount: 50, Direction: Credit, Type: model.TxEarned,
		Reason: model.ReasonTuitionMilestone, OneTime: true, Milestone: 10,
	},
	FiftiethTuition: {
		Action: FiftiethTuition, Amount: 100, Direction: Credit, Type: model.TxEarned,
		Reason: model.ReasonTuitionMilestone, OneTime: true, Milestone: 50,
	},
	HundredTuition: {
		Action: HundredTuition, Amount: 200, Direction: Credit, Type: model.TxEarned,
		Reason: model.ReasonTuitionMilestone, OneTime: true, Milestone: 100,
	},
}

// display order
var order = []Action{
	SignupTeacher,
	SignupGuardian,
	ApplyJob,
	PostJob,
	ContactView,
	HireInvitation,
	VideoMeeting,
	ProfileComplete,
	VerifyPhone,
	VerifyEmail,
	VerifyNID,
	VerifyEducation,
	FirstTuition,
	TenthTuition,
	FiftiethTuition,
	HundredTuition,
}

// All returns every action cost in display order.
func All() []Cost {
	out := make([]Cost, 0, len(order))
	for _, a := range order {
		if c, ok := costs[a]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Lookup returns the cost of an action.
func Lookup(a Action) (Cost, bool) {
	c, ok := costs[a]
	return c, ok
}

// MustLookup is Lookup for actions declared in this package.
func MustLookup(a Action) Cost {
	c, ok := costs[a]
	if !ok {
		panic("action: unknown action " + string(a))
	}
	return c
}

// SignupBonus returns the credits granted when an account of the given
// role is created. Roles without a signup action get zero.
func SignupBonus(userType model.UserType) int64 {
	switch userType {
	case model.UserTeacher:
		return costs[SignupTeacher].Amount
	case model.UserGuardian:
		return costs[SignupGuardian].Amount
	}
	return 0
}

// MilestoneFor returns the milestone reward triggered by reaching count
// confirmed tuitions, if any.
func MilestoneFor(count int) (Cost, bool) {
	for _, a := range order {
		c := costs[a]
		if c.Milestone > 0 && c.Milestone == count {
			return c, true
		}
	}
	return Cost{}, false
}

// Rewards returns the one-time verification and profile rewards that can be
// granted by name.
func Rewards() []Cost {
	var out []Cost
	for _, c := range All() {
		if c.Direction == Credit && c.Type == model.TxBonus {
			out = append(out, c)
		}
	}
	return out
}

// IsReward reports whether a names a grantable verification or profile reward.
func IsReward(a Action) bool {
	c, ok := costs[a]
	return ok && c.Direction == Credit && c.Type == model.TxBonus
}
