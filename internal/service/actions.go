package service

import (
	"context"
	"fmt"
	"strconv"

	"tuition-credits/internal/action"
	"tuition-credits/internal/ledger"
	"tuition-credits/internal/model"
)

// ApplyToJob charges a teacher for applying to a job. The teacher's account
// is created on first use.
func (s *Service) ApplyToJob(ctx context.Context, teacherID, jobID string) (*model.Transaction, error) {
	if err := s.ensureRole(ctx, action.ApplyJob, teacherID); err != nil {
		return nil, err
	}
	return s.charge(ctx, action.ApplyJob, teacherID, &model.Reference{Kind: model.RefJob, ID: jobID})
}

// PostJob charges a guardian for posting a job. The guardian's account is
// created on first use.
func (s *Service) PostJob(ctx context.Context, guardianID, jobID string) (*model.Transaction, error) {
	if err := s.ensureRole(ctx, action.PostJob, guardianID); err != nil {
		return nil, err
	}
	return s.charge(ctx, action.PostJob, guardianID, &model.Reference{Kind: model.RefJob, ID: jobID})
}

// HireCounterpart charges a guardian for sending a hire invitation to a
// teacher for a job.
func (s *Service) HireCounterpart(ctx context.Context, guardianID, teacherID, jobID string) (*model.Transaction, error) {
	if guardianID == teacherID {
		return nil, ErrSameParticipant
	}
	if err := s.ensureRole(ctx, action.HireInvitation, guardianID); err != nil {
		return nil, err
	}
	return s.charge(ctx, action.HireInvitation, guardianID,
		&model.Reference{Kind: model.RefJob, ID: jobID, Counterpart: teacherID})
}

// ContactCounterpart charges fromID for viewing toID's contact details.
// fromID must already have an account.
func (s *Service) ContactCounterpart(ctx context.Context, fromID, toID string) (*model.Transaction, error) {
	if fromID == toID {
		return nil, ErrSameParticipant
	}
	return s.charge(ctx, action.ContactView, fromID, &model.Reference{Kind: model.RefUser, ID: toID})
}

// ScheduleVideoMeeting charges both participants the meeting cost. Either
// both are charged or neither is.
func (s *Service) ScheduleVideoMeeting(ctx context.Context, userID1, userID2 string) ([]model.Transaction, error) {
	if userID1 == userID2 {
		return nil, ErrSameParticipant
	}
	c := action.MustLookup(action.VideoMeeting)
	return s.engine.DebitAll(ctx,
		ledger.DebitRequest{
			UserID: userID1, Amount: c.Amount, Reason: c.Reason,
			RelatedTo: &model.Reference{Kind: model.RefUser, ID: userID2},
		},
		ledger.DebitRequest{
			UserID: userID2, Amount: c.Amount, Reason: c.Reason,
			RelatedTo: &model.Reference{Kind: model.RefUser, ID: userID1},
		},
	)
}

// GrantReward credits a one-time profile or verification reward.
// A second grant fails with ledger.ErrRewardAlreadyGranted.
func (s *Service) GrantReward(ctx context.Context, userID string, a action.Action) (*model.Transaction, error) {
	if !action.IsReward(a) {
		return nil, ErrUnknownAction
	}
	c := action.MustLookup(a)
	return s.engine.CreditOnce(ctx, ledger.CreditRequest{
		UserID: userID,
		Amount: c.Amount,
		Type:   c.Type,
		Reason: c.Reason,
	})
}

// RecordTuitionMilestone credits the reward for reaching count confirmed
// tuitions. Counts that are not milestones fail with ErrNotAMilestone; each
// milestone pays once.
func (s *Service) RecordTuitionMilestone(ctx context.Context, userID string, count int) (*model.Transaction, error) {
	c, ok := action.MilestoneFor(count)
	if !ok {
		return nil, ErrNotAMilestone
	}
	return s.engine.CreditOnce(ctx, ledger.CreditRequest{
		UserID:    userID,
		Amount:    c.Amount,
		Type:      c.Type,
		Reason:    c.Reason,
		RelatedTo: &model.Reference{Kind: model.RefMilestone, ID: strconv.Itoa(count)},
	})
}

// ensureRole creates userID's account with the action's role on first use
// and rejects existing accounts of another role.
func (s *Service) ensureRole(ctx context.Context, a action.Action, userID string) error {
	c := action.MustLookup(a)
	acct, err := s.GetOrCreateAccount(ctx, userID, c.Role)
	if err != nil {
		return err
	}
	if acct.UserType != c.Role {
		return fmt.Errorf("%w: %s is a %s", ErrActionRoleMismatch, userID, acct.UserType)
	}
	return nil
}

func (s *Service) charge(ctx context.Context, a action.Action, userID string, ref *model.Reference) (*model.Transaction, error) {
	c := action.MustLookup(a)
	return s.engine.Debit(ctx, ledger.DebitRequest{
		UserID:    userID,
		Amount:    c.Amount,
		Reason:    c.Reason,
		RelatedTo: ref,
	})
}
