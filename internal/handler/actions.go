package handler

import (
	"net/http"

	"tuition-credits/internal/action"
	"tuition-credits/internal/model"
)

type jobActionRequest struct {
	TeacherID  string `json:"teacherId"`
	GuardianID string `json:"guardianId"`
	JobID      string `json:"jobId"`
}

type contactRequest struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
}

type videoMeetingRequest struct {
	UserID1 string `json:"userId1"`
	UserID2 string `json:"userId2"`
}

type rewardRequest struct {
	UserID string        `json:"userId"`
	Action action.Action `json:"action"`
}

type milestoneRequest struct {
	UserID string `json:"userId"`
	Count  int    `json:"count"`
}

// GET /v1/actions
func (h *Handler) handleListActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"actions": action.All()})
}

// POST /v1/actions/apply-job
func (h *Handler) handleApplyJob(w http.ResponseWriter, r *http.Request) {
	var req jobActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := h.svc.ApplyToJob(r.Context(), req.TeacherID, req.JobID)
	h.respondTx(w, r, tx, err)
}

// POST /v1/actions/post-job
func (h *Handler) handlePostJob(w http.ResponseWriter, r *http.Request) {
	var req jobActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := h.svc.PostJob(r.Context(), req.GuardianID, req.JobID)
	h.respondTx(w, r, tx, err)
}

// POST /v1/actions/hire
func (h *Handler) handleHire(w http.ResponseWriter, r *http.Request) {
	var req jobActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := h.svc.HireCounterpart(r.Context(), req.GuardianID, req.TeacherID, req.JobID)
	h.respondTx(w, r, tx, err)
}

// POST /v1/actions/contact
func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := h.svc.ContactCounterpart(r.Context(), req.FromID, req.ToID)
	h.respondTx(w, r, tx, err)
}

// POST /v1/actions/video-meeting
func (h *Handler) handleVideoMeeting(w http.ResponseWriter, r *http.Request) {
	var req videoMeetingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	txs, err := h.svc.ScheduleVideoMeeting(r.Context(), req.UserID1, req.UserID2)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	tag := h.locale(r)
	out := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		out = append(out, h.viewTx(tag, tx))
	}
	writeJSON(w, http.StatusCreated, map[string]any{"transactions": out})
}

// POST /v1/actions/rewards
func (h *Handler) handleReward(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := h.svc.GrantReward(r.Context(), req.UserID, req.Action)
	h.respondTx(w, r, tx, err)
}

// POST /v1/actions/milestones
func (h *Handler) handleMilestone(w http.ResponseWriter, r *http.Request) {
	var req milestoneRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	tx, err := h.svc.RecordTuitionMilestone(r.Context(), req.UserID, req.Count)
	h.respondTx(w, r, tx, err)
}

func (h *Handler) respondTx(w http.ResponseWriter, r *http.Request, tx *model.Transaction, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.viewTx(h.locale(r), *tx))
}
