package model

import "time"

// Audit results other than AuditAccepted carry the lifecycle error code.
const (
	AuditAccepted = "accepted"
	AuditNoop     = "noop"
)

// CaseAudit is one audit log record (append-only, read-only after creation).
// Unlike Case.History it also records attempts that were refused.
type CaseAudit struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	CaseID     string    `bson:"case_id" json:"case_id"`
	Kind       Kind      `bson:"kind" json:"kind"`
	Action     Action    `bson:"action" json:"action"`
	ActorID    string    `bson:"actor_id" json:"actor_id"`
	ActorRole  Role      `bson:"actor_role" json:"actor_role"`
	FromStatus Status    `bson:"from_status" json:"from_status"`
	ToStatus   Status    `bson:"to_status,omitempty" json:"to_status,omitempty"`
	Result     string    `bson:"result" json:"result"`
	Reason     string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// GetCaseAuditReq queries the audit log of one case.
type GetCaseAuditReq struct {
	CaseID string `param:"id" validate:"required,max=64"`

	StartTime *time.Time `query:"start_time"`
	EndTime   *time.Time `query:"end_time"`

	Page int `query:"page" validate:"omitempty,min=1"`
	Size int `query:"size" validate:"omitempty,min=1,max=1000"`
}

func (r *GetCaseAuditReq) Validate() error {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.Size <= 0 {
		r.Size = 100
	}
	if r.Size > 1000 {
		r.Size = 1000
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	if r.StartTime != nil && r.EndTime != nil && r.EndTime.Before(*r.StartTime) {
		return badRequest("end_time must not be before start_time")
	}
	return nil
}

// GetCaseAuditResp is a page of audit records.
type GetCaseAuditResp struct {
	Data       []*CaseAudit `json:"data"`
	Page       int          `json:"page"`
	Size       int          `json:"size"`
	TotalCount int64        `json:"total_count"`
}
