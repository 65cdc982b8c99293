package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

const (
	QuestionTypeInterview = "interview"
	QuestionTypeOA        = "oa"
	QuestionTypeOthers    = "others"
)

// User is keyed internally by uuid; the external handle is the institutional
// enrollment number, which is unique and never changes.
type User struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentNumber string    `gorm:"uniqueIndex;not null" json:"enrollment_number"`
	FullName         string    `gorm:"not null" json:"full_name"`
	DisplayPicture   *string   `json:"display_picture,omitempty"`
	Branch           string    `gorm:"not null" json:"branch"`
	Email            string    `gorm:"not null" json:"email"`
	Role             string    `gorm:"not null;default:user;index" json:"role"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperadmin
}

// VisitedQuestion marks a question a user has opened. Weak reference: rows are
// not cleaned up when questions go away.
type VisitedQuestion struct {
	UserID     string    `gorm:"primaryKey;type:uuid" json:"user_id"`
	QuestionID string    `gorm:"primaryKey;type:uuid" json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Company name uniqueness is case-insensitive; NameKey holds the lowercased
// name and carries the unique index so the constraint works on every driver.
type Company struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	NameKey     string    `gorm:"uniqueIndex;not null" json:"-"`
	Logo        *string   `json:"logo,omitempty"`
	Description *string   `json:"description,omitempty"`
	Roles       JSONB     `gorm:"type:jsonb;default:'[]'" json:"roles"`
	AddedByID   *string   `gorm:"type:uuid" json:"added_by_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// StipendComponent is one line of a role posting's compensation breakdown.
type StipendComponent struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"` // monthly or one-time
}

/// CompanyRole is an embedded role posting. Value semantics: postings live and
// die with the company row (serialized into Company.Roles).
type CompanyRole struct {
	RoleName         string             `json:"role_name"`
	Day              string             `json:"day,omitempty"`
	DurationMonths   int                `json:"duration_months,omitempty"`
	Location         string             `json:"location,omitempty"`
	TotalStipend     float64            `json:"total_stipend,omitempty"`
	TotalOneTime     float64            `json:"total_one_time,omitempty"`
	StipendBreakdown []StipendComponent `json:"stipend_breakdown,omitempty"`
	Criteria         string             `json:"criteria,omitempty"`
	Perks            string             `json:"perks,omitempty"`
	HiringFor        HiringBranches     `json:"hiring_for"`
}

type HiringBranches struct {
	UG  []string `json:"ug,omitempty"`
	PG  []string `json:"pg,omitempty"`
	PhD []string `json:"phd,omitempty"`
}

// Question carries a dense per-company sequence number; the composite unique
// index turns concurrent numbering races into detectable conflicts.
type Question struct {
	ID             string  `gorm:"type:uuid;primaryKey" json:"id"`
	SubmittedByID  *string `gorm:"type:uuid;index:idx_questions_owner" json:"submitted_by_id,omitempty"`
	CompanyID      string  `gorm:"type:uuid;not null;uniqueIndex:idx_questions_company_number;index:idx_questions_company_year" json:"company_id"`
	QuestionNumber int     `gorm:"not null;uniqueIndex:idx_questions_company_number" json:"question_number"`
	Type           string  `gorm:"not null;index" json:"type"`
	OtherType      *string `json:"other_type,omitempty"`
	Month          int     `gorm:"not null" json:"month"`
	Year           int     `gorm:"not null;index:idx_questions_company_year" json:"year"`
	Question       string  `gorm:"not null" json:"question"`
	Suggestions    *string `json:"suggestions,omitempty"`

	SubmittedBy *User    `gorm:"foreignKey:SubmittedByID" json:"submitted_by,omitempty"`
	Company     *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Claims      []Claim  `gorm:"foreignKey:QuestionID" json:"claims,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// OwnershipTransfer is one immutable entry of a question's ownership history.
type OwnershipTransfer struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionID      string    `gorm:"type:uuid;not null;index" json:"question_id"`
	PreviousOwnerID *string   `gorm:"type:uuid" json:"previous_owner_id,omitempty"`
	TransferredToID string    `gorm:"type:uuid;not null" json:"transferred_to_id"`
	TransferredByID string    `gorm:"type:uuid;not null" json:"transferred_by_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// Claim records "I also experienced this question". Claims are corroboration
// only; they never grant edit rights on the question.
type Claim struct {
	QuestionID string    `gorm:"primaryKey;type:uuid" json:"question_id"`
	UserID     string    `gorm:"primaryKey;type:uuid" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt  time.Time `json:"claimed_at"`
}

// CompanyTip is a flat parent-referencing discussion record; the reply tree is
// assembled at read time.
type CompanyTip struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID   string    `gorm:"type:uuid;not null;index" json:"company_id"`
	AuthorID    string    `gorm:"type:uuid;not null" json:"author_id"`
	Author      *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ParentTipID *string   `gorm:"type:uuid;index" json:"parent_tip_id,omitempty"`
	Content     string    `gorm:"not null" json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *CompanyTip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// ActivityLog is an append-only audit record. Rows older than the retention
// window are purged by a background loop.
type ActivityLog struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       *string   `gorm:"type:uuid;index:idx_logs_user_time" json:"user_id,omitempty"`
	UserInfo     JSONB     `gorm:"type:jsonb" json:"user_info,omitempty"`
	Action       string    `gorm:"not null;index:idx_logs_action_time" json:"action"`
	TargetType   *string   `gorm:"index:idx_logs_target" json:"target_type,omitempty"`
	TargetID     *string   `gorm:"index:idx_logs_target" json:"target_id,omitempty"`
	TargetInfo   JSONB     `gorm:"type:jsonb" json:"target_info,omitempty"`
	IP           *string   `json:"ip,omitempty"`
	UserAgent    *string   `json:"user_agent,omitempty"`
	Method       *string   `json:"method,omitempty"`
	Path         *string   `json:"path,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Metadata     JSONB     `gorm:"type:jsonb" json:"metadata,omitempty"`
	IsError      bool      `gorm:"not null;default:false;index" json:"is_error"`
	ErrorDetails JSONB     `gorm:"type:jsonb" json:"error_details,omitempty"`
	CreatedAt    time.Time `gorm:"index:idx_logs_user_time;index:idx_logs_action_time" json:"created_at"`
}
