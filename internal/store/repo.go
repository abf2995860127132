package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness rule,
// such as a second initial answer for the same question.
var ErrDuplicate = errors.New("duplicate")

// DayLayout is the storage format for calendar days.
const DayLayout = "2006-01-02"

// Day truncates t to its calendar date, expressed as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UserStatus is the participation status of a user.
type UserStatus string

const (
	UserActive     UserStatus = "active"
	UserCompleted  UserStatus = "completed"
	UserTerminated UserStatus = "terminated"
)

// User is a program participant.
type User struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	BirthDate     string     `json:"birth_date"`
	DiagnosisDate time.Time  `json:"diagnosis_date"`
	Status        UserStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

// QuestionStatus is the lifecycle status of a question.
type QuestionStatus string

const (
	QuestionActive   QuestionStatus = "active"
	QuestionArchived QuestionStatus = "archived"
)

// Question is an autobiographical prompt. ID order is creation order.
type Question struct {
	ID        int64          `json:"id"`
	Text      string         `json:"text"`
	Status    QuestionStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// Answer is one response to one question on one day.
type Answer struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	QuestionID int64     `json:"question_id"`
	Text       string    `json:"text"`
	Date       time.Time `json:"date"`
	IsInitial  bool      `json:"is_initial"`
	Keywords   []string  `json:"keywords,omitempty"` // initial answers only
	CreatedAt  time.Time `json:"created_at"`
}

// CheckStep names the recall step that produced a check's verdict.
type CheckStep string

const (
	StepInitialRecall  CheckStep = "initial_recall"
	StepPostHintRecall CheckStep = "post_hint_recall"
)

// Confidence is the participant's stated recall confidence.
type Confidence string

const (
	Remembers Confidence = "remembers"
	Forgets   Confidence = "forgets"
)

// CheckResult is the verdict of a completed memory check.
type CheckResult string

const (
	ResultPass CheckResult = "pass"
	ResultFail CheckResult = "fail"
)

// Check is the single terminal record of a completed memory check.
type Check struct {
	ID                int64       `json:"id"`
	UserID            int64       `json:"user_id"`
	QuestionID        int64       `json:"question_id"`
	InitialAnswerID   int64       `json:"initial_answer_id"`
	RecallAnswerID    int64       `json:"recall_answer_id,omitempty"` // 0 when absent
	Step              CheckStep   `json:"step"`
	Confidence        Confidence  `json:"confidence"`
	KeywordMatchCount int         `json:"keyword_match_count"`
	HintProvided      bool        `json:"hint_provided"`
	Result            CheckResult `json:"result"`
	Date              time.Time   `json:"date"`
	CreatedAt         time.Time   `json:"created_at"`
}

// HintImage is a generated hint shown during a check.
type HintImage struct {
	ID        int64     `json:"id"`
	CheckID   int64     `json:"check_id"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// Progress holds a participant's running totals.
type Progress struct {
	UserID               int64     `json:"user_id"`
	TotalInitialAnswered int       `json:"total_initial_answered"`
	TotalChecksCompleted int       `json:"total_checks_completed"`
	LastActivityDate     time.Time `json:"last_activity_date"` // zero if never active
}

// ProgressDelta enumerates the progress fields an action may change.
// Counters are added; a non-zero LastActivityDate replaces the stored one.
type ProgressDelta struct {
	TotalInitialAnswered int
	TotalChecksCompleted int
	LastActivityDate     time.Time
}

// ActivityCounts are a participant's completed activities on one day.
type ActivityCounts struct {
	NewAnswers   int
	MemoryChecks int
}

// AnsweredQuestion is a question that has an initial answer from a user,
// together with its check history summary.
type AnsweredQuestion struct {
	Question        Question
	InitialAnswerID int64
	AnsweredOn      time.Time
	Checks          int
	Passes          int
	LastCheckedOn   time.Time // zero if never checked
}

// Reusable reports whether the question has passed at least one check.
func (a AnsweredQuestion) Reusable() bool {
	return a.Passes > 0
}

// QuestionFilter narrows GetQuestions. Zero values match everything.
type QuestionFilter struct {
	Status QuestionStatus
	Limit  int
}

// Repo is the CRUD contract consumed by the scheduling core.
type Repo interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	FindUser(ctx context.Context, name, birthDate string) (*User, error)
	// AddUser inserts u, sets its ID and seeds an empty progress row.
	AddUser(ctx context.Context, u *User) error
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUserStatus(ctx context.Context, id int64, status UserStatus) error

	GetQuestion(ctx context.Context, id int64) (*Question, error)
	GetQuestions(ctx context.Context, f QuestionFilter) ([]Question, error)
	AddQuestion(ctx context.Context, q *Question) error
	UpdateQuestionStatus(ctx context.Context, id int64, status QuestionStatus) error
	// ListUnansweredQuestions returns active questions without an initial
	// answer from userID, oldest first.
	ListUnansweredQuestions(ctx context.Context, userID int64, limit int) ([]Question, error)

	AddAnswer(ctx context.Context, a *Answer) error
	GetAnswer(ctx context.Context, id int64) (*Answer, error)
	GetInitialAnswerWithKeywords(ctx context.Context, userID, questionID int64) (*Answer, error)

	AddCheck(ctx context.Context, c *Check) error
	ListChecks(ctx context.Context, userID int64, limit int) ([]Check, error)
	AddHintImage(ctx context.Context, h *HintImage) error
	GetHintImages(ctx context.Context, checkID int64) ([]HintImage, error)

	GetTodayActivityCounts(ctx context.Context, userID int64, day time.Time) (ActivityCounts, error)
	GetQuestionsAnsweredByUser(ctx context.Context, userID int64) ([]AnsweredQuestion, error)

	GetProgress(ctx context.Context, userID int64) (*Progress, error)
	ApplyProgress(ctx context.Context, userID int64, d ProgressDelta) error
}

// QueryOpts configures event queries.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	Purpose string // exact purpose match, empty for all
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo records and reads LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)
	// GetLLMEvent returns nil, nil when no event has the given id.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
