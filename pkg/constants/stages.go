package constants

// Onboarding stages in the order users progress through them.
// KYC comes first, questionnaires last; the frontend renders the sequence
// as a stepper so the order here is load-bearing.
const (
	StageKYC           = "kyc"
	StageContract      = "contract"
	StagePayment       = "payment"
	StageQuestionnaire = "questionnaire"
)

// StageOrder is the canonical progression sequence.
var StageOrder = []string{StageKYC, StageContract, StagePayment, StageQuestionnaire}

// Progress statuses
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusInReview   = "in_review"
	StatusCompleted  = "completed"
)

// IsValidStatus reports whether s is a known progress status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusInReview, StatusCompleted:
		return true
	}
	return false
}

// IsValidStage reports whether s is a known stage id.
func IsValidStage(s string) bool {
	for _, stage := range StageOrder {
		if stage == s {
			return true
		}
	}
	return false
}

// NextStage returns the stage that follows s, or "" when s is the last
// stage (or unknown).
func NextStage(s string) string {
	for i, stage := range StageOrder {
		if stage == s && i+1 < len(StageOrder) {
			return StageOrder[i+1]
		}
	}
	return ""
}
