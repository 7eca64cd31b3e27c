package constants

// Question type tags. These are the discriminators stored in flow JSON and
// must match what the frontend renderers expect.
const (
	QuestionSingleSelection     = "SingleSelection"
	QuestionSingleSelectionBool = "SingleSelectionWithBooleanConditional"
	QuestionMultiSelection      = "MultiSelection"
	QuestionSlidingScale        = "SlidingScale"
	QuestionEmotiveScale        = "EmotiveScale"
	QuestionSignalScale         = "SignalScale"
	QuestionDetailForm          = "DetailForm"
)

// IsValidQuestionType reports whether t is a known question type tag.
func IsValidQuestionType(t string) bool {
	switch t {
	case QuestionSingleSelection, QuestionSingleSelectionBool,
		QuestionMultiSelection, QuestionSlidingScale,
		QuestionEmotiveScale, QuestionSignalScale, QuestionDetailForm:
		return true
	}
	return false
}

// Tool profile types mirror the three non-admin roles.
const (
	ProfileTypeBuyer  = "buyer"
	ProfileTypeSeller = "seller"
	ProfileTypeAlly   = "ally"
)

// IsValidProfileType reports whether t is a publishable profile type.
func IsValidProfileType(t string) bool {
	switch t {
	case ProfileTypeBuyer, ProfileTypeSeller, ProfileTypeAlly:
		return true
	}
	return false
}

// Flow template names used when an admin creates a new flow.
const (
	TemplateKYC           = "kyc"
	TemplateQuestionnaire = "questionnaire"
	TemplateEmpty         = "empty"
)
