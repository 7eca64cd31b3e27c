package bootstrap

import (
	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/pkg/constants"
)

// FlowTemplates returns the section trees a new flow can start from.
// Aliases are template-local; admins are expected to rename them when a
// role runs more than one flow built from the same template.
func FlowTemplates() map[string][]models.Section {
	return map[string][]models.Section{
		constants.TemplateEmpty:         {},
		constants.TemplateKYC:           kycTemplate(),
		constants.TemplateQuestionnaire: questionnaireTemplate(),
	}
}

func kycTemplate() []models.Section {
	return []models.Section{
		{
			ID:    1,
			Name:  "Company",
			Color: "#2563eb",
			Order: 0,
			Steps: []models.Step{
				{
					ID:    1,
					Order: 0,
					Questions: []models.Question{
						{
							Type:     constants.QuestionDetailForm,
							Alias:    "company_details",
							Editable: true,
							Props: &models.DetailFormProps{
								Text:     "Tell us about your company",
								Required: true,
								Fields: []models.DetailField{
									{Alias: "legal_name", Label: "Legal name", Required: true},
									{Alias: "registration_number", Label: "Registration number", Required: true},
									{Alias: "website", Label: "Website", Placeholder: "https://"},
								},
							},
						},
					},
				},
				{
					ID:    2,
					Order: 1,
					Questions: []models.Question{
						{
							Type:     constants.QuestionSingleSelection,
							Alias:    "company_size",
							Editable: true,
							Props: &models.SingleSelectionProps{
								Text:     "How many employees do you have?",
								Required: true,
								Options: []models.Option{
									{Value: "1-10", Label: "1-10"},
									{Value: "11-50", Label: "11-50"},
									{Value: "51-200", Label: "51-200"},
									{Value: "200+", Label: "More than 200"},
								},
							},
						},
					},
				},
			},
		},
		{
			ID:    2,
			Name:  "Compliance",
			Color: "#dc2626",
			Order: 1,
			Steps: []models.Step{
				{
					ID:    1,
					Order: 0,
					Questions: []models.Question{
						{
							Type:     constants.QuestionSingleSelectionBool,
							Alias:    "regulated_industry",
							Editable: true,
							Props: &models.SingleSelectionProps{
								Text:     "Do you operate in a regulated industry?",
								Required: true,
								Options: []models.Option{
									{Value: "yes", Label: "Yes"},
									{Value: "no", Label: "No"},
								},
								TriggerValue:    "yes",
								ConditionalText: "Which regulator oversees your business?",
							},
						},
					},
				},
			},
		},
	}
}

func questionnaireTemplate() []models.Section {
	return []models.Section{
		{
			ID:    1,
			Name:  "Goals",
			Color: "#16a34a",
			Order: 0,
			Steps: []models.Step{
				{
					ID:    1,
					Order: 0,
					Questions: []models.Question{
						{
							Type:     constants.QuestionMultiSelection,
							Alias:    "goals",
							Editable: true,
							Props: &models.MultiSelectionProps{
								Text:          "What do you want from the marketplace?",
								Required:      true,
								MinSelections: 1,
								MaxSelections: 3,
								Options: []models.Option{
									{Value: "growth", Label: "Grow revenue"},
									{Value: "partners", Label: "Find partners"},
									{Value: "tools", Label: "Better tooling"},
									{Value: "insights", Label: "Market insights"},
								},
							},
						},
					},
				},
				{
					ID:    2,
					Order: 1,
					Questions: []models.Question{
						{
							Type:     constants.QuestionSlidingScale,
							Alias:    "budget_flexibility",
							Editable: true,
							Props: &models.ScaleProps{
								Text:     "How flexible is your budget?",
								Required: true,
								Min:      0,
								Max:      100,
								Step:     10,
								MinLabel: "Fixed",
								MaxLabel: "Very flexible",
							},
						},
						{
							Type:     constants.QuestionEmotiveScale,
							Alias:    "onboarding_sentiment",
							Editable: true,
							Props: &models.ScaleProps{
								Text:   "How do you feel about onboarding so far?",
								Levels: 5,
							},
						},
					},
				},
			},
		},
		{
			ID:    2,
			Name:  "Partnering",
			Color: "#9333ea",
			Order: 1,
			DisplayRule: &models.DisplayRule{
				Alias:  "goals",
				Values: []string{"partners"},
			},
			Steps: []models.Step{
				{
					ID:    1,
					Order: 0,
					Questions: []models.Question{
						{
							Type:     constants.QuestionSignalScale,
							Alias:    "partner_urgency",
							Editable: true,
							Props: &models.ScaleProps{
								Text:     "How urgently do you need a partner?",
								Required: true,
								Levels:   3,
							},
						},
					},
				},
			},
		},
	}
}
