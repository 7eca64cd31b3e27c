package services

import (
	"github.com/marketgate/backend/internal/domain/flow"
	"github.com/marketgate/backend/internal/domain/models"
	"github.com/marketgate/backend/internal/infrastructure/database"
	"github.com/marketgate/backend/internal/infrastructure/persistence"
	"github.com/marketgate/backend/pkg/expression"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db *database.Connection

	// Repositories, exposed for bootstrap seeding
	Users     *persistence.UserRepository
	Sessions  *persistence.SessionRepository
	Flows     *persistence.FlowRepository
	Answers   *persistence.AnswerRepository
	ProgressR *persistence.ProgressRepository
	Profiles  *persistence.ProfileRepository

	// Services
	Auth        *AuthService
	FlowSvc     *FlowService
	Onboarding  *OnboardingService
	Progress    *ProgressService
	Profile     *ToolProfileService
	Analytics   *AnalyticsService
	Maintenance *MaintenanceService
}

// NewServiceManager creates a new service manager with all dependencies
// wired. templates maps flow template names to their starting section
// trees.
func NewServiceManager(db *database.Connection, templates map[string][]models.Section) *ServiceManager {
	sm := &ServiceManager{db: db}

	sqlDB := db.DB()
	sm.Users = persistence.NewUserRepository(sqlDB)
	sm.Sessions = persistence.NewSessionRepository(sqlDB)
	sm.Flows = persistence.NewFlowRepository(sqlDB)
	sm.Answers = persistence.NewAnswerRepository(sqlDB)
	sm.ProgressR = persistence.NewProgressRepository(sqlDB)
	sm.Profiles = persistence.NewProfileRepository(sqlDB)

	// One expression engine shared by display rule evaluation and admin
	// schema validation; its program cache is keyed by expression text.
	engine := expression.NewEngine()
	evaluator := flow.NewEvaluator(engine)

	sm.Auth = NewAuthService(sm.Users, sm.Sessions)
	sm.FlowSvc = NewFlowService(sm.Flows, engine, templates)
	sm.Progress = NewProgressService(sm.ProgressR, sm.Users)
	sm.Onboarding = NewOnboardingService(sm.Flows, sm.Answers, sm.Progress, evaluator)
	sm.Profile = NewToolProfileService(sm.Profiles)
	sm.Analytics = NewAnalyticsService(sqlDB, sm.Users, sm.ProgressR, sm.Profiles, sm.Flows)
	sm.Maintenance = NewMaintenanceService(sm.Sessions, sm.ProgressR)

	return sm
}
