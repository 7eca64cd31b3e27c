package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/marketgate/backend/internal/application/services"
	"github.com/marketgate/backend/pkg/constants"
	"github.com/marketgate/backend/pkg/errors"
)

// InitializeSystemData seeds the first admin account and the default flow
// set. Everything here is idempotent; existing rows are left alone.
func InitializeSystemData(svcMgr *services.ServiceManager) error {
	ctx := context.Background()

	if err := seedAdmin(ctx, svcMgr); err != nil {
		return err
	}
	return seedFlows(ctx, svcMgr)
}

func seedAdmin(ctx context.Context, svcMgr *services.ServiceManager) error {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@marketgate.local"
	}

	existing, err := svcMgr.Users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("admin lookup failed: %w", err)
	}
	if existing != nil {
		return nil
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "ChangeMe123"
		log.Println("⚠️  ADMIN_PASSWORD not set, seeding admin with the default password")
	}

	if _, err := svcMgr.Auth.Register(ctx, email, "Administrator", password, constants.RoleAdmin); err != nil {
		return fmt.Errorf("admin seed failed: %w", err)
	}
	log.Printf("✅ Seeded admin account %s", email)
	return nil
}

// defaultFlows is the out-of-the-box flow set: each non-admin role gets a
// KYC flow and a questionnaire.
var defaultFlows = []struct {
	name     string
	role     string
	stage    string
	template string
}{
	{"kyc_seller", constants.RoleSeller, constants.StageKYC, constants.TemplateKYC},
	{"kyc_buyer", constants.RoleBuyer, constants.StageKYC, constants.TemplateKYC},
	{"kyc_ally", constants.RoleAlly, constants.StageKYC, constants.TemplateKYC},
	{"questionnaire_seller", constants.RoleSeller, constants.StageQuestionnaire, constants.TemplateQuestionnaire},
	{"questionnaire_buyer", constants.RoleBuyer, constants.StageQuestionnaire, constants.TemplateQuestionnaire},
	{"questionnaire_ally", constants.RoleAlly, constants.StageQuestionnaire, constants.TemplateQuestionnaire},
}

func seedFlows(ctx context.Context, svcMgr *services.ServiceManager) error {
	for _, df := range defaultFlows {
		existing, err := svcMgr.Flows.GetFlow(ctx, df.name)
		if err != nil {
			return fmt.Errorf("flow lookup failed: %w", err)
		}
		if existing != nil {
			continue
		}
		if _, err := svcMgr.FlowSvc.CreateFlow(ctx, df.name, df.role, df.stage, df.template); err != nil {
			// a concurrent boot may have created it between check and insert
			if errors.IsConflict(err) {
				continue
			}
			return fmt.Errorf("seeding flow '%s' failed: %w", df.name, err)
		}
	}
	return nil
}
