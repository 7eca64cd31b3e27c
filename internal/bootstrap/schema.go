package bootstrap

import (
	"fmt"
	"log"

	"github.com/marketgate/backend/internal/infrastructure/database"
	"github.com/marketgate/backend/pkg/constants"
)

// InitializeSchema creates the application tables. All statements are
// idempotent so startup can run against an existing database.
func InitializeSchema(db *database.Connection) error {
	log.Println("🔧 Initializing schema...")

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`, constants.TableUser),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			token TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			ip_address VARCHAR(64),
			user_agent VARCHAR(512),
			is_revoked TINYINT(1) NOT NULL DEFAULT 0,
			last_activity DATETIME NOT NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_session_user (user_id),
			INDEX idx_session_expires (expires_at)
		)`, constants.TableSession),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			name VARCHAR(128) PRIMARY KEY,
			role VARCHAR(32) NOT NULL,
			stage VARCHAR(32) NOT NULL,
			sections JSON NOT NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`, constants.TableFlow),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			user_id VARCHAR(36) NOT NULL,
			flow_name VARCHAR(128) NOT NULL,
			data JSON NOT NULL,
			position JSON,
			completed_at DATETIME,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, flow_name)
		)`, constants.TableAnswer),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL,
			stage_id VARCHAR(32) NOT NULL,
			status VARCHAR(32) NOT NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_progress_user_stage (user_id, stage_id)
		)`, constants.TableProgress),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(36) PRIMARY KEY,
			type VARCHAR(32) NOT NULL,
			payload JSON NOT NULL,
			access_password VARCHAR(64) NOT NULL,
			created_by VARCHAR(36) NOT NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`, constants.TableToolProfile),
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema init failed: %w", err)
		}
	}

	log.Println("✅ Schema ready")
	return nil
}
