package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/facilitator-allocator/internal/config"
	"github.com/jakechorley/facilitator-allocator/pkg/clients/gmailclient"
	"github.com/jakechorley/facilitator-allocator/pkg/clients/sheetsclient"
	"github.com/jakechorley/facilitator-allocator/pkg/core/services"
	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

// AppContext holds the application dependencies shared across all commands.
// SheetsClient and GmailClient are nil unless the config needs Google access.
type AppContext struct {
	Env          string
	Cfg          *config.Config
	SheetsClient *sheetsclient.Client
	GmailClient  *gmailclient.Client
	Database     db.Database
	Logger       *zap.Logger
	Ctx          context.Context
}

// Notifier returns the email sender for swap notifications, or nil if
// notifications are disabled
func (a *AppContext) Notifier() services.Notifier {
	if a.GmailClient == nil {
		return nil
	}
	return a.GmailClient
}

// Publisher returns the report sheet writer, or nil if no report sheet is configured
func (a *AppContext) Publisher() services.ReportPublisher {
	if a.SheetsClient == nil {
		return nil
	}
	return a.SheetsClient
}
