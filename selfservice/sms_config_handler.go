package selfservice

import (
	"context"

	"github.com/gravitational/trace"

	"github.com/goliatone/go-realm-services/sms"
)

// SMSConsoleConfigHandler resolves console configuration from the service config
// tree: each realm's console settings live in an organization instance of the
// configured service.
type SMSConsoleConfigHandler struct {
	manager      sms.ConfigManager
	instanceName string
}

var _ ConsoleConfigHandler = (*SMSConsoleConfigHandler)(nil)

// NewSMSConsoleConfigHandler creates a handler reading the named instance, e.g.
// "selfService", from the config tree.
func NewSMSConsoleConfigHandler(manager sms.ConfigManager, instanceName string) (*SMSConsoleConfigHandler, error) {
	if manager == nil {
		return nil, trace.BadParameter("config manager is required")
	}
	if instanceName == "" {
		return nil, trace.BadParameter("instance name is required")
	}
	return &SMSConsoleConfigHandler{manager: manager, instanceName: instanceName}, nil
}

// GetConfig implements ConsoleConfigHandler. Lookup and extraction failures
// propagate unchanged.
func (h *SMSConsoleConfigHandler) GetConfig(ctx context.Context, realm string, extractor ConsoleConfigExtractor) (ConsoleConfig, error) {
	config, err := h.manager.OrganizationConfig(ctx, realm, h.instanceName)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return extractor.Extract(config.Attributes)
}
