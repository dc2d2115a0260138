// Package vault optionally sources provider credentials from HashiCorp Vault.
// When Vault is disabled the environment-derived configuration is used as-is;
// missing credentials stay a normal condition either way.
package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"

	"github.com/ishaygamliely-create/SoloTrading-sub001/config"
)

// ProviderSecrets holds the credential material the feed adapters need.
type ProviderSecrets struct {
	BrokerAPIKey      string
	TradingViewAPIKey string
	RealtimeUsername  string
	RealtimePassword  string
}

// Client wraps the Vault API client for provider-secret reads.
type Client struct {
	client *api.Client
	cfg    config.VaultConfig
}

// NewClient creates a Vault client. A disabled config yields a client whose
// reads return empty secrets.
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{cfg: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("creating vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{client: client, cfg: cfg}, nil
}

// LoadProviderSecrets reads the provider credential blob from the KV v2
// engine. Absent fields come back empty.
func (c *Client) LoadProviderSecrets(ctx context.Context) (*ProviderSecrets, error) {
	if c.client == nil {
		return &ProviderSecrets{}, nil
	}

	path := fmt.Sprintf("%s/data/%s", c.cfg.MountPath, c.cfg.SecretPath)
	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("reading provider secrets: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return &ProviderSecrets{}, nil
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return &ProviderSecrets{}, nil
	}

	return &ProviderSecrets{
		BrokerAPIKey:      stringField(data, "broker_api_key"),
		TradingViewAPIKey: stringField(data, "tradingview_api_key"),
		RealtimeUsername:  stringField(data, "realtime_username"),
		RealtimePassword:  stringField(data, "realtime_password"),
	}, nil
}

// Apply overlays Vault-sourced credentials onto the configuration. Only fields
// Vault actually returned are replaced, so env-provided values survive.
func (s *ProviderSecrets) Apply(cfg *config.Config) {
	if cfg.Broker != nil && s.BrokerAPIKey != "" {
		cfg.Broker.APIKey = s.BrokerAPIKey
	}
	if cfg.TradingView != nil && s.TradingViewAPIKey != "" {
		cfg.TradingView.APIKey = s.TradingViewAPIKey
	}
	if cfg.Realtime != nil {
		if s.RealtimeUsername != "" {
			cfg.Realtime.Username = s.RealtimeUsername
		}
		if s.RealtimePassword != "" {
			cfg.Realtime.Password = s.RealtimePassword
		}
	}
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
