package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/argo-ocean/oceanq/pkg/oceanq"
)

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// The token is acquired from a TokenProvider and used as the PostgreSQL password.
type TokenBasedConnector struct {
	config        *oceanq.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	opts          options
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error/warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *oceanq.ConnectionConfig, tokenProvider TokenProvider, providerName string, opts ...Option) *TokenBasedConnector {
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		opts:          buildOptions(opts),
	}
}

func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgx.Conn, error) {
	token, expiresOn, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to acquire %s token: %w", oceanq.ErrConnection, c.providerName, err)
	}

	if remaining := time.Until(expiresOn); remaining < oceanq.TokenExpiryWarning {
		c.opts.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
	}
	c.opts.logger.Verbose("Acquired token from %s", c.tokenProvider)

	configWithToken := *c.config
	configWithToken.Password = token

	return connect(ctx, c.config, BuildConnectionString(&configWithToken), c.opts)
}
