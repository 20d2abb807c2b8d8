package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and safe values, so
// misconfiguration fails at startup rather than at runtime.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	switch c.Engine.Mode {
	case "assisted", "rules":
	default:
		return fmt.Errorf("engine.mode %q: must be \"assisted\" or \"rules\"", c.Engine.Mode)
	}

	if c.Reasoner.BaseURL != "" {
		if err := validateHTTPURL("reasoner.base_url", c.Reasoner.BaseURL); err != nil {
			return err
		}
	}

	if c.Notifier.GatewayURL != "" {
		if err := validateHTTPURL("notifier.gateway_url", c.Notifier.GatewayURL); err != nil {
			return err
		}
		if strings.TrimSpace(c.Notifier.Destination) == "" {
			return errors.New("notifier.destination is required when notifier.gateway_url is set")
		}
	}

	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol %q: must be \"grpc\" or \"http\"", c.Telemetry.Protocol)
	}

	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s %q: %w", field, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s %q: scheme must be http or https", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s %q: missing host", field, raw)
	}
	return nil
}
