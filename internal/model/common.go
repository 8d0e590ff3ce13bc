package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Auth represents the credentials used to sign record API requests
type Auth struct {
	Type     string `json:"type" yaml:"type"`                             // "oauth1" | "basic" | "bearer" | "none"
	Username string `json:"username,omitempty" yaml:"username,omitempty"` // For basic auth
	Password string `json:"password,omitempty" yaml:"password,omitempty"` // For basic auth
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`       // For bearer token

	// Token-based OAuth 1.0a (HMAC-SHA256)
	Realm          string `json:"realm,omitempty" yaml:"realm,omitempty"`
	ConsumerKey    string `json:"consumer_key,omitempty" yaml:"consumer_key,omitempty"`
	ConsumerSecret string `json:"consumer_secret,omitempty" yaml:"consumer_secret,omitempty"`
	TokenID        string `json:"token_id,omitempty" yaml:"token_id,omitempty"`
	TokenSecret    string `json:"token_secret,omitempty" yaml:"token_secret,omitempty"`
}

// Validate validates auth configuration
func (a *Auth) Validate() error {
	switch strings.ToLower(a.Type) {
	case "oauth1":
		if a.ConsumerKey == "" || a.ConsumerSecret == "" || a.TokenID == "" || a.TokenSecret == "" {
			return errors.New("consumer key/secret and token id/secret required for oauth1")
		}
	case "basic":
		if a.Username == "" || a.Password == "" {
			return errors.New("username and password required for basic auth")
		}
	case "bearer":
		if a.Token == "" {
			return errors.New("token required for bearer auth")
		}
	case "none", "":
		// No validation needed
	default:
		return fmt.Errorf("invalid auth type: %s (must be 'oauth1', 'basic', 'bearer', or 'none')", a.Type)
	}
	return nil
}

// EnvConfig describes one target ERP environment
type EnvConfig struct {
	Name         string `json:"name" yaml:"-"`
	RestURL      string `json:"rest_url" yaml:"rest_url"`
	ResourceType string `json:"resource_type" yaml:"resource_type"`
	Auth         Auth   `json:"-" yaml:"auth"`
}

// Validate checks that jobs can be run against the environment
func (e *EnvConfig) Validate() error {
	if e.RestURL == "" {
		return fmt.Errorf("environment %q has no REST URL", e.Name)
	}

	parsedURL, err := url.Parse(e.RestURL)
	if err != nil {
		return fmt.Errorf("invalid REST URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.New("REST URL must start with http:// or https://")
	}

	if strings.EqualFold(e.Auth.Type, "none") || e.Auth.Type == "" {
		return fmt.Errorf("environment %q is not authenticated", e.Name)
	}

	if err := e.Auth.Validate(); err != nil {
		return fmt.Errorf("auth validation failed: %w", err)
	}

	return nil
}

// SetDefaults fills optional fields
func (e *EnvConfig) SetDefaults() {
	if e.ResourceType == "" {
		e.ResourceType = "inventoryItem"
	}
	e.RestURL = strings.TrimRight(e.RestURL, "/")
}

// AuthContext is the identity and environment a job is authorized under,
// captured once at enqueue time
type AuthContext struct {
	User        string
	Environment string
	Env         EnvConfig
}

// RetryConfig controls retries of throttled record API calls
type RetryConfig struct {
	MaxAttempts    int     `json:"max_attempts"`
	InitialDelayMs int     `json:"initial_delay_ms"`
	MaxDelayMs     int     `json:"max_delay_ms"`
	Multiplier     float64 `json:"multiplier"`
}

// SetDefaults sets default values for retry configuration
func (rc *RetryConfig) SetDefaults() {
	if rc.MaxAttempts == 0 {
		rc.MaxAttempts = 3
	}
	if rc.InitialDelayMs == 0 {
		rc.InitialDelayMs = 1000
	}
	if rc.MaxDelayMs == 0 {
		rc.MaxDelayMs = 30000
	}
	if rc.Multiplier == 0 {
		rc.Multiplier = 2.0
	}
}
