package providers

import (
	"os"
)

// TestConfig holds provider configuration loaded from environment variables.
// This allows integration tests to use the same credentials as production.
type TestConfig struct {
	VisionAgentAPIKey string
	BaseURL           string
}

// LoadTestConfig loads the ADE API key from the environment.
func LoadTestConfig() TestConfig {
	return TestConfig{
		VisionAgentAPIKey: os.Getenv("VISION_AGENT_API_KEY"),
		BaseURL:           os.Getenv("ADE_BASE_URL"),
	}
}

// HasLandingAI returns true if an ADE API key is configured.
func (c TestConfig) HasLandingAI() bool {
	return c.VisionAgentAPIKey != ""
}

// NewLandingAIClient creates an ADE client from test config.
// Returns nil if not configured.
func (c TestConfig) NewLandingAIClient() *LandingAIClient {
	if !c.HasLandingAI() {
		return nil
	}
	return NewLandingAIClient(LandingAIConfig{
		APIKey:  c.VisionAgentAPIKey,
		BaseURL: c.BaseURL,
	})
}
