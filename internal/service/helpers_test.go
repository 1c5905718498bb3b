package service_test

import "github.com/phrazzld/jobscout-api/internal/config"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                     "test-jwt-secret-that-is-32-chars-long",
		UnsubscribeTokenLifetimeHours: 24,
	}
}
