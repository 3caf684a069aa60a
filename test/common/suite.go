package common

import (
	"os"
	"testing"
)

// IntegrationTestSuite targets a running bookings service. Tests using it are
// skipped unless TEST_SERVER_URL is set, so `go test ./...` stays green
// without infrastructure.
type IntegrationTestSuite struct {
	HTTPClient  *Client
	ServiceName string
}

func NewIntegrationTestSuite(t *testing.T, serviceName string) *IntegrationTestSuite {
	t.Helper()

	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		t.Skip("TEST_SERVER_URL not set; skipping integration tests")
	}

	return &IntegrationTestSuite{
		HTTPClient:  NewClient(serverURL),
		ServiceName: serviceName,
	}
}
