package testutils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StartContainer runs image and returns host:port for exposed. The test is
// skipped in short mode or when no container runtime is available.
func StartContainer(tb testing.TB, image, exposed string, waitFor wait.Strategy) string {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{exposed},
			WaitingFor:   waitFor,
		},
		Started: true,
	})
	if err != nil {
		tb.Skipf("container %s unavailable: %v", image, err)
	}
	tb.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(tb, err)
	return endpoint
}
