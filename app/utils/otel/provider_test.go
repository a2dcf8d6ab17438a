package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitProvider_Disabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), Config{
		ServiceName:  "test",
		Enabled:      false,
		OTLPEndpoint: "http://localhost:4318",
	})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitProvider_Enabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), Config{
		ServiceName:  "test",
		Enabled:      true,
		Insecure:     true,
		OTLPEndpoint: "http://127.0.0.1:4318",
		SampleRatio:  1,
	})
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "probe")
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Export to a closed port fails; shutdown must still return.
	_ = shutdown(ctx)
}
