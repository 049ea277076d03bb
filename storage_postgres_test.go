package weatherpod

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPostgresSessionService(t *testing.T) {
	dsn := os.Getenv("WEATHER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("WEATHER_TEST_POSTGRES_DSN not set")
	}
	svc, err := NewPostgresSessionService(dsn)
	require.NoError(t, err)
	defer svc.Close()

	runSessionServiceSuite(t, svc, "weather_test_"+uuid.NewString())
}
