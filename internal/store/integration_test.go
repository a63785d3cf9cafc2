package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/recordflow/internal/config"
	"github.com/JonMunkholm/recordflow/internal/core"
)

// These tests run against real servers when the corresponding environment
// variable is set and are skipped otherwise.

func TestMongo_RoundTrip(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	suffix := uuid.NewString()[:8]
	ctx := context.Background()
	m, err := OpenMongo(ctx, config.MongoConfig{
		URI:               uri,
		Database:          "recordflow_test_" + suffix,
		CollectionOK:      "collection_ok",
		CollectionKO:      "collection_ko",
		CollectionHistory: "historic",
	}, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.ok.Database().Drop(context.Background())
		_ = m.Close(context.Background())
	})

	roundTrip(t, m)
}

func TestPostgres_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	p, err := OpenPostgres(ctx, config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 0}, 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, table := range []string{TableValid, TableInvalid, TableHistory} {
			_, _ = p.pool.Exec(context.Background(), "TRUNCATE "+table)
		}
		_ = p.Close(context.Background())
	})

	roundTrip(t, p)
}

func roundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	p := samplePartitions()

	require.NoError(t, WriteRun(ctx, s, p, core.NewRunSummary(uuid.NewString(), "prueba-acceso", p, time.Now())))

	valid, err := s.ListValid(ctx)
	require.NoError(t, err)
	require.Len(t, valid, 1)
	assert.NotContains(t, valid[0], "_id")
	assert.Equal(t, "Fran", valid[0]["name"])

	invalid, err := s.ListInvalid(ctx)
	require.NoError(t, err)
	assert.Len(t, invalid, 2)

	history, err := s.ListSummaries(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
