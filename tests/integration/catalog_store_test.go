package integration

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/melitools/sheet-sync/pkg/catalog"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func fptr(v float64) *float64 { return &v }

func TestCatalogStoreRoundTrip(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := catalog.NewRedisStore(redisClient)

	doc := catalog.Document{
		ASIN:           "B00TEST01",
		CatalogID:      "MLM-CAT-1",
		SellerID:       "seller-9",
		ReferencePrice: fptr(100),
		SaleCommission: fptr(0.1),
		ShippingCost:   fptr(10),
		PriceHistory:   []float64{100, 105},
	}
	require.NoError(t, store.Put(ctx, doc))

	got, err := store.Get(ctx, "B00TEST01")
	require.NoError(t, err)
	assert.Equal(t, doc, *got)

	_, err = store.Get(ctx, "B00MISSING")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCatalogStoreFindByASINs(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := catalog.NewRedisStore(redisClient)

	for _, asin := range []string{"B1", "B2"} {
		require.NoError(t, store.Put(ctx, catalog.Document{ASIN: asin}))
	}

	// Duplicates, blanks and unknown asins collapse to the stored set.
	docs, err := store.FindByASINs(ctx, []string{"B1", "", "B1", "B2", "B9"})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	found := map[string]bool{}
	for _, doc := range docs {
		found[doc.ASIN] = true
	}
	assert.True(t, found["B1"])
	assert.True(t, found["B2"])
}

func TestCatalogEnrichmentAgainstLiveStore(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := catalog.NewRedisStore(redisClient)

	require.NoError(t, store.Put(ctx, catalog.Document{
		ASIN:           "B00TEST01",
		CatalogID:      "MLM-CAT-1",
		SellerID:       "seller-9",
		ReferencePrice: fptr(100),
		SaleCommission: fptr(0.1),
		ShippingCost:   fptr(10),
	}))

	enricher := catalog.NewEnricher(store, catalog.EnricherConfig{}, zerolog.Nop())
	rows, err := enricher.Enrich(ctx, []string{"B00TEST01"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "B00TEST01", rows[0][0])
	assert.Equal(t, "MLM-CAT-1", rows[0][1])
	assert.Equal(t, 200.0, rows[0][10])
}
