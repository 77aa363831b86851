package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AlxM1/aelo/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) (*Repository, func()) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Driver:            DriverPostgres,
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "../../migrations/postgres",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func TestPostgres_OrderLifecycle(t *testing.T) {
	repo, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	admin := newTestUser(t, repo, "ops@drinkaelo.com", domain.RoleAdmin)
	cs := newTestCheckout(t, repo, nil)
	o := newTestOrder(cs)
	require.NoError(t, repo.CreateOrder(ctx, o))
	assert.ErrorIs(t, repo.CreateOrder(ctx, newTestOrder(cs)), ErrDuplicateCheckout)

	got, err := repo.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "74.97", got.Total.StringFixed(2))
	assert.Len(t, got.Items, 2)

	processing, err := repo.TransitionOrder(ctx, OrderUpdate{
		ID:          o.ID,
		Expected:    domain.OrderStatusPaid,
		Status:      domain.OrderStatusProcessing,
		ProcessedBy: uuid.NullUUID{UUID: admin.ID, Valid: true},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, processing.Status)
	assert.Equal(t, admin.ID, processing.ProcessedByID.UUID)

	orders, total, err := repo.ListOrders(ctx, domain.OrderFilter{
		Search:      "JANE",
		PageRequest: domain.PageRequest{Page: 1, Limit: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, orders[0].Items, 2)
}

// Two admins submitting from the same observed status: exactly one wins.
func TestPostgres_ConcurrentTransitionsConflict(t *testing.T) {
	repo, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	o := newTestOrder(nil)
	require.NoError(t, repo.CreateOrder(ctx, o))

	targets := []domain.OrderStatus{domain.OrderStatusProcessing, domain.OrderStatusCancelled}
	errs := make([]error, len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target domain.OrderStatus) {
			defer wg.Done()
			_, errs[i] = repo.TransitionOrder(ctx, OrderUpdate{
				ID: o.ID, Expected: domain.OrderStatusPaid, Status: target,
			})
		}(i, target)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrStatusChanged):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)
}

func TestPostgres_SettingsAndProducts(t *testing.T) {
	repo, cleanup := setupPostgres(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.UpsertSettings(ctx, domain.DefaultSiteSettings(time.Now())))
	require.NoError(t, repo.UpsertSettings(ctx, domain.DefaultSiteSettings(time.Now())))
	s, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "aelo", s.SiteName)

	newTestProduct(t, repo, "Yuzu Ginger", 1)
	err = repo.CreateProduct(ctx, &domain.Product{Slug: "yuzu-ginger", Name: "dup"})
	assert.ErrorIs(t, err, ErrSlugTaken)
}
