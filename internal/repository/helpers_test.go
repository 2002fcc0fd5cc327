package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rongwang/deductible-server/internal/backend"
	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/schema"
	"github.com/rongwang/deductible-server/internal/utils"
)

// openSQLite creates a fresh database file for one test.
func openSQLite(t *testing.T) *backend.Handle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", path)
	return openHandle(t, backend.SQLite, dsn)
}

func openHandle(t *testing.T, kind backend.Kind, dsn string) *backend.Handle {
	t.Helper()
	ctx := context.Background()
	h, err := backend.Open(ctx, backend.Options{
		Kind:           kind,
		DSN:            dsn,
		MaxConns:       4,
		Workers:        4,
		AcquireTimeout: 5 * time.Second,
		Logger:         utils.NopLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	require.NoError(t, schema.Ensure(ctx, h))
	return h
}

// forEachBackend runs fn against SQLite and, when TEST_DATABASE_URL is set,
// against PostgreSQL. Tests isolate themselves with fresh user ids, so a
// shared PostgreSQL database is fine.
func forEachBackend(t *testing.T, fn func(t *testing.T, h *backend.Handle, repo Repository)) {
	t.Run("sqlite", func(t *testing.T) {
		h := openSQLite(t)
		fn(t, h, New(h))
	})

	dsn := os.Getenv("TEST_DATABASE_URL")
	t.Run("postgres", func(t *testing.T) {
		if dsn == "" {
			t.Skip("TEST_DATABASE_URL not set")
		}
		h := openHandle(t, backend.Postgres, dsn)
		fn(t, h, New(h))
	})
}

func newUserID() string {
	return "user-" + uuid.New().String()
}

// seedDonation creates a charity named charityName and one donation to it.
func seedDonation(t *testing.T, repo Repository, userID, charityName string, amount float64) *models.Donation {
	t.Helper()
	ctx := context.Background()

	charityID, _, err := repo.FindOrCreateCharity(ctx, userID, charityName, nil)
	require.NoError(t, err)

	donation := &models.Donation{
		UserID:    userID,
		Date:      "2024-03-15",
		Category:  models.StringPtr("money"),
		Amount:    &amount,
		CharityID: charityID,
	}
	require.NoError(t, repo.CreateDonation(ctx, donation))
	return donation
}

func future(d time.Duration) *string {
	s := utils.FormatTimestamp(time.Now().Add(d))
	return &s
}
