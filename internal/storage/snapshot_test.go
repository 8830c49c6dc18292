package storage_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/loyalty-ledger/internal/models"
	"github.com/hongminglow/loyalty-ledger/internal/storage"
	"github.com/hongminglow/loyalty-ledger/internal/storage/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type brokenKV struct{ err error }

func (b brokenKV) Get(context.Context, string) (string, error) { return "", b.err }
func (b brokenKV) Set(context.Context, string, string) error   { return b.err }
func (b brokenKV) Close() error                                { return nil }

func sampleRecords() []models.CustomerRecord {
	ts := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	return []models.CustomerRecord{
		{
			ID: "b", Name: "Sara", Mobile: "+923331112222", TotalPoints: 0,
			LastTransaction: &models.LastTransaction{Description: "Redeemed 50 points", PointsDelta: -50, Timestamp: ts},
			CreatedAt:       ts,
		},
		{ID: "a", Name: "Ali", Mobile: "+923001234567", TotalPoints: 150, CreatedAt: ts.Add(-time.Hour)},
	}
}

func TestCustomerRepository_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := storage.NewCustomerRepository(memory.New(), discardLogger())

	want := sampleRecords()
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, repo.Save(ctx, got))
	again, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, again)
}

func TestCustomerRepository_WritesVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := memory.New()
	repo := storage.NewCustomerRepository(kv, discardLogger())

	require.NoError(t, repo.Save(ctx, nil))
	raw, err := kv.Get(ctx, storage.CustomersKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"customers":[]}`, raw)
}

func TestCustomerRepository_AbsentOrCorrupt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, stored := range map[string]*string{
		"absent":         nil,
		"garbage":        ptr("{not json"),
		"null":           ptr("null"),
		"future version": ptr(`{"version":99,"customers":[]}`),
		"wrong shape":    ptr(`{"version":1,"customers":"nope"}`),
	} {
		kv := memory.New()
		if stored != nil {
			require.NoError(t, kv.Set(ctx, storage.CustomersKey, *stored))
		}
		got, err := storage.NewCustomerRepository(kv, discardLogger()).Load(ctx)
		require.NoError(t, err, name)
		assert.Empty(t, got, name)
	}
}

func TestCustomerRepository_LegacyArray(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := memory.New()
	legacy := `[
		{"id":1709290000000,"name":"Ali","mobile":"+923001234567","totalPoints":170,
		 "lastTransaction":{"desc":"Added 20 points","pointsAdded":20,"timestamp":"2026-03-01T10:00:00.000Z"},
		 "createdAt":"2026-02-01T09:00:00.000Z"},
		{"id":"x7","name":"Sara","mobile":"+923331112222","totalPoints":40,
		 "lastTransaction":{"price":250,"pointsAdded":25,"date":"2026-03-02T08:00:00Z"},
		 "createdAt":"2026-02-02T09:00:00Z"}
	]`
	require.NoError(t, kv.Set(ctx, storage.CustomersKey, legacy))

	got, err := storage.NewCustomerRepository(kv, discardLogger()).Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "1709290000000", got[0].ID)
	require.NotNil(t, got[0].LastTransaction)
	assert.Equal(t, "Added 20 points", got[0].LastTransaction.Description)
	assert.Equal(t, int64(20), got[0].LastTransaction.PointsDelta)

	assert.Equal(t, "x7", got[1].ID)
	require.NotNil(t, got[1].LastTransaction)
	assert.Equal(t, "Purchase of 250.00", got[1].LastTransaction.Description)
	assert.Equal(t, int64(25), got[1].LastTransaction.PointsDelta)
	assert.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), got[1].LastTransaction.Timestamp.UTC())
}

func TestCustomerRepository_BackendFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := storage.NewCustomerRepository(brokenKV{err: errors.New("disk on fire")}, discardLogger())

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, models.ErrPersistenceUnavailable)

	err = repo.Save(ctx, sampleRecords())
	assert.ErrorIs(t, err, models.ErrPersistenceUnavailable)
}

func ptr[T any](v T) *T { return &v }
