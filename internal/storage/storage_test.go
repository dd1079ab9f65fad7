package storage_test

import (
	"context"
	"fmt"
	"ouvidoria/backend/internal/models"
	"ouvidoria/backend/internal/storage"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newComplaint(protocol, nationalID, enrollmentID string, offset time.Duration) *models.Complaint {
	return &models.Complaint{
		Protocol:     protocol,
		FilerName:    "Maria",
		NationalID:   nationalID,
		EnrollmentID: enrollmentID,
		Category:     "infraestrutura",
		Description:  "lâmpada queimada",
		CreatedAt:    baseTime.Add(offset),
		Status:       models.StatusPending,
	}
}

func protocols(records []models.Complaint) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Protocol)
	}
	return out
}

// runStorageContract exercises the behaviour every Storage backend must share.
func runStorageContract(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	ctx := context.Background()

	t.Run("append then get", func(t *testing.T) {
		s := newStore(t)
		c := newComplaint("1000000001", "12345678909", "20240001", 0)
		require.NoError(t, s.Append(ctx, c))

		got, err := s.Get(ctx, "1000000001")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Maria", got.FilerName)
		assert.Equal(t, "12345678909", got.NationalID)
		assert.Equal(t, "20240001", got.EnrollmentID)
		assert.Equal(t, "infraestrutura", got.Category)
		assert.Equal(t, "lâmpada queimada", got.Description)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.Nil(t, got.Response)
		assert.WithinDuration(t, c.CreatedAt, got.CreatedAt, 0)
	})

	t.Run("get missing returns nil without error", func(t *testing.T) {
		s := newStore(t)
		got, err := s.Get(ctx, "404")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate protocol is rejected", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newComplaint("1000000001", "12345678909", "20240001", 0)))

		dup := newComplaint("1000000001", "98765432100", "20249999", time.Minute)
		err := s.Append(ctx, dup)
		assert.ErrorIs(t, err, storage.ErrDuplicateProtocol)

		got, err := s.Get(ctx, "1000000001")
		require.NoError(t, err)
		assert.Equal(t, "12345678909", got.NationalID, "original record must be untouched")
	})

	t.Run("find by national id and enrollment id", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newComplaint("1", "12345678909", "20240001", 0)))
		require.NoError(t, s.Append(ctx, newComplaint("2", "98765432100", "20240001", time.Second)))
		require.NoError(t, s.Append(ctx, newComplaint("3", "12345678909", "20240002", 2*time.Second)))

		byNational, err := s.FindByNationalID(ctx, "12345678909")
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "3"}, protocols(byNational))

		byEnrollment, err := s.FindByEnrollmentID(ctx, "20240001")
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, protocols(byEnrollment))

		none, err := s.FindByNationalID(ctx, "00000000000")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("update response", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newComplaint("1", "12345678909", "20240001", 0)))

		at := baseTime.Add(time.Hour)
		require.NoError(t, s.UpdateResponse(ctx, "1", "resolvido", at))

		got, err := s.Get(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, got.Response)
		assert.Equal(t, "resolvido", *got.Response)
		assert.Equal(t, models.StatusResponded, got.Status)
		require.NotNil(t, got.RespondedAt)
		assert.WithinDuration(t, at, *got.RespondedAt, 0)

		require.NoError(t, s.UpdateResponse(ctx, "1", "resposta revisada", at.Add(time.Minute)))
		got, err = s.Get(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "resposta revisada", *got.Response, "a second response overwrites the first")
	})

	t.Run("update missing protocol leaves store unchanged", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newComplaint("1", "12345678909", "20240001", 0)))

		err := s.UpdateResponse(ctx, "2", "texto", baseTime)
		assert.ErrorIs(t, err, storage.ErrNotFound)

		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Nil(t, all[0].Response)
		assert.Equal(t, models.StatusPending, all[0].Status)
	})

	t.Run("list newest first", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newComplaint("1", "12345678909", "20240001", 0)))
		require.NoError(t, s.Append(ctx, newComplaint("2", "12345678909", "20240001", 2*time.Second)))
		require.NoError(t, s.Append(ctx, newComplaint("3", "12345678909", "20240001", time.Second)))

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "3", "1"}, protocols(all))
	})

	t.Run("list empty store", func(t *testing.T) {
		s := newStore(t)
		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("concurrent appends and responses lose nothing", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, newComplaint("seed", "12345678909", "20240001", 0)))

		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				p := fmt.Sprintf("%010d", i+1)
				assert.NoError(t, s.Append(ctx, newComplaint(p, "12345678909", "20240001", time.Duration(i+1)*time.Millisecond)))
			}(i)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.UpdateResponse(ctx, "seed", fmt.Sprintf("resposta %d", i), baseTime))
			}(i)
		}
		wg.Wait()

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, n+1)

		seed, err := s.Get(ctx, "seed")
		require.NoError(t, err)
		assert.Equal(t, models.StatusResponded, seed.Status)
	})
}
