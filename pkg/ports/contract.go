package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCheckpointStoreContract runs a suite of tests to verify that a CheckpointStore
// implementation adheres to the defined interface contract.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	key := "contract-test-checkpoint-" + time.Now().Format("20060102150405")

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, key+"-missing")
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
	})

	t.Run("Set and Get", func(t *testing.T) {
		blob := []byte(`{"version":1}`)
		require.NoError(t, store.Set(ctx, key, blob))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, blob, got)
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, []byte("first")))
		require.NoError(t, store.Set(ctx, key, []byte("second")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got)
	})

	t.Run("Returned Blob Is Isolated", func(t *testing.T) {
		blob := []byte("isolated")
		require.NoError(t, store.Set(ctx, key, blob))
		blob[0] = 'X'

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("isolated"), got)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, []byte("gone soon")))
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
	})

	t.Run("Delete Non-Existent", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, key+"-never-set"))
	})
}

// RunOutputStoreContract verifies that an OutputStore keeps records in
// discovery order, isolates tables and round-trips status cells.
func RunOutputStoreContract(t *testing.T, store OutputStore) {
	ctx := context.Background()
	started := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	t.Run("Current Before Create", func(t *testing.T) {
		_, err := store.Current(ctx)
		assert.ErrorIs(t, err, domain.ErrNoOutputTable)
	})

	first, err := store.Create(ctx, domain.NewRunMetadata("run-1", started))
	require.NoError(t, err)

	t.Run("Append Keeps Order", func(t *testing.T) {
		recs := []domain.Record{
			{Path: "z.txt", Kind: domain.KindLeaf, Classification: domain.Shared},
			{Path: "a", Kind: domain.KindContainer, Classification: domain.Shared},
			{Path: "a/m.txt", Kind: domain.KindLeaf, Classification: domain.Shared},
		}
		for _, r := range recs {
			require.NoError(t, first.Append(ctx, r))
		}

		got, err := first.Records(ctx)
		require.NoError(t, err)
		assert.Equal(t, recs, got)
	})

	t.Run("Status Round Trip", func(t *testing.T) {
		meta, err := first.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, "run-1", meta.RunID)
		assert.True(t, started.Equal(meta.StartedAt))
		assert.Equal(t, 1, meta.Invocations)
		assert.Equal(t, domain.CompletionRunning, meta.Completion)

		meta = meta.Resumed(started.Add(time.Hour))
		meta.Completion = domain.CompletionNo
		require.NoError(t, first.SetStatus(ctx, meta))

		got, err := first.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Invocations)
		assert.Equal(t, domain.CompletionNo, got.Completion)
		assert.True(t, started.Add(time.Hour).Equal(got.LastRunAt))
	})

	t.Run("Current Returns Latest", func(t *testing.T) {
		cur, err := store.Current(ctx)
		require.NoError(t, err)
		meta, err := cur.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, "run-1", meta.RunID)

		second, err := store.Create(ctx, domain.NewRunMetadata("run-2", started.Add(2*time.Hour)))
		require.NoError(t, err)
		require.NoError(t, second.Append(ctx, domain.Record{Path: "only.txt", Kind: domain.KindLeaf, Classification: domain.Shared}))

		cur, err = store.Current(ctx)
		require.NoError(t, err)
		meta, err = cur.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, "run-2", meta.RunID)

		recs, err := cur.Records(ctx)
		require.NoError(t, err)
		assert.Len(t, recs, 1, "new table must not inherit rows")
	})
}
