package frontier

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestRunRepository_SaveAndGet(t *testing.T) {
	repo := NewRunRepository(newTestDB(t), zerolog.Nop())

	run := &Run{
		ID:      uuid.New().String(),
		Kind:    KindSimulate,
		Symbols: []string{"AAPL", "WMT"},
		Params:  `{"trials":100}`,
		Result:  `{"points":[]}`,
	}
	require.NoError(t, repo.Save(run))

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, KindSimulate, got.Kind)
	assert.Equal(t, []string{"AAPL", "WMT"}, got.Symbols)
	assert.Equal(t, run.Params, got.Params)
	assert.Equal(t, run.Result, got.Result)
	assert.NotEmpty(t, got.CreatedAt)
}

func TestRunRepository_GetUnknown(t *testing.T) {
	repo := NewRunRepository(newTestDB(t), zerolog.Nop())

	got, err := repo.Get(uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRunRepository_List(t *testing.T) {
	repo := NewRunRepository(newTestDB(t), zerolog.Nop())

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(&Run{
			ID:      uuid.New().String(),
			Kind:    KindOptimize,
			Symbols: []string{"AAPL"},
			Params:  `{}`,
			Result:  `{}`,
		}))
	}

	runs, err := repo.List(3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = repo.List(0)
	require.NoError(t, err)
	assert.Len(t, runs, 5, "non-positive limit should use the default")
}
