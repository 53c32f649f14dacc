package fs_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	jptransit "github.com/anhlt/jp-transit-search"
	"github.com/anhlt/jp-transit-search/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_round_trips_state(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := fs.NewStateStore(filepath.Join(t.TempDir(), "crawl_state.json"))

	state := jptransit.NewCrawlState()
	state.SessionID = "f2b7c36e-3c1d-4e0e-9d51-1a2b3c4d5e6f"
	state.MarkPrefectureDone("北海道")
	state.MarkLineDone("青森県", "JR奥羽本線")
	state.SetResumeIndex(1)
	state.Progress = &jptransit.CrawlProgress{StationsFound: 412, Errors: 1}

	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"北海道"}, loaded.CompletedPrefectures)
	assert.Equal(t, []string{"JR奥羽本線"}, loaded.CompletedLines["青森県"])
	assert.Equal(t, 1, loaded.ResumeIndex())
	assert.Equal(t, state.SessionID, loaded.SessionID)
	assert.Equal(t, 412, loaded.Progress.StationsFound)
	assert.NotEmpty(t, loaded.Timestamp)
}

func TestStateStore_Load_missing_file_is_empty_state(t *testing.T) {
	t.Parallel()

	store := fs.NewStateStore(filepath.Join(t.TempDir(), "absent.json"))

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.CompletedPrefectures)
	assert.NotNil(t, state.CompletedLines)
	assert.Equal(t, 0, state.ResumeIndex())
}

func TestStateStore_Load_corrupt_file_is_empty_state(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	state, err := fs.NewStateStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.CompletedPrefectures)
}

func TestStateStore_Save_writes_documented_shape(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "crawl_state.json")
	store := fs.NewStateStore(path)

	state := jptransit.NewCrawlState()
	state.SetResumeIndex(12)
	require.NoError(t, store.Save(ctx, state))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "completed_prefectures")
	assert.Contains(t, raw, "completed_lines")
	assert.Contains(t, raw, "current_prefecture_index")
	assert.Contains(t, raw, "timestamp")
	assert.EqualValues(t, 12, raw["current_prefecture_index"])
}

func TestStateStore_Clear_is_idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "crawl_state.json")
	store := fs.NewStateStore(path)

	require.NoError(t, store.Save(ctx, jptransit.NewCrawlState()))
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
