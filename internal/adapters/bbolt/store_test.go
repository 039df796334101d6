package bbolt

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/corey/titlelab/internal/domain/keyword"
	"github.com/corey/titlelab/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

var _ ports.Storage = (*Store)(nil)

// =============================================================================
// bbolt Storage Adapter: dataset and history persistence, crash recovery
// Expectation: all data workspace-scoped; survives restarts; fresh
// workspaces load as nil, nil.
// =============================================================================

// newTestStore creates a temporary bbolt store for testing.
func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

// makeTestDataset creates a realistic imported dataset.
func makeTestDataset() *ports.Dataset {
	return &ports.Dataset{
		Name:       "菜板关键词.xlsx",
		Source:     "upload",
		ImportedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Keywords:   keyword.Sample(),
	}
}

func makeAnalysis(id, title string, ts int64) *ports.TitleAnalysis {
	return &ports.TitleAnalysis{
		ID:            id,
		Title:         title,
		Tokens:        []string{title},
		Matched:       []ports.Keyword{keyword.New(11, 11, "家用菜板", "5万 ~ 10万", "80.00%", "20% ~ 25%")},
		PopularityMin: 50000,
		PopularityMax: 100000,
		Timestamp:     ts,
		Group:         ports.GroupOther,
		Tag:           "自定义",
		Metrics:       ports.TitleMetrics{Length: 8, Valid: true},
	}
}

func TestStore_SaveLoadDataset_Roundtrip(t *testing.T) {
	store, _ := newTestStore(t)
	ds := makeTestDataset()

	require.NoError(t, store.SaveDataset("ws-1", ds))

	loaded, err := store.LoadDataset("ws-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, ds.Name, loaded.Name)
	assert.Equal(t, ds.Source, loaded.Source)
	assert.True(t, ds.ImportedAt.Equal(loaded.ImportedAt))
	assert.Equal(t, ds.Keywords, loaded.Keywords)
}

func TestStore_SaveDataset_Overwrites(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveDataset("ws-1", makeTestDataset()))
	require.NoError(t, store.SaveDataset("ws-1", &ports.Dataset{Name: "sample", Source: "sample"}))

	loaded, err := store.LoadDataset("ws-1")
	require.NoError(t, err)
	assert.Equal(t, "sample", loaded.Name)
	assert.Empty(t, loaded.Keywords)
}

func TestStore_SaveDataset_Nil(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Error(t, store.SaveDataset("ws-1", nil))
}

func TestStore_LoadDataset_JSONBlob(t *testing.T) {
	// Datasets written as plain JSON are still readable.
	store, _ := newTestStore(t)
	raw := `{"name":"hand.json","source":"upload","keywords":[{"id":1,"rank":1,"keyword":"菜板","popularity_min":100}]}`
	require.NoError(t, store.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte("ws-1"))
		if err != nil {
			return err
		}
		return b.Put(keyDataset, []byte(raw))
	}))

	loaded, err := store.LoadDataset("ws-1")
	require.NoError(t, err)
	require.Len(t, loaded.Keywords, 1)
	assert.Equal(t, "菜板", loaded.Keywords[0].Text)
	assert.Equal(t, int64(100), loaded.Keywords[0].PopularityMin)
}

func TestDecodeDataset_UnknownFormat(t *testing.T) {
	_, err := decodeDataset([]byte{0x7f, 1, 2})
	assert.ErrorContains(t, err, "unknown dataset format")
	_, err = decodeDataset(nil)
	assert.Error(t, err)
}

func TestStore_History_NewestFirst(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveAnalysis("ws-1", makeAnalysis("custom-a", "家用菜板", 100)))
	require.NoError(t, store.SaveAnalysis("ws-1", makeAnalysis("custom-b", "不锈钢菜板", 300)))
	require.NoError(t, store.SaveAnalysis("ws-1", makeAnalysis("custom-c", "实木菜板", 200)))

	hist, err := store.LoadHistory("ws-1")
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "custom-b", hist[0].ID)
	assert.Equal(t, "custom-c", hist[1].ID)
	assert.Equal(t, "custom-a", hist[2].ID)

	assert.Equal(t, "家用菜板", hist[2].Matched[0].Text)
	assert.Equal(t, ports.GroupOther, hist[2].Group)
}

func TestStore_SaveAnalysis_Validation(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Error(t, store.SaveAnalysis("ws-1", nil))
	assert.Error(t, store.SaveAnalysis("ws-1", &ports.TitleAnalysis{Title: "no id"}))
}

func TestStore_DeleteAnalysis(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveAnalysis("ws-1", makeAnalysis("custom-a", "家用菜板", 100)))
	require.NoError(t, store.SaveAnalysis("ws-1", makeAnalysis("custom-b", "不锈钢菜板", 200)))

	require.NoError(t, store.DeleteAnalysis("ws-1", "custom-a"))
	require.NoError(t, store.DeleteAnalysis("ws-1", "custom-a"), "idempotent")
	require.NoError(t, store.DeleteAnalysis("ws-9", "custom-a"), "missing workspace")

	hist, err := store.LoadHistory("ws-1")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "custom-b", hist[0].ID)
}

func TestStore_FreshWorkspace(t *testing.T) {
	store, _ := newTestStore(t)

	ds, err := store.LoadDataset("nope")
	require.NoError(t, err)
	assert.Nil(t, ds)

	hist, err := store.LoadHistory("nope")
	require.NoError(t, err)
	assert.Nil(t, hist)
}

func TestStore_CrashRecovery(t *testing.T) {
	// Write data, close, reopen. Data from the last committed transaction
	// is intact; bbolt fsyncs on commit.
	dir := t.TempDir()
	path := filepath.Join(dir, "crash.db")

	store, err := NewStore(path)
	require.NoError(t, err)

	ds := makeTestDataset()
	require.NoError(t, store.SaveDataset("ws-1", ds))
	require.NoError(t, store.SaveAnalysis("ws-1", makeAnalysis("custom-a", "家用菜板", 100)))
	require.NoError(t, store.Close())

	store2, err := NewStore(path)
	require.NoError(t, err)
	defer store2.Close()

	loaded, err := store2.LoadDataset("ws-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, len(ds.Keywords), len(loaded.Keywords))

	hist, err := store2.LoadHistory("ws-1")
	require.NoError(t, err)
	assert.Len(t, hist, 1)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestStore_WorkspaceScoped(t *testing.T) {
	// Two workspaces in the same file use separate buckets.
	store, _ := newTestStore(t)

	require.NoError(t, store.SaveDataset("ws-A", makeTestDataset()))
	require.NoError(t, store.SaveAnalysis("ws-A", makeAnalysis("custom-a", "家用菜板", 100)))
	require.NoError(t, store.SaveDataset("ws-B", &ports.Dataset{
		Name:     "b.csv",
		Keywords: []ports.Keyword{{ID: 1, Rank: 1, Text: "砧板"}},
	}))

	a, err := store.LoadDataset("ws-A")
	require.NoError(t, err)
	assert.Len(t, a.Keywords, 15)

	b, err := store.LoadDataset("ws-B")
	require.NoError(t, err)
	require.Len(t, b.Keywords, 1)
	assert.Equal(t, "砧板", b.Keywords[0].Text)

	histB, err := store.LoadHistory("ws-B")
	require.NoError(t, err)
	assert.Empty(t, histB)
}

func TestStore_DeleteWorkspace(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.SaveDataset("ws-A", makeTestDataset()))
	require.NoError(t, store.SaveAnalysis("ws-A", makeAnalysis("custom-a", "家用菜板", 100)))
	require.NoError(t, store.SaveDataset("ws-B", makeTestDataset()))

	require.NoError(t, store.DeleteWorkspace("ws-A"))

	ds, err := store.LoadDataset("ws-A")
	require.NoError(t, err)
	assert.Nil(t, ds)
	hist, err := store.LoadHistory("ws-A")
	require.NoError(t, err)
	assert.Nil(t, hist)

	dsB, err := store.LoadDataset("ws-B")
	require.NoError(t, err)
	assert.NotNil(t, dsB)

	assert.NoError(t, store.DeleteWorkspace("ws-C"), "idempotent")
}

func TestStore_ConcurrentReads(t *testing.T) {
	// bbolt supports concurrent readers, single writer.
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveDataset("ws-1", makeTestDataset()))

	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds, err := store.LoadDataset("ws-1")
			if err != nil {
				errs <- err
				return
			}
			if ds == nil {
				errs <- fmt.Errorf("got nil dataset")
				return
			}
			if len(ds.Keywords) != 15 {
				errs <- fmt.Errorf("expected 15 keywords, got %d", len(ds.Keywords))
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent read error: %v", err)
	}
}

func TestStore_LargeDataset_Performance(t *testing.T) {
	// A 20k-row export saves and loads well under the dashboard's patience.
	store, _ := newTestStore(t)

	ds := &ports.Dataset{Name: "big.xlsx", Source: "upload"}
	for i := 0; i < 20000; i++ {
		ds.Keywords = append(ds.Keywords, keyword.New(i+1, i+1,
			fmt.Sprintf("关键词%d", i), "1万 ~ 2万", "50.00%", "10% ~ 15%"))
	}

	start := time.Now()
	require.NoError(t, store.SaveDataset("ws-1", ds))
	saveTime := time.Since(start)

	start = time.Now()
	loaded, err := store.LoadDataset("ws-1")
	loadTime := time.Since(start)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, len(ds.Keywords), len(loaded.Keywords))
	assert.Less(t, saveTime, 2*time.Second, "save took %v", saveTime) // generous for CI
	assert.Less(t, loadTime, 2*time.Second, "load took %v", loadTime)

	t.Logf("Performance: save=%v load=%v rows=%d", saveTime, loadTime, len(ds.Keywords))
}

// =============================================================================
// Lock contention tests: verify the 1s timeout prevents hangs
// =============================================================================

func TestStore_OpenTimeout_DoesNotHang(t *testing.T) {
	// When another process/goroutine holds the bbolt exclusive lock,
	// a second open should timeout in ~1 second, not hang forever.
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	defer store1.Close()

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)

	require.Error(t, err, "second open should fail with lock timeout")
	assert.Nil(t, store2, "store should be nil on timeout")
	assert.Contains(t, err.Error(), "bbolt open")
	assert.Contains(t, err.Error(), "timeout", "error should mention timeout")
	assert.Less(t, elapsed, 3*time.Second, "should complete within 3s, not hang")
	assert.GreaterOrEqual(t, elapsed, 900*time.Millisecond, "should wait ~1s for the configured timeout")
}

func TestStore_OpenAfterClose_Succeeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "released.db")

	store1, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store1.SaveDataset("test", makeTestDataset()))
	store1.Close()

	start := time.Now()
	store2, err := NewStore(path)
	elapsed := time.Since(start)

	require.NoError(t, err, "open after close should succeed")
	require.NotNil(t, store2)
	assert.Less(t, elapsed, 500*time.Millisecond, "should open instantly after lock released")
	defer store2.Close()

	ds, err := store2.LoadDataset("test")
	require.NoError(t, err)
	assert.Len(t, ds.Keywords, 15)
}
