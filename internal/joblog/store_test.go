package joblog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jonathan/apply-agent/internal/types"
)

func sampleJob(i int) types.JobPosting {
	return types.JobPosting{
		Title:    fmt.Sprintf("Fullstack Engineer %d", i),
		Company:  "Adobe",
		Link:     fmt.Sprintf("https://careers.adobe.com/job/%d", i),
		FitScore: 0.8,
		Location: "San Jose, CA",
		Salary:   "$150k, plus equity",
	}
}

func TestStore_AppendAndList(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "jobs.csv"))

	require.NoError(t, store.Append(sampleJob(1)))
	require.NoError(t, store.Append(sampleJob(2)))

	jobs, err := store.List()
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Fullstack Engineer 1", jobs[0].Title)
	assert.Equal(t, "$150k, plus equity", jobs[0].Salary)
	assert.Equal(t, "San Jose, CA", jobs[1].Location)
	assert.Zero(t, jobs[1].FitScore)
}

func TestStore_ColumnOrder(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "jobs.csv"))
	require.NoError(t, store.Append(types.JobPosting{
		Title: "SWE", Company: "Acme", Link: "https://acme.dev/1", Salary: "100k", Location: "Remote",
	}))

	raw, err := store.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, "SWE,Acme,https://acme.dev/1,100k,Remote\n", raw)
}

func TestStore_RejectsInvalidJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	store := NewStore(path)

	err := store.Append(types.JobPosting{Title: "No link", Company: "Acme"})
	assert.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing is written for an invalid job")
}

func TestStore_MissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.csv"))

	raw, err := store.ReadRaw()
	require.NoError(t, err)
	assert.Empty(t, raw)

	jobs, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "jobs.csv"))

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Append(sampleJob(i)))
		}(i)
	}
	wg.Wait()

	jobs, err := store.List()
	require.NoError(t, err)
	assert.Len(t, jobs, 25)
}

func TestStore_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	require.NoError(t, os.WriteFile(path, []byte("only,three,columns\n"), 0o644))

	_, err := NewStore(path).List()
	assert.Error(t, err)
}

func TestNewStore_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, NewStore("").Path())
}

func TestExportXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportXLSX([]types.JobPosting{sampleJob(1), sampleJob(2)}, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Title", "Company", "Link", "Salary", "Location"}, rows[0])
	assert.Equal(t, "Fullstack Engineer 2", rows[2][0])
	assert.True(t, strings.HasPrefix(rows[1][2], "https://careers.adobe.com/"))
}
