package jobsearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-agent/internal/llm"
)

func TestSearcher_RunsEveryTask(t *testing.T) {
	acme := careersServer(t, http.StatusOK, careersHTML)
	globex := careersServer(t, http.StatusOK, careersHTML)

	stub := &llm.StubClient{ReplyFunc: func(_, user string) (string, error) {
		for _, srv := range []string{acme.URL, globex.URL} {
			if strings.Contains(user, "Links from "+srv+" (") {
				return matchReply(fmt.Sprintf(`{"title": "Senior Fullstack Engineer", "link": "%s/jobs/1", "fit_score": 0.9}`, srv)), nil
			}
		}
		return matchReply(), nil
	}}
	agent := newTestAgent(t, stub)

	tasks := []Task{
		{Company: "Acme", URL: acme.URL, Role: "fullstack"},
		{Company: "Broken", URL: "ftp://broken.example.com", Role: "fullstack"},
		{Company: "Globex", URL: globex.URL, Role: "fullstack"},
	}
	results, err := NewSearcher(agent, 0, zerolog.Nop()).Search(context.Background(), tasks)

	require.Error(t, err, "the failing task is reported")
	assert.Contains(t, err.Error(), "Broken")

	require.Len(t, results, 3)
	assert.Equal(t, "Acme", results[0].Task.Company)
	assert.Len(t, results[0].Saved, 1)
	assert.Error(t, results[1].Err)
	assert.Empty(t, results[1].Saved)
	assert.Len(t, results[2].Saved, 1, "a failing task does not stop the others")

	jobs, err := agent.Tools.Store.List()
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestSearcher_AllSucceed(t *testing.T) {
	server := careersServer(t, http.StatusOK, careersHTML)
	agent := newTestAgent(t, &llm.StubClient{Reply: matchReply()})

	results, err := NewSearcher(agent, 2, zerolog.Nop()).Search(context.Background(), []Task{
		{Company: "A", URL: server.URL},
		{Company: "B", URL: server.URL},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}

func TestSearcher_ConcurrencyLimit(t *testing.T) {
	server := careersServer(t, http.StatusOK, careersHTML)

	var inFlight, peak atomic.Int32
	stub := &llm.StubClient{ReplyFunc: func(_, _ string) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return matchReply(), nil
	}}
	agent := newTestAgent(t, stub)

	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = Task{Company: fmt.Sprintf("C%d", i), URL: server.URL}
	}
	_, err := NewSearcher(agent, 2, zerolog.Nop()).Search(context.Background(), tasks)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 6, stub.CallCount())
}

func TestSearcher_NoTasks(t *testing.T) {
	agent := newTestAgent(t, &llm.StubClient{})

	results, err := NewSearcher(agent, 0, zerolog.Nop()).Search(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
