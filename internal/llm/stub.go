package llm

import (
	"context"
	"sync"
)

// StubClient is a Client that returns canned replies. It records every call.
type StubClient struct {
	mu sync.Mutex

	// Reply is returned for every call unless ReplyFunc is set.
	Reply string
	// Err is returned for every call when set.
	Err error
	// ReplyFunc computes a reply from the request.
	ReplyFunc func(system, user string) (string, error)

	Calls []StubCall
}

// StubCall is one recorded request.
type StubCall struct {
	System string
	User   string
	Tier   ModelTier
}

var _ Client = (*StubClient)(nil)

func (s *StubClient) reply(system, user string, tier ModelTier) (string, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, StubCall{System: system, User: user, Tier: tier})
	s.mu.Unlock()

	if s.Err != nil {
		return "", s.Err
	}
	if s.ReplyFunc != nil {
		return s.ReplyFunc(system, user)
	}
	return s.Reply, nil
}

// Chat implements Client.
func (s *StubClient) Chat(_ context.Context, system, user string, tier ModelTier) (string, error) {
	return s.reply(system, user, tier)
}

// GetModel implements Client.
func (s *StubClient) GetModel(tier ModelTier) string {
	return "stub-" + string(tier)
}

// Close implements Client.
func (s *StubClient) Close() error {
	return nil
}

// CallCount returns the number of recorded calls.
func (s *StubClient) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
