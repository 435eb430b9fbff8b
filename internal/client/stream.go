package client

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"famtasks/internal/realtime"
)

// Subscribe opens the API's event stream. The stream is scoped to the
// caller's household; events for any other household are dropped.
func (c *Client) Subscribe(ctx context.Context, householdID uuid.UUID) (realtime.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := c.newRequest(ctx, http.MethodGet, "/tasks/stream", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives any request timeout configured on c.http.
	streamClient := &http.Client{Transport: c.http.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, &APIError{Status: resp.StatusCode, Message: "stream unavailable"}
	}

	s := &streamSubscription{
		events: make(chan realtime.Event, 16),
		cancel: cancel,
	}
	go s.read(ctx, resp, householdID)
	return s, nil
}

type streamSubscription struct {
	events chan realtime.Event
	cancel context.CancelFunc
	once   sync.Once
}

func (s *streamSubscription) Events() <-chan realtime.Event { return s.events }

func (s *streamSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// read parses "data:" lines; comment lines are keep-alives.
func (s *streamSubscription) read(ctx context.Context, resp *http.Response, householdID uuid.UUID) {
	defer close(s.events)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var ev realtime.Event
		if err := sonic.UnmarshalString(strings.TrimSpace(strings.TrimPrefix(line, "data:")), &ev); err != nil {
			log.WithError(err).Warn("⚠️  skipping malformed stream event")
			continue
		}
		if ev.HouseholdID != householdID {
			continue
		}
		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.WithError(err).Warn("⚠️  event stream ended")
	}
}
