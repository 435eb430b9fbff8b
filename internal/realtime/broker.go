package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const channelPrefix = "tasks:"

func Channel(householdID uuid.UUID) string {
	return channelPrefix + householdID.String()
}

// Broker fans task changes out to every API instance through redis pub/sub.
type Broker struct {
	rc *redis.Client
}

var (
	_ Source    = (*Broker)(nil)
	_ Publisher = (*Broker)(nil)
)

func NewBroker(rc *redis.Client) *Broker {
	return &Broker{rc: rc}
}

func (b *Broker) Publish(ctx context.Context, ev Event) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	return b.rc.Publish(ctx, Channel(ev.HouseholdID), data).Err()
}

// Subscribe returns once redis has confirmed the subscription, so every event
// published afterwards is delivered.
func (b *Broker) Subscribe(ctx context.Context, householdID uuid.UUID) (Subscription, error) {
	ps := b.rc.Subscribe(ctx, Channel(householdID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(householdID), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &redisSubscription{
		ps:     ps,
		events: make(chan Event, 16),
		cancel: cancel,
	}
	go s.run(ctx)
	return s, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan Event
	cancel context.CancelFunc
	once   sync.Once
}

func (s *redisSubscription) Events() <-chan Event { return s.events }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.ps.Close()
	})
	return err
}

func (s *redisSubscription) run(ctx context.Context) {
	defer close(s.events)
	ch := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := sonic.UnmarshalString(msg.Payload, &ev); err != nil {
				log.WithError(err).WithField("channel", msg.Channel).Error("❌ unable to decode task event")
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
