package push

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"famtasks/internal/model"
	"famtasks/internal/ratelimit"
)

var (
	ErrNotConfigured   = errors.New("push notifications not configured")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrRateLimited     = errors.New("too many requests")
	ErrInvalidInput    = errors.New("missing required fields")
	ErrForbidden       = errors.New("forbidden")
)

const defaultConcurrency = 16

const tracerName = "famtasks/push"

// Message is a notification request from a household member.
type Message struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	HouseholdID string `json:"householdId"`
	URL         string `json:"url,omitempty"`
}

type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

type ProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
	ListOtherMemberIDs(ctx context.Context, householdID, excludeID uuid.UUID) ([]uuid.UUID, error)
}

type SubscriptionStore interface {
	ListByProfiles(ctx context.Context, profileIDs []uuid.UUID) ([]model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

type Dispatcher struct {
	vapid         *VAPID
	limiter       ratelimit.Limiter
	profiles      ProfileStore
	subscriptions SubscriptionStore
	sender        Sender
	concurrency   int
	sentTotal     *atomic.Int64
}

func NewDispatcher(vapid *VAPID, limiter ratelimit.Limiter, profiles ProfileStore, subscriptions SubscriptionStore, sender Sender, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Dispatcher{
		vapid:         vapid,
		limiter:       limiter,
		profiles:      profiles,
		subscriptions: subscriptions,
		sender:        sender,
		concurrency:   concurrency,
		sentTotal:     atomic.NewInt64(0),
	}
}

// PublicKey returns the VAPID public key browsers subscribe with.
func (d *Dispatcher) PublicKey() (string, error) {
	if err := d.vapid.Ensure(); err != nil {
		return "", ErrNotConfigured
	}
	return d.vapid.PublicKey, nil
}

// SentTotal is the number of notifications delivered since startup.
func (d *Dispatcher) SentTotal() int64 {
	return d.sentTotal.Load()
}

// Dispatch sends msg to every subscription of the other members of the
// caller's household and returns how many deliveries succeeded. Individual
// delivery failures never fail the dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, callerID uuid.UUID, msg Message) (int, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "push.Dispatch", trace.WithAttributes(
		attribute.String("household.id", msg.HouseholdID),
	))
	defer span.End()

	sent, err := d.dispatch(ctx, callerID, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int("push.sent", sent))
	return sent, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, callerID uuid.UUID, msg Message) (int, error) {
	if err := d.vapid.Ensure(); err != nil {
		log.WithError(err).Error("❌ push credentials invalid")
		return 0, ErrNotConfigured
	}
	if callerID == uuid.Nil {
		return 0, ErrUnauthenticated
	}

	allowed, err := d.limiter.Allow(ctx, callerID.String())
	if err != nil {
		return 0, fmt.Errorf("rate limit: %w", err)
	}
	if !allowed {
		return 0, ErrRateLimited
	}

	if msg.Title == "" || msg.Body == "" || msg.HouseholdID == "" {
		return 0, ErrInvalidInput
	}

	sender, err := d.profiles.GetByID(ctx, callerID)
	if err != nil {
		return 0, fmt.Errorf("load sender profile: %w", err)
	}
	if sender == nil || sender.HouseholdID == nil || sender.HouseholdID.String() != msg.HouseholdID {
		return 0, ErrForbidden
	}
	householdID := *sender.HouseholdID

	memberIDs, err := d.profiles.ListOtherMemberIDs(ctx, householdID, callerID)
	if err != nil {
		return 0, fmt.Errorf("list household members: %w", err)
	}
	if len(memberIDs) == 0 {
		return 0, nil
	}

	subs, err := d.subscriptions.ListByProfiles(ctx, memberIDs)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, nil
	}

	url := msg.URL
	if url == "" {
		url = "/"
	}
	body, err := sonic.Marshal(payload{Title: msg.Title, Body: msg.Body, URL: url})
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	sent := atomic.NewInt64(0)
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, sub := range subs {
		g.Go(func() error {
			err := d.sender.Send(ctx, sub, body)
			if err == nil {
				sent.Inc()
				return nil
			}
			entry := log.WithField("endpoint", sub.Endpoint).WithError(err)
			if errors.Is(err, ErrSubscriptionGone) {
				if derr := d.subscriptions.DeleteByEndpoint(ctx, sub.Endpoint); derr != nil {
					entry.WithField("cleanup_error", derr).Warn("⚠️  failed to remove gone subscription")
				} else {
					entry.Info("🧹 removed gone subscription")
				}
				return nil
			}
			entry.Warn("⚠️  push delivery failed")
			return nil
		})
	}
	_ = g.Wait()

	n := int(sent.Load())
	d.sentTotal.Add(int64(n))
	return n, nil
}
