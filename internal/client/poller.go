package client

import (
	"context"
	"time"

	"github.com/PaulBabatuyi/skillshub/internal/data"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DefaultPollInterval matches the web client's refresh rate.
const DefaultPollInterval = 3 * time.Second

// ConversationFetcher loads the messages exchanged with a user.
type ConversationFetcher interface {
	Conversation(ctx context.Context, userID string) ([]*data.Message, error)
}

// Poller refreshes one conversation on a fixed interval. There is no backoff;
// a failed fetch is reported and retried on the next tick.
type Poller struct {
	fetcher  ConversationFetcher
	userID   string
	interval time.Duration
	seen     map[bson.ObjectID]struct{}

	// OnMessages receives messages not delivered before, oldest first.
	OnMessages func([]*data.Message)
	// OnError receives fetch failures. Optional.
	OnError func(error)
}

// NewPoller returns a Poller for the conversation with userID. A non-positive
// interval selects DefaultPollInterval.
func NewPoller(f ConversationFetcher, userID string, interval time.Duration, onMessages func([]*data.Message)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		fetcher:    f,
		userID:     userID,
		interval:   interval,
		seen:       map[bson.ObjectID]struct{}{},
		OnMessages: onMessages,
	}
}

// Run fetches immediately, then on every tick, until ctx is cancelled.
// Cancelling is how a caller switches conversation or shuts down.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	msgs, err := p.fetcher.Conversation(ctx, p.userID)
	if err != nil {
		if ctx.Err() == nil && p.OnError != nil {
			p.OnError(err)
		}
		return
	}

	var fresh []*data.Message
	for _, m := range msgs {
		if _, ok := p.seen[m.ID]; ok {
			continue
		}
		p.seen[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	if len(fresh) > 0 && p.OnMessages != nil {
		p.OnMessages(fresh)
	}
}
