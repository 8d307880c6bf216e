// Package feed consumes roster trips files published on a NATS subject
// and imports them in postpone mode, replying with an import summary.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"orgutrip/internal/build"
	"orgutrip/internal/roster"
)

// Summary is the reply published for each processed trips file.
type Summary struct {
	Built   int      `json:"built"`
	Skipped int      `json:"skipped"`
	Unbuilt []string `json:"unbuilt,omitempty"` // trip numbers needing manual handling
	Error   string   `json:"error,omitempty"`
}

// Consumer subscribes to a subject carrying trips-file text payloads.
// Imports run in postpone mode; nothing on the feed path ever blocks on
// a prompt.
type Consumer struct {
	url     string
	subject string
	queue   string

	builder *build.Builder
	log     zerolog.Logger

	// ImportTimeout bounds one file's import. Large month files with a
	// cold database stay well under this.
	ImportTimeout time.Duration
}

// NewConsumer wires a consumer; the builder should carry a
// PostponeResolver.
func NewConsumer(url, subject, queue string, builder *build.Builder, log zerolog.Logger) *Consumer {
	return &Consumer{
		url:           url,
		subject:       subject,
		queue:         queue,
		builder:       builder,
		log:           log,
		ImportTimeout: 5 * time.Minute,
	}
}

// Run connects and consumes until the context is cancelled, then drains
// the subscription so in-flight imports finish.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := nats.Connect(c.url,
		nats.Name("orgutrip-feed"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.url, err)
	}
	defer conn.Close()

	sub, err := conn.QueueSubscribe(c.subject, c.queue, func(msg *nats.Msg) {
		c.handle(msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.subject, err)
	}

	c.log.Info().Str("url", c.url).Str("subject", c.subject).Msg("feed consumer running")
	<-ctx.Done()

	if err := sub.Drain(); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	return nil
}

func (c *Consumer) handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), c.ImportTimeout)
	defer cancel()

	summary := c.process(ctx, string(msg.Data))
	if msg.Reply == "" {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		c.log.Error().Err(err).Msg("marshal summary")
		return
	}
	if err := msg.Respond(payload); err != nil {
		c.log.Warn().Err(err).Msg("reply failed")
	}
}

func (c *Consumer) process(ctx context.Context, content string) Summary {
	trips, err := roster.ReadTrips(roster.ScrubPageNumbers(content))
	if err != nil {
		c.log.Warn().Err(err).Msg("unreadable trips payload")
		return Summary{Error: err.Error()}
	}

	if total, err := roster.TotalTrips(content); err == nil && total != len(trips) {
		c.log.Warn().Int("declared", total).Int("parsed", len(trips)).
			Msg("trips file declares a different total")
	}

	res, err := c.builder.Import(ctx, trips)
	if err != nil {
		c.log.Error().Err(err).Msg("import failed")
		return Summary{Error: err.Error()}
	}

	summary := Summary{Built: res.Built, Skipped: res.Skipped}
	for _, u := range res.Unbuilt {
		summary.Unbuilt = append(summary.Unbuilt, u.Data.Number)
	}
	return summary
}
