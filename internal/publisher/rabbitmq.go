package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"feed_triage/internal/domain"
)

// RabbitMQ hands finished rankings to the display loop over a durable
// direct exchange.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

// RankingMessage is the wire form of one ranking pass. High and Low keep the
// ranked order.
type RankingMessage struct {
	Algo      string        `json:"algo"`
	Cutoff    float64       `json:"cutoff"`
	High      []RankedEntry `json:"high"`
	Low       []RankedEntry `json:"low"`
	Timestamp time.Time     `json:"timestamp"`
}

type RankedEntry struct {
	GUID        string   `json:"guid"`
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	PublishedAt int64    `json:"published_at"`
	Score       float64  `json:"score"`
}

func NewRankingMessage(r *domain.Ranking, at time.Time) RankingMessage {
	return RankingMessage{
		Algo:      r.Algo,
		Cutoff:    r.Cutoff,
		High:      rankedEntries(r.High),
		Low:       rankedEntries(r.Low),
		Timestamp: at.UTC(),
	}
}

func rankedEntries(scored []domain.Scored) []RankedEntry {
	out := make([]RankedEntry, len(scored))
	for i, s := range scored {
		out[i] = RankedEntry{
			GUID:        s.Entry.GUID,
			Title:       s.Entry.Title,
			Link:        s.Entry.Link,
			Author:      s.Entry.Author,
			Tags:        s.Entry.Tags,
			PublishedAt: s.Entry.Timestamp,
			Score:       s.Score,
		}
	}
	return out
}

func (r *RabbitMQ) Publish(ctx context.Context, ranking *domain.Ranking) error {
	msg := NewRankingMessage(ranking, time.Now())

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    msg.Timestamp,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published ranking",
		"algo", ranking.Algo,
		"high", len(msg.High),
		"low", len(msg.Low),
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
