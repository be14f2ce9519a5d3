package oddsstream

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"

	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/usecase"
)

const (
	defaultFeed   = "odds_stream"
	readBackoff   = 500 * time.Millisecond
	gameDateValue = "2006-01-02"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ReaderConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// NewReader builds a consumer-group reader that commits offsets explicitly.
func NewReader(cfg ReaderConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// MessageReader is the subset of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type lineIngester interface {
	IngestLines(ctx context.Context, feed string, inputs []usecase.BettingLineInput) (usecase.IngestResult, error)
}

// Consumer feeds betting lines published on a Kafka topic into the ingestion service.
type Consumer struct {
	reader MessageReader
	ingest lineIngester
	logger *logging.Logger
}

func NewConsumer(reader MessageReader, ingest *usecase.IngestionService, logger *logging.Logger) *Consumer {
	return newConsumer(reader, ingest, logger)
}

func newConsumer(reader MessageReader, ingest lineIngester, logger *logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Consumer{reader: reader, ingest: ingest, logger: logger.Named("oddsstream")}
}

// Run consumes until ctx is cancelled. Undecodable messages are logged and committed so
// they do not block the partition.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.WarnContext(ctx, "kafka fetch failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(readBackoff):
			}
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			return err
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.WarnContext(ctx, "kafka commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	feed, inputs, err := DecodeMessage(msg.Value)
	if err != nil {
		c.logger.WarnContext(ctx, "dropping undecodable odds message",
			"partition", msg.Partition, "offset", msg.Offset, "error", err)
		return nil
	}

	result, err := c.ingest.IngestLines(ctx, feed, inputs)
	if err != nil {
		return errors.Wrapf(err, "ingest message offset=%d", msg.Offset)
	}
	c.logger.InfoContext(ctx, "odds message ingested",
		"feed", feed,
		"offset", msg.Offset,
		"stored", result.Stored,
		"rejected", result.Rejected,
		"failed", result.Failed,
	)
	return nil
}

type streamMessage struct {
	Feed  string       `json:"feed"`
	Lines []streamLine `json:"lines"`
}

type streamLine struct {
	PlayerName string   `json:"player_name"`
	GameDate   string   `json:"game_date"`
	EventID    string   `json:"event_id"`
	HomeTeam   string   `json:"home_team"`
	AwayTeam   string   `json:"away_team"`
	Stat       string   `json:"stat_type"`
	Point      float64  `json:"point"`
	Side       string   `json:"side"`
	Price      *float64 `json:"price"`
	Bookmaker  string   `json:"bookmaker"`
}

// DecodeMessage parses a {"feed": ..., "lines": [...]} payload. game_date is either a
// calendar date or an RFC 3339 timestamp; an unparseable date leaves GameDate zero and
// the line is rejected at ingestion.
func DecodeMessage(value []byte) (string, []usecase.BettingLineInput, error) {
	var msg streamMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return "", nil, errors.Wrap(err, "decode odds message")
	}
	if len(msg.Lines) == 0 {
		return "", nil, errors.New("odds message has no lines")
	}
	feed := strings.TrimSpace(msg.Feed)
	if feed == "" {
		feed = defaultFeed
	}

	inputs := make([]usecase.BettingLineInput, 0, len(msg.Lines))
	for _, l := range msg.Lines {
		inputs = append(inputs, usecase.BettingLineInput{
			PlayerName: l.PlayerName,
			GameDate:   parseGameDate(l.GameDate),
			EventID:    l.EventID,
			HomeTeam:   l.HomeTeam,
			AwayTeam:   l.AwayTeam,
			Stat:       strings.ToLower(strings.TrimSpace(l.Stat)),
			Point:      l.Point,
			Side:       strings.ToLower(strings.TrimSpace(l.Side)),
			Price:      l.Price,
			Bookmaker:  l.Bookmaker,
		})
	}
	return feed, inputs, nil
}

func parseGameDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(gameDateValue, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return usecase.EasternDate(t)
	}
	return time.Time{}
}
