package oddsstream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/riskibarqy/playerlink/internal/platform/logging"
	"github.com/riskibarqy/playerlink/internal/usecase"
)

func TestDecodeMessage(t *testing.T) {
	feed, inputs, err := DecodeMessage([]byte(`{"feed":"dk_push","lines":[
		{"player_name":"Jalen Brunson","game_date":"2024-01-10","home_team":"New York Knicks","away_team":"Boston Celtics","stat_type":"Points","point":26.5,"side":"OVER","price":-115,"bookmaker":"draftkings"},
		{"player_name":"Jayson Tatum","game_date":"2024-01-11T00:30:00Z","home_team":"New York Knicks","away_team":"Boston Celtics","stat_type":"rebounds","point":8.5}
	]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if feed != "dk_push" || len(inputs) != 2 {
		t.Fatalf("unexpected decode feed=%s inputs=%+v", feed, inputs)
	}
	first := inputs[0]
	if first.Stat != "points" || first.Side != "over" || first.Price == nil || *first.Price != -115 {
		t.Fatalf("unexpected first line %+v", first)
	}
	want := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if !first.GameDate.Equal(want) || !inputs[1].GameDate.Equal(want) {
		t.Fatalf("expected both lines on %s, got %s and %s", want, first.GameDate, inputs[1].GameDate)
	}
	if inputs[1].Price != nil {
		t.Fatalf("expected missing price to stay nil")
	}
}

func TestDecodeMessage_Invalid(t *testing.T) {
	for _, raw := range []string{`not json`, `{"feed":"x","lines":[]}`} {
		if _, _, err := DecodeMessage([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
	feed, inputs, err := DecodeMessage([]byte(`{"lines":[{"player_name":"A","game_date":"someday"}]}`))
	if err != nil || feed != defaultFeed || !inputs[0].GameDate.IsZero() {
		t.Fatalf("unexpected decode feed=%s inputs=%+v err=%v", feed, inputs, err)
	}
}

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		r.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

type recordingIngester struct {
	feeds []string
	lines int
}

func (i *recordingIngester) IngestLines(_ context.Context, feed string, inputs []usecase.BettingLineInput) (usecase.IngestResult, error) {
	i.feeds = append(i.feeds, feed)
	i.lines += len(inputs)
	return usecase.IngestResult{Received: len(inputs), Stored: len(inputs)}, nil
}

func TestConsumer_CommitsDecodedAndPoisonMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		messages: []kafka.Message{
			{Offset: 1, Value: []byte(`{"feed":"dk_push","lines":[{"player_name":"Jalen Brunson","game_date":"2024-01-10"}]}`)},
			{Offset: 2, Value: []byte(`garbage`)},
			{Offset: 3, Value: []byte(`{"lines":[{"player_name":"A"},{"player_name":"B"}]}`)},
		},
	}
	ingester := &recordingIngester{}

	err := newConsumer(reader, ingester, logging.NewNop()).Run(ctx)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(reader.committed) != 3 {
		t.Fatalf("expected all offsets committed, got %v", reader.committed)
	}
	if ingester.lines != 3 || len(ingester.feeds) != 2 || ingester.feeds[1] != defaultFeed {
		t.Fatalf("unexpected ingestion feeds=%v lines=%d", ingester.feeds, ingester.lines)
	}
}
