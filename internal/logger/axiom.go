package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog"
)

const (
	shipQueue = 1024
	shipBatch = 200
)

// shipper batches info-and-above events to an Axiom dataset. Events are
// dropped, and counted, when the queue is full; logging never blocks.
type shipper struct {
	client  *axiom.Client
	dataset string
	every   time.Duration

	queue   chan axiom.Event
	stop    chan struct{}
	done    chan struct{}
	dropped atomic.Int64
}

func newShipper(token, orgID, dataset string, every time.Duration) (*shipper, error) {
	opts := []axiom.Option{axiom.SetToken(token)}
	if orgID != "" {
		opts = append(opts, axiom.SetOrganizationID(orgID))
	}
	c, err := axiom.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	if dataset == "" {
		dataset = "dev_" + Service
	}
	if every <= 0 {
		every = 10 * time.Second
	}
	s := &shipper{
		client:  c,
		dataset: dataset,
		every:   every,
		queue:   make(chan axiom.Event, shipQueue),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run()
	return s, nil
}

func (s *shipper) Write(p []byte) (int, error) { return s.WriteLevel(zerolog.NoLevel, p) }

// WriteLevel implements zerolog.LevelWriter.
func (s *shipper) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.InfoLevel {
		return len(p), nil
	}
	ev := decodeEvent(p)
	select {
	case s.queue <- ev:
	default:
		s.dropped.Add(1)
	}
	return len(p), nil
}

func decodeEvent(p []byte) axiom.Event {
	ev := axiom.Event{}
	if err := json.Unmarshal(p, &ev); err != nil {
		ev = axiom.Event{"message": string(p), "level": zerolog.InfoLevel.String()}
	}
	ev["service"] = Service
	if _, ok := ev[ingest.TimestampField]; !ok {
		ev[ingest.TimestampField] = time.Now()
	}
	return ev
}

func (s *shipper) run() {
	defer close(s.done)
	tick := time.NewTicker(s.every)
	defer tick.Stop()

	batch := make([]axiom.Event, 0, shipBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if _, err := s.client.IngestEvents(ctx, s.dataset, batch); err != nil {
			fmt.Fprintf(os.Stderr, "axiom ingest failed, %d events lost: %v\n", len(batch), err)
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-s.queue:
			batch = append(batch, ev)
			if len(batch) == shipBatch {
				flush()
			}
		case <-tick.C:
			flush()
		case <-s.stop:
			for {
				select {
				case ev := <-s.queue:
					batch = append(batch, ev)
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close sends whatever is queued and waits for the final batch.
func (s *shipper) Close() {
	close(s.stop)
	<-s.done
	if n := s.dropped.Load(); n > 0 {
		fmt.Fprintf(os.Stderr, "axiom: %d log events dropped\n", n)
	}
}
