package health

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/amerigo/quote-service/internal/diagnostics"
)

const probeTimeout = 10 * time.Second

// Checker periodically probes the configured webhook endpoints so that a dead
// automation platform shows up in diagnostics before a customer submission
// hits it.
type Checker struct {
	urls     []string
	schedule string
	client   *http.Client
	recorder *diagnostics.Recorder
	cron     *cron.Cron
	log      zerolog.Logger
}

func NewChecker(urls []string, schedule string, recorder *diagnostics.Recorder, log zerolog.Logger) *Checker {
	return &Checker{
		urls:     urls,
		schedule: schedule,
		client:   &http.Client{Timeout: probeTimeout},
		recorder: recorder,
		cron:     cron.New(),
		log:      log,
	}
}

// Start registers the probe job and launches the scheduler.
func (c *Checker) Start() error {
	if _, err := c.cron.AddFunc(c.schedule, c.probeAll); err != nil {
		return err
	}
	c.cron.Start()
	c.log.Info().Str("schedule", c.schedule).Int("endpoints", len(c.urls)).Msg("webhook health checks enabled")
	return nil
}

// Stop halts the scheduler and waits for a running probe to finish.
func (c *Checker) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *Checker) probeAll() {
	for _, url := range c.urls {
		c.probe(url)
	}
}

// probe issues a HEAD request; the automation platform answers 405 on HEAD,
// which still proves the endpoint is alive, so anything below 500 counts as
// reachable.
func (c *Checker) probe(url string) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	attempt := diagnostics.Attempt{
		RequestID: uuid.NewString(),
		URL:       url,
		Kind:      diagnostics.KindHealth,
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		attempt.Error = err.Error()
		c.recorder.Record(attempt)
		return
	}

	resp, err := c.client.Do(req)
	attempt.ResponseTime = time.Since(start)
	if err != nil {
		attempt.Error = err.Error()
		c.recorder.Record(attempt)
		c.log.Warn().Err(err).Str("url", url).Msg("webhook endpoint unreachable")
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	attempt.StatusCode = resp.StatusCode
	attempt.Success = resp.StatusCode < http.StatusInternalServerError
	c.recorder.Record(attempt)

	if !attempt.Success {
		c.log.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("webhook endpoint unhealthy")
	}
}
