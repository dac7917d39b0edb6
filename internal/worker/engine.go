package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/storefront/internal/config"
	"github.com/Additional-Code/storefront/internal/messaging"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// HandlerRegistration binds a topic, and optionally a single event type on
// it, to a handler. An empty EventType matches every message on the topic.
type HandlerRegistration struct {
	Topic     string
	EventType string
	Handler   messaging.Handler
}

type route struct {
	topic     string
	eventType string
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine runs a pool of consumers over the message bus and routes each
// message to its registered handler.
type Engine struct {
	client messaging.Client
	logger *zap.Logger
	cfg    config.Messaging
	routes map[route]messaging.Handler

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{OnStart: engine.Start, OnStop: engine.Stop})
	}),
)

// NewEngine constructs the worker Engine. Registrations without a topic or
// handler are ignored.
func NewEngine(p Params) *Engine {
	routes := make(map[route]messaging.Handler, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Topic == "" || r.Handler == nil {
			continue
		}
		routes[route{topic: r.Topic, eventType: r.EventType}] = r.Handler
	}

	return &Engine{
		client: p.Client,
		logger: p.Logger,
		cfg:    p.Config.Messaging,
		routes: routes,
	}
}

// Dispatch routes msg to the handler registered for its topic and event
// type, falling back to the topic-wide handler.
func (e *Engine) Dispatch(ctx context.Context, msg messaging.Message) error {
	eventType := msg.Headers[messaging.HeaderEventType]
	handler, ok := e.routes[route{topic: msg.Topic, eventType: eventType}]
	if !ok {
		handler, ok = e.routes[route{topic: msg.Topic}]
	}
	if !ok {
		e.logger.Warn("no handler for message", zap.String("topic", msg.Topic), zap.String("event_type", eventType))
		return nil
	}
	return handler(ctx, msg)
}

// Start launches the consumer goroutines unless messaging or workers are
// disabled. Consumers outlive ctx and run until Stop.
func (e *Engine) Start(context.Context) error {
	switch {
	case !e.cfg.Enabled || !e.cfg.Workers.Enabled:
		e.logger.Info("worker engine disabled")
		return nil
	case len(e.routes) == 0:
		e.logger.Info("worker engine has no handlers; skipping")
		return nil
	}

	concurrency := max(e.cfg.Workers.Concurrency, 1)
	runCtx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	for id := range concurrency {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consume(runCtx, id)
		}()
	}

	e.logger.Info("worker engine started", zap.Int("workers", concurrency), zap.String("topic", e.client.Topic()))
	return nil
}

// Stop cancels the consumers and waits for them to drain or ctx to end.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")
		return nil
	}
}

// consume runs Consume until ctx ends, restarting it with exponential
// backoff when the client fails.
func (e *Engine) consume(ctx context.Context, workerID int) {
	backoff := initialBackoff
	for ctx.Err() == nil {
		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			e.logger.Debug("processing message",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Int("worker", workerID),
			)
			return e.Dispatch(msgCtx, msg)
		})
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Error(err), zap.Duration("retry_in", backoff))
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}
