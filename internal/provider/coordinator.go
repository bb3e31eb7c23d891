// Package provider implements the tracer-provider coordinator: a single
// long-lived goroutine that owns the shared tracing configuration (resource,
// sampler, id generation, span processor chain, deny-list) and mediates all
// access to it through a FIFO mailbox. The mailbox is the sole synchronization
// mechanism; no field of the coordinator's state is touched outside its own
// handling loop.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sdkresource "go.opentelemetry.io/otel/sdk/resource"

	"github.com/gxo-labs/weft/internal/config"
	"github.com/gxo-labs/weft/internal/idgen"
	"github.com/gxo-labs/weft/internal/logger"
	"github.com/gxo-labs/weft/internal/metrics"
	"github.com/gxo-labs/weft/internal/processor"
	"github.com/gxo-labs/weft/internal/resource"
	"github.com/gxo-labs/weft/internal/sampler"
	weft "github.com/gxo-labs/weft/pkg/weft/v1"
	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"
	weftlog "github.com/gxo-labs/weft/pkg/weft/v1/log"
	wefttrace "github.com/gxo-labs/weft/pkg/weft/v1/trace"
)

// ErrStopped is returned by requests made against a coordinator whose mailbox
// has been closed by Shutdown.
var ErrStopped = errors.New("provider coordinator is stopped")

// defaultMailboxSize bounds the number of requests queued ahead of the
// handling loop. Senders block once the mailbox is full; they are answered in
// FIFO order.
const defaultMailboxSize = 64

// Options configures a coordinator.
type Options struct {
	// Config is the loaded tracing configuration. Required.
	Config *config.Config
	// Registry resolves processor type names to factories. Defaults to the
	// global static registry populated by processor modules' init functions.
	Registry wefttrace.ProcessorRegistry
	// Logger receives the coordinator's operational logs. Defaults to a text
	// logger at info level on stderr.
	Logger weftlog.Logger
	// Metrics instruments the coordinator. Nil disables instrumentation.
	Metrics *metrics.CoordinatorMetrics
	// MailboxSize overrides the request queue depth. Non-positive selects the
	// default.
	MailboxSize int
}

// providerState is the coordinator's private aggregate. It is created before
// the handling loop starts and owned exclusively by that loop afterwards.
type providerState struct {
	// template is nil in degraded mode; otherwise immutable for the run.
	template *tracerTemplate
	res      *sdkresource.Resource
	deny     *DenyList
	entries  []Entry
}

// Request and reply shapes of the coordinator mailbox.
type resourceRequest struct {
	reply chan *sdkresource.Resource
}

type tracerRequest struct {
	scope wefttrace.InstrumentationScope
	reply chan tracerReply
}

type tracerReply struct {
	kind   wefttrace.TracerKind
	tracer wefttrace.Tracer
}

type flushRequest struct {
	reply chan error
}

type shutdownRequest struct {
	ctx   context.Context
	reply chan error
}

// Coordinator is the actor owning the tracer-provider state. All exported
// methods are safe for concurrent use; they communicate with the handling
// loop exclusively through the mailbox.
type Coordinator struct {
	mailbox chan interface{}
	// stopped is closed when the handling loop exits. Requests racing with
	// shutdown observe it instead of blocking forever.
	stopped  chan struct{}
	log      weftlog.Logger
	metrics  *metrics.CoordinatorMetrics
	shutOnce sync.Once
}

// Compile-time check that the coordinator satisfies the public Provider interface.
var _ weft.Provider = (*Coordinator)(nil)

// New builds the coordinator's state and starts its handling loop. Startup is
// synchronous: resource detection, sampler construction and processor
// materialization complete before New returns, so the one permitted
// config mutation (a startable processor replacing its own config) happens
// before any request is served. New fails only on invalid options; processor
// failures are contained and merely shrink the surviving list.
func New(ctx context.Context, opts Options) (*Coordinator, error) {
	if opts.Config == nil {
		return nil, werrors.NewConfigError("coordinator options require a non-nil Config", nil)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewDefaultLogger("info")
	}
	log = log.With("component", "TracerProvider")
	registry := opts.Registry
	if registry == nil {
		registry = processor.DefaultStaticRegistryGetter
	}
	mailboxSize := opts.MailboxSize
	if mailboxSize <= 0 {
		mailboxSize = defaultMailboxSize
	}

	cfg := opts.Config

	st := &providerState{
		res:  resource.Detect(ctx, cfg.Service.Name, log),
		deny: NewDenyList(cfg.DenyList),
	}
	st.entries = materializeProcessors(cfg.Processors, registry, log, opts.Metrics)

	// The template is built only when tracing is enabled and both shared
	// collaborators construct. Otherwise the coordinator serves in degraded
	// mode: processors still flush, but every tracer request yields noop.
	switch {
	case cfg.Disabled:
		log.Infof("Tracing disabled by configuration; serving noop tracers")
	default:
		smp, err := sampler.New(cfg.Sampler)
		if err != nil {
			log.Warnf("Sampler construction failed, entering degraded mode: %v", err)
			break
		}
		gen, err := idgen.New(cfg.IDGenerator)
		if err != nil {
			log.Warnf("ID generator construction failed, entering degraded mode: %v", err)
			break
		}
		st.template = newTracerTemplate(smp, gen, st.entries, st.res)
		log.Debugf("Tracer template ready (sampler=%s, processors=%d, deny_rules=%d)",
			smp.Description(), len(st.entries), st.deny.Len())
	}

	c := &Coordinator{
		mailbox: make(chan interface{}, mailboxSize),
		stopped: make(chan struct{}),
		log:     log,
		metrics: opts.Metrics,
	}
	go c.loop(st)
	return c, nil
}

// loop is the coordinator's single-consumer handling loop. It owns st
// exclusively and processes one request at a time in arrival order.
func (c *Coordinator) loop(st *providerState) {
	defer close(c.stopped)
	for msg := range c.mailbox {
		switch req := msg.(type) {
		case resourceRequest:
			req.reply <- st.res
		case tracerRequest:
			req.reply <- c.tracerFor(st, req.scope)
		case flushRequest:
			req.reply <- flushAll(st.entries, c.log, c.metrics)
		case shutdownRequest:
			req.reply <- c.teardown(req.ctx, st)
			return
		default:
			// Unrecognized message shapes are tolerated so callers with a
			// newer or older protocol cannot crash the coordinator.
			c.log.Debugf("Ignoring unrecognized coordinator message of type %T", msg)
		}
	}
}

// tracerFor answers a get-tracer request from the held state. Degraded mode
// yields noop unconditionally; otherwise the deny-list is consulted and a
// handle is stamped from the template. Pure read, no mutation.
func (c *Coordinator) tracerFor(st *providerState, scope wefttrace.InstrumentationScope) tracerReply {
	if st.template == nil {
		return tracerReply{kind: wefttrace.KindNoop, tracer: theNoopTracer}
	}
	if st.deny.Denies(scope.Name) {
		c.metrics.IncTracersDenied()
		c.log.Debugf("Scope '%s' is deny-listed; returning noop tracer", scope.Name)
		return tracerReply{kind: wefttrace.KindNoop, tracer: theNoopTracer}
	}
	return tracerReply{kind: wefttrace.KindDefault, tracer: st.template.tracer(scope, c.metrics)}
}

// teardown flushes every surviving processor and then shuts down the ones
// exposing the optional stop capability. Stop failures are logged, not
// surfaced; the flush result is what the Shutdown caller observes.
func (c *Coordinator) teardown(ctx context.Context, st *providerState) error {
	flushErr := flushAll(st.entries, c.log, c.metrics)
	for _, e := range st.entries {
		stoppable, ok := e.Processor.(wefttrace.Stoppable)
		if !ok {
			continue
		}
		if err := stopProcessor(ctx, stoppable, e); err != nil {
			c.log.Warnf("Span processor '%s' shutdown failed: %v", e.Name, err)
		}
	}
	return flushErr
}

// stopProcessor guards a processor's Shutdown the same way startup and flush
// calls are guarded.
func stopProcessor(ctx context.Context, s wefttrace.Stoppable, e Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("shutdown panicked: %v", r)
		}
	}()
	return s.Shutdown(ctx, e.Config)
}

// Resource implements weft.Provider.
func (c *Coordinator) Resource(ctx context.Context) (*sdkresource.Resource, error) {
	req := resourceRequest{reply: make(chan *sdkresource.Resource, 1)}
	select {
	case c.mailbox <- req:
	case <-c.stopped:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-c.stopped:
		// The loop may have replied just before exiting; prefer the reply.
		select {
		case res := <-req.reply:
			return res, nil
		default:
			return nil, ErrStopped
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Tracer implements weft.Provider.
func (c *Coordinator) Tracer(ctx context.Context, name string, opts ...wefttrace.TracerOption) (wefttrace.Tracer, wefttrace.TracerKind) {
	tc := wefttrace.NewTracerConfig(opts...)
	return c.TracerForScope(ctx, wefttrace.InstrumentationScope{
		Name:      name,
		Version:   tc.InstrumentationVersion(),
		SchemaURL: tc.SchemaURL(),
	})
}

// TracerForScope implements weft.Provider. It never fails: a stopped
// coordinator or abandoned request yields a usable noop handle.
func (c *Coordinator) TracerForScope(ctx context.Context, scope wefttrace.InstrumentationScope) (wefttrace.Tracer, wefttrace.TracerKind) {
	req := tracerRequest{scope: scope, reply: make(chan tracerReply, 1)}
	select {
	case c.mailbox <- req:
	case <-c.stopped:
		return theNoopTracer, wefttrace.KindNoop
	case <-ctx.Done():
		return theNoopTracer, wefttrace.KindNoop
	}
	select {
	case rep := <-req.reply:
		return rep.tracer, rep.kind
	case <-c.stopped:
		select {
		case rep := <-req.reply:
			return rep.tracer, rep.kind
		default:
			return theNoopTracer, wefttrace.KindNoop
		}
	case <-ctx.Done():
		return theNoopTracer, wefttrace.KindNoop
	}
}

// ForceFlush implements weft.Provider. The per-processor flush calls run
// sequentially inside the coordinator's single request slot: a slow processor
// delays subsequent requests, which is accepted because flush is low
// frequency. Callers wanting concurrency issue the request from their own
// goroutine.
func (c *Coordinator) ForceFlush(ctx context.Context) error {
	req := flushRequest{reply: make(chan error, 1)}
	select {
	case c.mailbox <- req:
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-c.stopped:
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown implements weft.Provider. It flushes, stops the surviving
// processors and terminates the handling loop. Shutdown is idempotent:
// calling it on an already stopped coordinator returns nil.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	var err error
	delivered := false
	c.shutOnce.Do(func() {
		req := shutdownRequest{ctx: ctx, reply: make(chan error, 1)}
		select {
		case c.mailbox <- req:
		case <-c.stopped:
			delivered = true
			return
		case <-ctx.Done():
			err = ctx.Err()
			delivered = true
			return
		}
		select {
		case err = <-req.reply:
		case <-ctx.Done():
			err = ctx.Err()
		}
		delivered = true
	})
	if !delivered {
		// A concurrent Shutdown won the race; wait for the loop to exit.
		select {
		case <-c.stopped:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Notify posts an arbitrary message to the coordinator's mailbox without
// awaiting a reply. Messages the handling loop does not recognize are accepted
// and ignored rather than causing a crash, to tolerate forward/backward
// protocol skew from callers.
func (c *Coordinator) Notify(msg interface{}) {
	select {
	case c.mailbox <- msg:
	case <-c.stopped:
	}
}
