package clone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/pigram/internal/checkpoint"
)

// Config wires a Cloner.
type Config struct {
	Client  Client
	Store   checkpoint.Store
	Options Options
	// Classify overrides service-message detection. When nil and Client
	// implements Classifier, the client's classification is used.
	Classify ClassifyFunc
	// Sleep overrides every pause of the governor. Nil uses real timers.
	Sleep  SleepFunc
	Logger *slog.Logger
	Tracer trace.Tracer
}

// Result summarises a finished run.
type Result struct {
	State       State
	Source      Peer
	Target      Peer
	ResumedFrom int
	LastID      int
	Processed   int
	Errors      int
}

// Cloner drives clone runs. One Cloner may serve many sequential runs; runs
// for the same chat pair never overlap.
type Cloner struct {
	cfg      Config
	classify ClassifyFunc
	logger   *slog.Logger
	tracer   trace.Tracer

	mu     sync.Mutex
	active map[checkpoint.Key]struct{}
	cancel map[int]context.CancelFunc
	nextID int
}

// New validates cfg and returns a Cloner.
func New(cfg Config) (*Cloner, error) {
	if cfg.Client == nil {
		return nil, errors.New("clone: client is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("clone: checkpoint store is required")
	}
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	cfg.Options = cfg.Options.normalized()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = defaultTracer()
	}

	classify := cfg.Classify
	if classify == nil {
		if c, ok := cfg.Client.(Classifier); ok {
			classify = c.IsService
		}
	}

	return &Cloner{
		cfg:      cfg,
		classify: classify,
		logger:   logger.With("component", "clone"),
		tracer:   tracer,
		active:   make(map[checkpoint.Key]struct{}),
		cancel:   make(map[int]context.CancelFunc),
	}, nil
}

// Run executes one clone job to completion, cancellation, or fatal error.
// Progress is delivered to observer without blocking the loop; every queued
// event has been delivered when Run returns.
//
// The returned error is nil only for a Completed run. Cancellation returns
// the context error with an Aborted result; the last saved checkpoint stays
// valid for a later resume.
func (c *Cloner) Run(ctx context.Context, job Job, observer Observer) (Result, error) {
	if err := job.Validate(); err != nil {
		return Result{State: StateAborted}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	id := c.track(cancel)
	defer c.untrack(id)

	ctx, span := c.tracer.Start(ctx, "clone.run", trace.WithAttributes(
		attribute.String("clone.source", string(job.Source)),
		attribute.String("clone.target", string(job.Target)),
	))
	defer span.End()

	p := newPump(observer)
	r := c.newRun(job, p)
	res, err := r.execute(ctx)
	p.close()

	span.SetAttributes(
		attribute.String("clone.state", res.State.String()),
		attribute.Int("clone.processed", res.Processed),
		attribute.Int("clone.errors", res.Errors),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if dropped := p.dropped.Load(); dropped > 0 {
		c.logger.Debug("progress events dropped", "count", dropped)
	}
	return res, err
}

// Stop cancels every run in progress. Runs end in the Aborted state.
func (c *Cloner) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cancel := range c.cancel {
		cancel()
	}
}

func (c *Cloner) track(cancel context.CancelFunc) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.cancel[c.nextID] = cancel
	return c.nextID
}

func (c *Cloner) untrack(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cancel, id)
}

// claim marks key as running. The returned func releases it.
func (c *Cloner) claim(key checkpoint.Key) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.active[key]; busy {
		return nil, ErrAlreadyRunning
	}
	c.active[key] = struct{}{}
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.active, key)
	}, nil
}

func (c *Cloner) newRun(job Job, p *pump) *run {
	r := &run{
		cloner: c,
		job:    job,
		pump:   p,
		opts:   c.cfg.Options,
		store:  c.cfg.Store,
		logger: c.logger,
		state:  StateIdle,
	}
	r.governor = NewGovernor(GovernorConfig{
		Delay:         r.opts.Delay,
		CooldownEvery: r.opts.CooldownEvery,
		Cooldown:      r.opts.Cooldown,
		Sleep:         c.cfg.Sleep,
	})
	r.fetcher = NewFetcher(c.cfg.Client, r.governor, FetcherConfig{
		Limit:      r.opts.BatchSize,
		Attempts:   r.opts.FetchAttempts,
		Backoff:    r.opts.RetryBackoff,
		OnThrottle: r.throttled,
		Logger:     c.logger,
		Tracer:     c.tracer,
	})
	r.replicator = NewReplicator(c.cfg.Client, c.classify, c.tracer)
	return r
}

// run is the per-invocation session state, owned by one goroutine.
type run struct {
	cloner     *Cloner
	job        Job
	pump       *pump
	opts       Options
	store      checkpoint.Store
	logger     *slog.Logger
	governor   *Governor
	fetcher    *Fetcher
	replicator *Replicator

	state     State
	source    Peer
	target    Peer
	key       checkpoint.Key
	resumed   int
	lastID    int
	processed int
	errors    int
}

func (r *run) execute(ctx context.Context) (Result, error) {
	r.state = StateResolving
	r.status("Starting cloning from %s to %s", r.job.Source, r.job.Target)

	if err := r.resolve(ctx); err != nil {
		return r.finish(err)
	}

	release, err := r.cloner.claim(r.key)
	if err != nil {
		return r.finish(err)
	}
	defer release()

	r.loadCheckpoint()
	r.state = StateStreaming

	for {
		if err := ctx.Err(); err != nil {
			return r.finish(err)
		}

		batch, err := r.fetcher.FetchBatch(ctx, r.source, r.lastID, r.job.SourceTopic)
		if err != nil {
			return r.finish(err)
		}
		r.state = StateStreaming
		if len(batch) == 0 {
			r.status("No new messages found. Finishing.")
			return r.finish(nil)
		}

		for _, msg := range batch {
			if err := ctx.Err(); err != nil {
				return r.finish(err)
			}
			if err := r.process(ctx, msg); err != nil {
				return r.finish(err)
			}
		}
	}
}

func (r *run) resolve(ctx context.Context) error {
	source, err := r.resolveRef(ctx, r.job.Source)
	if err != nil {
		return err
	}
	target, err := r.resolveRef(ctx, r.job.Target)
	if err != nil {
		return err
	}
	if r.job.loops(source, target) {
		return ErrSameChat
	}

	r.source, r.target = source, target
	r.key = checkpoint.Key{Source: source.ID, Target: target.ID}
	r.logger = r.logger.With("source_id", source.ID, "target_id", target.ID)
	r.status("Source: %s", displayName(source))
	r.status("Target: %s", displayName(target))
	return nil
}

// resolveRef resolves one reference, absorbing throttle signals.
func (r *run) resolveRef(ctx context.Context, ref ChatRef) (Peer, error) {
	for {
		peer, err := r.cloner.cfg.Client.Resolve(ctx, ref)
		if err == nil {
			return peer, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Peer{}, ctxErr
		}
		if wait, ok := AsThrottle(err); ok {
			r.throttled(wait)
			if err := r.governor.HandleThrottle(ctx, wait); err != nil {
				return Peer{}, err
			}
			continue
		}
		var re *ResolutionError
		if errors.As(err, &re) {
			return Peer{}, err
		}
		return Peer{}, &ResolutionError{Ref: ref, Err: err}
	}
}

func (r *run) loadCheckpoint() {
	id, ok, err := r.store.Load(r.key)
	if err != nil {
		r.logger.Warn("ignoring unreadable checkpoint", "error", err)
	}
	if !ok {
		return
	}
	r.lastID = id
	r.resumed = id
	if id > 0 {
		r.status("Resuming from ID %d...", id)
	}
}

// process replicates msg until it reaches a terminal outcome, then advances.
func (r *run) process(ctx context.Context, msg Message) error {
	out, err := r.replicate(ctx, msg)
	if err != nil {
		// The send landed before cancellation was noticed; keep the
		// checkpoint in step so a resume does not repeat it.
		if out.Kind == OutcomeReplicated {
			r.commit(msg, out)
		}
		return err
	}
	r.commit(msg, out)
	return r.pace(ctx)
}

func (r *run) replicate(ctx context.Context, msg Message) (Outcome, error) {
	failures := 0
	backoff := r.opts.RetryBackoff

	for {
		out := r.replicator.Replicate(ctx, msg, r.target, r.job.TargetTopic)
		// Only a send known to have landed moves the checkpoint once
		// cancellation is seen; see process.
		if err := ctx.Err(); err != nil {
			return out, err
		}

		switch out.Kind {
		case OutcomeThrottled:
			r.throttled(out.Wait)
			if err := r.governor.HandleThrottle(ctx, out.Wait); err != nil {
				return out, err
			}
			r.state = StateStreaming
			continue

		case OutcomeFailed:
			if errors.Is(out.Err, ErrUnauthorized) {
				r.status("Session invalidated, cloning interrupted. Login again.")
				return out, out.Err
			}
			failures++
			if failures < r.opts.SendAttempts {
				r.logger.Warn("replication failed, retrying",
					"message_id", msg.ID,
					"attempt", failures,
					"error", out.Err,
				)
				if err := r.governor.Backoff(ctx, backoff); err != nil {
					return out, err
				}
				backoff *= 2
				continue
			}
		}
		return out, nil
	}
}

// commit advances the checkpoint past msg and reports it.
func (r *run) commit(msg Message, out Outcome) {
	r.lastID = msg.ID
	r.processed++

	if out.Kind == OutcomeFailed {
		r.errors++
		r.logger.Warn("message not replicated", "message_id", msg.ID, "error", out.Err)
		r.emit(ProgressEvent{
			Kind:   EventStatus,
			Status: fmt.Sprintf("Error on message ID %d: %v", msg.ID, out.Err),
			Err:    out.Err,
		})
	}

	if err := r.store.Save(r.key, msg.ID); err != nil {
		r.logger.Error("saving checkpoint", "message_id", msg.ID, "error", err)
		r.emit(ProgressEvent{
			Kind:   EventCheckpointError,
			Status: fmt.Sprintf("Error saving checkpoint: %v", err),
			Err:    err,
		})
	}

	r.emit(ProgressEvent{
		Kind:      EventMessage,
		MessageID: msg.ID,
		Outcome:   out.Kind,
		Status:    fmt.Sprintf("Message ID %d %s", msg.ID, out.Kind),
	})
}

// pace applies the per-message delay and the periodic cooldown.
func (r *run) pace(ctx context.Context) error {
	if err := r.governor.ThrottleAfterMessage(ctx); err != nil {
		return err
	}

	if r.governor.CooldownDue() {
		wait := r.governor.CooldownDuration()
		r.emit(ProgressEvent{
			Kind:   EventCooldown,
			Wait:   wait,
			Status: fmt.Sprintf("Pausing %s after %d messages...", wait, r.governor.Processed()),
		})
	}
	if _, err := r.governor.MaybeCooldown(ctx); err != nil {
		return err
	}
	return nil
}

// throttled reports a server throttle signal and enters the Paused state.
func (r *run) throttled(wait time.Duration) {
	r.state = StatePaused
	r.logger.Warn("throttled by server", "wait", wait)
	r.emit(ProgressEvent{
		Kind:   EventThrottle,
		Wait:   wait,
		Status: fmt.Sprintf("FloodWait: waiting %s...", wait),
	})
}

func (r *run) finish(err error) (Result, error) {
	ev := ProgressEvent{Kind: EventFinished, Final: true}
	if err == nil {
		r.state = StateCompleted
		ev.Status = fmt.Sprintf("Cloning finished: %d messages processed, %d errors", r.processed, r.errors)
		r.logger.Info("clone completed", "processed", r.processed, "errors", r.errors, "last_id", r.lastID)
	} else {
		r.state = StateAborted
		ev.Err = err
		if errors.Is(err, context.Canceled) {
			ev.Status = fmt.Sprintf("Cloning stopped after %d messages; resume from ID %d", r.processed, r.lastID)
		} else {
			ev.Status = fmt.Sprintf("Cloning aborted: %v", err)
		}
		r.logger.Warn("clone aborted", "processed", r.processed, "last_id", r.lastID, "error", err)
	}
	r.emit(ev)
	return r.result(), err
}

func (r *run) result() Result {
	return Result{
		State:       r.state,
		Source:      r.source,
		Target:      r.target,
		ResumedFrom: r.resumed,
		LastID:      r.lastID,
		Processed:   r.processed,
		Errors:      r.errors,
	}
}

func (r *run) status(format string, args ...any) {
	r.emit(ProgressEvent{Kind: EventStatus, Status: fmt.Sprintf(format, args...)})
}

// emit stamps ev with the current counters and queues it.
func (r *run) emit(ev ProgressEvent) {
	ev.State = r.state
	ev.Processed = r.processed
	ev.LastMessageID = r.lastID
	ev.Errors = r.errors
	ev.Source = r.source.ID
	ev.Target = r.target.ID
	r.pump.emit(ev)
}

func displayName(p Peer) string {
	if p.Title == "" {
		return fmt.Sprintf("%d", p.ID)
	}
	return fmt.Sprintf("%s (%d)", p.Title, p.ID)
}
