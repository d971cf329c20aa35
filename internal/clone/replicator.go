package clone

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Replicator re-emits single messages into the target conversation.
type Replicator struct {
	client   Client
	classify ClassifyFunc
	tracer   trace.Tracer
}

// NewReplicator creates a replicator. A nil classify treats every message as
// user content.
func NewReplicator(client Client, classify ClassifyFunc, tracer trace.Tracer) *Replicator {
	if tracer == nil {
		tracer = defaultTracer()
	}
	return &Replicator{client: client, classify: classify, tracer: tracer}
}

// Replicate copies msg into target, anchored under topic when set.
// Service notifications are skipped without any remote write.
func (r *Replicator) Replicate(ctx context.Context, msg Message, target Peer, topic TopicRef) Outcome {
	if r.classify != nil && r.classify(msg) {
		return Outcome{Kind: OutcomeSkipped}
	}

	ctx, span := r.tracer.Start(ctx, "clone.replicate", trace.WithAttributes(
		attribute.Int("clone.message_id", msg.ID),
		attribute.Int64("clone.target_id", target.ID),
	))
	defer span.End()

	err := r.client.Send(ctx, target, msg, topic)
	if err == nil {
		return Outcome{Kind: OutcomeReplicated}
	}
	if wait, ok := AsThrottle(err); ok {
		span.SetAttributes(attribute.String("clone.throttle_wait", wait.String()))
		return Outcome{Kind: OutcomeThrottled, Wait: wait}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return Outcome{Kind: OutcomeFailed, Err: &ReplicationError{MessageID: msg.ID, Err: err}}
}
