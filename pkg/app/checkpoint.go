package app

import (
	"context"
	"fmt"

	"github.com/flemzord/pigram/internal/checkpoint"
	"github.com/flemzord/pigram/internal/clone"
)

// Resolver turns chat references into peers.
type Resolver interface {
	Resolve(ctx context.Context, ref clone.ChatRef) (clone.Peer, error)
}

// NumericKey builds the checkpoint key directly when both references are
// numeric ids, so no session is needed.
func NumericKey(source, target clone.ChatRef) (checkpoint.Key, bool) {
	src, ok := source.Numeric()
	if !ok {
		return checkpoint.Key{}, false
	}
	dst, ok := target.Numeric()
	if !ok {
		return checkpoint.Key{}, false
	}
	return checkpoint.Key{Source: src, Target: dst}, true
}

// ResolveKey resolves both references into a checkpoint key.
func ResolveKey(ctx context.Context, r Resolver, source, target clone.ChatRef) (checkpoint.Key, error) {
	if key, ok := NumericKey(source, target); ok {
		return key, nil
	}
	src, err := r.Resolve(ctx, source)
	if err != nil {
		return checkpoint.Key{}, err
	}
	dst, err := r.Resolve(ctx, target)
	if err != nil {
		return checkpoint.Key{}, err
	}
	return checkpoint.Key{Source: src.ID, Target: dst.ID}, nil
}

// ShowCheckpoint prints the resume marker of a pair.
func ShowCheckpoint(e *Env, key checkpoint.Key) error {
	store := e.CheckpointStore()
	id, ok, err := store.Load(key)
	switch {
	case err != nil:
		_, err = fmt.Fprintf(e.Stdout, "%s: unreadable checkpoint (%v); the next run starts from the beginning\n", key, err)
	case !ok:
		_, err = fmt.Fprintf(e.Stdout, "%s: no checkpoint; the next run starts from the beginning\n", key)
	default:
		_, err = fmt.Fprintf(e.Stdout, "%s: last message id %d (%s)\n", key, id, store.Path(key))
	}
	return err
}

// ResetCheckpoint removes the resume marker of a pair.
func ResetCheckpoint(e *Env, key checkpoint.Key) error {
	if err := e.CheckpointStore().Reset(key); err != nil {
		return err
	}
	_, err := fmt.Fprintf(e.Stdout, "%s: checkpoint reset\n", key)
	return err
}
