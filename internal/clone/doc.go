// Package clone implements the chat cloning pipeline: a resumable,
// rate-limited loop that copies messages from a source conversation into a
// target conversation.
//
// The pipeline is built from four parts, each usable on its own:
//
//   - Governor paces the loop: a fixed delay after every message, a long
//     cooldown every N messages, and exact backoff on server throttle signals.
//   - Fetcher pulls ascending batches of messages newer than a given id.
//   - Replicator re-emits one message into the target, skipping service
//     notifications.
//   - Cloner drives the whole run and persists a checkpoint after every
//     processed message so an interrupted run resumes where it stopped.
//
// The package never talks to Telegram directly. It consumes a Client, an
// abstract capability implemented by the internal/telegram adapter and by
// clonetest.FakeClient in tests.
package clone
