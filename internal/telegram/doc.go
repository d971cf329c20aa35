// Package telegram adapts a gotd MTProto user session to the clone pipeline.
//
// Session owns the network client, the on-disk session file and the login
// flow. Client implements clone.Client and clone.Classifier on top of the raw
// RPC surface, caching the access hashes needed to address peers by their
// marked ids.
package telegram
