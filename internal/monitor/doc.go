// Package monitor keeps the shared snapshot fresh.
//
// In poll mode a ticker spawns one independent ServerDetails fetch per
// interval. Fetches may overlap; each carries a generation and the store keeps
// only results that are not older than the newest one applied. Stop cancels
// the ticker and any in-flight request, and their late results are dropped.
//
// In stream mode the monitor follows the websocket feed instead. Every frame
// publishes like a successful fetch. When the feed fails the error is
// published and the feed is redialed after one interval, doubling up to
// thirty seconds while failures continue. Retry skips the wait.
package monitor
