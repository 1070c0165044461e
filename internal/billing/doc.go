// Package billing keeps local subscription state synchronized with the
// payment provider.
//
// The provider is the source of truth: users subscribe through its hosted
// checkout, and every local state change is driven by webhook events it
// delivers asynchronously. Delivery is at-least-once and unordered, so the
// event reconciler is built around idempotent full-overwrite upserts and
// authoritative re-fetches rather than trusting inline event payloads.
package billing
