// Package subscribe manages newsletter subscribers and the single-use,
// time-bounded tokens that drive every subscriber-facing action.
//
// Subscriber lifecycle:
//   - Subscribers are created pending by the subscribe flow and activated at
//     most once when a confirmation token is redeemed. Activation is one way;
//     there is no activated to pending transition.
//   - A confirmation token serves both initial subscription and email change
//     confirmation. Each token carries a PendingAction tag set at issuance,
//     so the confirmation dispatch is a direct match on the tag.
//   - Magic links grant short-lived passwordless access to profile actions.
//     Validation is non-consuming; flows that need one-shot semantics call
//     Consume explicitly before committing other changes.
//
// Token policy:
//   - Confirmation tokens live 24h, magic links 15min. Expiry is evaluated
//     lazily at lookup time and detection clears the stale fields; there is
//     no background sweep.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the flow handlers
//     to describe creation, activation, email change, magic link, and removal
//     events. Sinks run best-effort (errors are logged) so you can forward to
//     a database or queue without blocking the flow.
//
// Delivery stays outside the flows: token issuance always commits before any
// mail is dispatched (see the notifier package), so a delivery failure can
// never roll back or corrupt subscriber state.
package subscribe
