// Package control implements the request controller: the retry and
// rate-limit strategies that govern every outbound call to the grid API.
//
// The controller composes one RetryStrategy with one RateLimitStrategy.
// Rate limiting applies to every attempt, including retries, so a retrying
// call cannot starve other callers of the shared request budget. Retry
// applies only to transient failures; validation and permission errors
// propagate immediately, and oversized-payload rejections are left for the
// transport layer to resolve by bisection.
package control
