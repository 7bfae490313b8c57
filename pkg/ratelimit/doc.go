// Package ratelimit provides a token-bucket limiter used to bound the
// rate of newly accepted connections, so a burst of clients cannot drive
// unbounded CA signing or pool dialing work.
package ratelimit
