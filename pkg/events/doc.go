// Package events fans out connection and request lifecycle events to any
// number of subscribers over a bounded, lossy channel. A slow subscriber
// drops old events rather than slowing down the proxy; ordering is
// preserved only within a single connection id.
package events
