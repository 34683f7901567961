// Package provider defines the property-search provider consumed by the
// core: an external service that turns search criteria into a sequence of
// loosely-shaped property hits.
//
// The core requires only the Client interface. HTTPClient is a thin client
// for a RentCast-style REST API; it performs no normalization beyond JSON
// decoding, so every field the provider returns flows through to the
// normalizer untouched.
package provider
