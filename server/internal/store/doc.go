// Package store holds the dataset currently served by the dashboard. It is a
// thread-safe, versioned slot: every successful (re)load bumps the version so
// that push consumers can tell when to recompute their views.
package store
