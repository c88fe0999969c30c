// Package notifications pushes job outcomes to an ntfy topic.
//
// A finished breakdown, image or video job becomes one short push message
// carrying the project title and the target path. When no topic is
// configured NewService returns a notifier that does nothing, so callers
// never need to check configuration themselves.
package notifications
