// Package session runs a study session: an ordered queue of due cards that
// is consumed one rating at a time, with cards that come due again soon put
// back at the end of the queue.
package session
