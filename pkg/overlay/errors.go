package overlay

import "errors"

var (
	// ErrEmptyActiveView names the empty-active-view condition. No function
	// in this package returns it: Publish is a silent no-op when the active
	// view is empty.
	ErrEmptyActiveView = errors.New("overlay: active view is empty")

	// ErrSelfReference names the condition of a wire message that would add
	// this node's own identity to one of its views. No function in this
	// package returns it: such entries are silently skipped.
	ErrSelfReference = errors.New("overlay: peer is self")

	// ErrMalformedMessage is returned by the wire codec on any message it
	// cannot decode. The offending message is logged and discarded, never
	// propagated to the publisher.
	ErrMalformedMessage = errors.New("overlay: malformed wire message")

	// ErrUnknownActionTag is returned by the wire codec when a message's
	// action tag byte does not match any known Action.
	ErrUnknownActionTag = errors.New("overlay: unknown action tag")

	// ErrTopicClosed names the closed-topic condition. No Topic method
	// returns it: InjectEvent after Close is silently ignored.
	ErrTopicClosed = errors.New("overlay: topic is closed")
)
