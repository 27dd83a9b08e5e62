package eventstream

import "errors"

// ErrNilTraceEvent indicates a nil trace event payload was provided to a publisher.
var ErrNilTraceEvent = errors.New("nil trace event")

// ErrNilCommitEvent indicates a nil commit event payload was provided to a publisher.
var ErrNilCommitEvent = errors.New("nil commit event")
