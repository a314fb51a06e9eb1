package queue

import "errors"

// ErrRejected is reported for a job the queue refused because it was full
// or closed.
var ErrRejected = errors.New("job rejected by queue")
