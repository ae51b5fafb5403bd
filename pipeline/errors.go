package pipeline

import "errors"

// ErrAborted is returned by Driver.Run when processing was stopped
// through Context.Abort. Finalization has already run; aborting is
// terminal and the driver cannot be resumed.
var ErrAborted = errors.New("processing aborted")
