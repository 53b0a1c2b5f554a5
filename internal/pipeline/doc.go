// Package pipeline drives one media input through the upload-to-insight
// workflow: broker a signed URL, transfer the bytes, submit the analysis
// job, poll it to a terminal state, and normalize the result. A Controller
// owns at most one live session; starting a new submission positively
// cancels whatever the previous session still had in flight.
package pipeline
