// Package services defines the error taxonomy shared by the pipeline and the
// HTTP clients that talk to the notes backend and the blob storage endpoint.
package services
