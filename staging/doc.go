// Package staging provides the scoped scratch-file resource used to hand an
// uploaded document to the generation collaborator and the mail attachment.
//
// A staged file lives exactly as long as one request: Acquire writes it under an
// internally generated name, Release removes it. With wraps both so release
// happens on normal return, early return and panic alike.
package staging
