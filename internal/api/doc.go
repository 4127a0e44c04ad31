// Package api exposes the local record store and the sync coordinator to
// collaborators over HTTP. Handlers translate requests into service calls
// and map service errors to status codes and safe messages.
package api
