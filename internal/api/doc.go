// Package api handles incoming HTTP requests, request validation and
// response formatting for decks, cards and reviews. Handlers translate HTTP
// concerns into calls on the service layer and map service errors to
// status codes without leaking internal detail. The request and response
// types in models.go double as the wire format of the client package.
package api
