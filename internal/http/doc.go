// Package http exposes the circulation system as a JSON API. Handlers decode
// requests, delegate to the application services and translate service errors
// into localized responses. Authorization itself lives in the services; the
// handlers only resolve the session token to a principal.
package http
