// Package characters provides the HTTP client for the character archive API.
//
// # Overview
//
// This package defines the client side of the Remote Data Gateway. It talks
// to the `/api/characters` endpoint (normally served by the local proxy, see
// package proxy) and exposes two operations:
//
//   - ListCharacters: GET the full ordered list of records
//   - UpdateCharacter: PATCH name, description and image of one record
//
// # Architecture
//
//   - client.go: HTTP client, request building, response classification
//   - types.go: Record, Stats and Fields mirroring the API schema
//   - errors.go: NetworkError, HTTPError and InvalidPayloadError
//
// # Client Usage
//
//	client, err := characters.NewClient("http://127.0.0.1:8787/api/characters")
//	if err != nil {
//		return err
//	}
//
//	records, err := client.ListCharacters(ctx, "")
//	if err != nil {
//		var httpErr *characters.HTTPError
//		if errors.As(err, &httpErr) {
//			slog.Warn("api rejected list", "status", httpErr.Status)
//		}
//	}
//
// # Error Handling
//
// Every failure is classified into one of three types so callers can decide
// how to degrade:
//
//   - *NetworkError: the request never produced a response (DNS, refused,
//     timeout, cancelled context)
//   - *HTTPError: the API answered with a non-2xx status; Body carries the
//     upstream text when there was one
//   - *InvalidPayloadError: a 2xx answer whose body is not a JSON array of
//     records
//
// No operation is retried here. Retry and fallback policy belongs to the
// caller (package syncer).
//
// # Record Identity
//
// Records are identified by a string id. Some deployments of the upstream API
// emit numeric ids; Record decoding accepts both and normalizes to a string
// so selection and PATCH bodies always carry the same representation.
package characters
