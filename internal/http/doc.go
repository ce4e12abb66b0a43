// Package http provides HTTP handlers and middleware for the tracker API.
//
// The router exposes the following endpoints:
//   - GET /api/room/get-room-properties: masked room property lookup. The
//     query arrives either as individual parameters (`roomId`, `dates` as a
//     JSON array of {"year","month","day"} objects, boolean mask flags) or
//     as a single `b64` parameter holding the base64 encoded JSON form of
//     the same query. The response mirrors the mask: unrequested fields are
//     null, grouped fields are keyed by the YYYY-MM-DD date form.
//   - GET /api/users: the full user list as [{"id","displayName","theme"}].
//   - /api/entry: websocket upgrade for the realtime entry protocol, served
//     by the realtime package.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
