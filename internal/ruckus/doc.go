// Package ruckus is a small client for the RUCKUS One REST API.
//
// It covers only what apreboot needs:
//   - OAuth2 client-credentials authentication with a cached bearer token
//   - Paginated venue and access point queries
//   - The per-AP reboot system command
//
// Every failed call returns an *APIError tagged with an ErrorKind so callers
// can branch on the failure class without inspecting HTTP status codes.
package ruckus
