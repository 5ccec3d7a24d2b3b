// Package fleet is a small HTTP client for the Fleet REST API.
//
// It covers the three calls an import needs: reading the server version,
// searching software titles available for install, and uploading an
// installer package as multipart form data. Every request carries the bearer
// token; GET and POST calls have separate timeout budgets.
package fleet
