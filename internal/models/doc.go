// package models defines the data model for the playlist migration service.
//
// Everything here is a value type: credentials are replaced by snapshot,
// never mutated in place, and tracks, outcomes, and reports live only for
// the duration of one migration request.
package models
