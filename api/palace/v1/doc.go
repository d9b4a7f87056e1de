// Package palacev1 holds the zone-data ("palace") service contract: the
// request and reply messages exchanged with the server, the client stub, and
// the server registration used by test doubles.
//
// Messages are encoded with the JSON codec registered under ContentSubtype.
// Importing this package registers the codec, so both the identity and the
// zone-data service share it.
package palacev1
