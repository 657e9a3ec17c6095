// Package id generates and checks resource identifiers.
//
// Every record the server stores is keyed by a random UUID v4 rendered in
// canonical lowercase form (xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx). Path
// identifiers coming from clients are checked against the same shape before
// they reach storage.
package id
