// Package accountv1 holds the identity service contract: anonymous account
// provisioning, login, and token verification.
//
// Calls use the JSON codec registered by package palacev1.
package accountv1
