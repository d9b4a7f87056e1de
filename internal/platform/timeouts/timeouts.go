// Package timeouts defines the deadlines applied to each remote step.
// Centralizing these values keeps the channel, session, and sync layers in
// agreement and makes the durations discoverable.
package timeouts

import "time"

// Connect caps the wait for a new channel to reach the ready state.
const Connect = 5 * time.Second

// Account caps account creation and login calls.
const Account = 10 * time.Second

// Verify caps the authenticated connectivity check.
const Verify = 10 * time.Second

// Statistics caps the aggregate statistics fetch.
const Statistics = 30 * time.Second

// Shutdown limits how long telemetry exporters may flush on exit.
const Shutdown = 5 * time.Second
