// Package ioengine is the root of the io-engine-core runtime: a per-CPU
// cooperative reactor fleet (package reactor) that hosts lightweight
// logical threads (package lthread), and a replicated block device I/O
// channel (package nexus) that routes reads and writes to a dynamically
// reconfigurable set of child devices.
//
// The gRPC control plane, CLI, persistent configuration, rebuild job
// bookkeeping, and real block device drivers are external collaborators
// and out of scope for this module; package iodev provides two minimal,
// illustrative child device implementations used by the demo command and
// by tests.
package ioengine
