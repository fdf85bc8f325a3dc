// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

/*
Package elara implements the ELARA protocol engine: a real-time peer-to-peer
communication substrate whose contract is to keep a cryptographically bound,
causally consistent, temporally smooth shared reality alive under arbitrary
network chaos. Sessions never terminate on network failure; instead the
quality of presence degrades along a fixed ladder while cryptographic
identity and causal history persist.

# Architecture

The engine is composed of five cooperating components, dependency-ordered
leaves-first:

  - pkg/wire      frame serialization: fixed header, TLV extensions,
                   encrypted payload, authentication tag.
  - crypto        identity, session root derivation, per-class ratchets,
                   AEAD encrypt/decrypt, per-(peer, class) replay windows.
  - timeengine    dual clocks (perceptual, state), the reality window,
                   the passive per-peer network model, horizon adaptation.
  - state         state atoms, version-vector causality, the six-stage
                   event reconciliation pipeline, quarantine.
  - runtime       composes the above into a Session: routes inbound frames,
                   routes outbound events, runs periodic ticks, publishes
                   presence and degradation level.

# Scope

This module covers the protocol engine only. Datagram sockets, audio/video
capture, UI rendering, signaling/rendezvous, and packaging are external
collaborators referenced only by the interfaces in runtime/transport.go and
a monotonic clock source.

# Non-goals

No Byzantine consensus — only containment of misbehavior. No perfect-bit
consistency across peers — only eventual equivalent reality. No connection
liveness as a first-class failure. No post-quantum cryptography in this
revision. No traffic-analysis resistance.
*/
package elara
