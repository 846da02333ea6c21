/*
Package feature composes independently developed features into one application.

A Feature contributes storage wiring, service bindings and startup initialization.
The Coordinator drives every feature through a strict three-phase protocol:

  - Phase A: RegisterStorage for every feature, in registration order.
  - Phase B: RegisterServices for every feature, in registration order, only after
    Phase A completed for all of them.
  - Phase C: Initialize for every feature, sequentially and in order, after the registry
    has been built. The first failure stops the sequence and is returned as an
    *InitializationError; the application must not serve traffic afterwards.

Features never reference each other. Anything one feature needs from another is
resolved through the shared registry.
*/
package feature
