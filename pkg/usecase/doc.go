// Package usecase implements the greeting use cases on top of ports.GreetingRepository.
//
// Input is validated through the domain value objects before any storage call, so an
// invalid request never costs I/O.
package usecase
