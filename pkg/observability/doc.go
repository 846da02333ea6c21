/*
Package observability provides the Prometheus metrics of the greeter service.

It covers feature lifecycle (initialization duration and current state), repository
operations (counts, outcomes, latency) and HTTP requests. A nil *Metrics is valid and
records nothing, so components can take metrics as an optional dependency.
*/
package observability
