/*
Package ports defines the driven ports (interfaces) of the greeter service.

These interfaces decouple the use cases from storage technology, allowing the same
feature to run against memory, files, Loam documents, Redis or Postgres.

# Key Interfaces

  - GreetingRepository: Insert-only persistence of Greeting aggregates plus ordered lookups.
  - StorageInitializer: Optional startup hook that ensures the backing store exists.

The tests subpackage holds GreetingRepositoryContractTest, which verifies any adapter against
the shared contract.
*/
package ports
