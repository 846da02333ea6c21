/*
Package domain contains the core domain model of the greeter service.

It defines the value objects that guard data integrity and the Greeting aggregate built from
them. This package is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - PersonName: A trimmed, non-empty name of at most 100 characters.
  - MessageText: A trimmed, non-empty message of at most 200 characters.
  - Greeting: The aggregate root. Owns identity, the name, the message and the creation time.

Value objects are validated exactly once, at construction. No other layer re-validates them.
*/
package domain
