/*
Package config builds the immutable Settings snapshot of the greeter service.

Settings are assembled from a flat key/value view with colon-separated keys
(for example "ConnectionStrings:GreetingsDatabase" or "DetailedErrors"). Sources are
layered, later ones winning:

  - built-in defaults
  - YAML or JSON settings files
  - .env files (read with godotenv, never exported to the process)
  - GREETER_ environment variables, where "__" separates key segments
  - explicit overrides, such as CLI flags

Layers are merged by viper, so keys are case-insensitive and come back lower-cased,
connection string names included. The merged tree is decoded with mapstructure and validated
once; after Load returns, Settings are passed by value and never reloaded.
*/
package config
