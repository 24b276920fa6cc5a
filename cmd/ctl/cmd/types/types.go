package types

// ContextKey keys the values the root command places into the command
// context for subcommands.
type ContextKey string

const APIClientKey ContextKey = "api_client"
