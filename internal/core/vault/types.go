package vault

// Type represents the type of secret source.
type Type string

const (
	// TypeDotEnv reads secrets from the process environment and an optional env file.
	TypeDotEnv Type = "dotenv"
)
