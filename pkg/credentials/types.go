package credentials

// Credentials represents the stored auth material in credentials.toml.
type Credentials struct {
	Version int            `toml:"version"`
	Auth    AuthCredential `toml:"auth"`
}

// AuthCredential holds the token signing secret and a minted API token.
// The secret lets a machine issue and verify tokens locally; the token is
// what CLI commands send as the Bearer credential.
type AuthCredential struct {
	Secret string `toml:"secret,omitempty"`
	Token  string `toml:"token,omitempty"`
}
