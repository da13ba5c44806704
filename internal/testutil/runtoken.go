package testutil

// FixedRunToken hands out the same run token on every call. It satisfies
// engine.RunTokenGenerator.
//
// Scenarios that run one function many times use it so every trace carries
// the token named in the scenario file.
type FixedRunToken struct {
	token string
}

// DefaultRunToken is used when a scenario does not name a token.
const DefaultRunToken = "test-run-default"

// NewFixedRunToken creates the generator. An empty token means DefaultRunToken.
func NewFixedRunToken(token string) *FixedRunToken {
	if token == "" {
		token = DefaultRunToken
	}
	return &FixedRunToken{token: token}
}

// Generate returns the fixed token.
func (g *FixedRunToken) Generate() string {
	return g.token
}
