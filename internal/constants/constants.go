package constants

// keys of the controller registry built in cmd/serve.go
const (
	Auth = iota
	Notes
	Bible
	Tags
	Search
	Markdown
	Status
)

const (
	// ContextUserId is the gin context key holding the authenticated user's id
	ContextUserId = "userId"
	// ContextTokenClaims is the gin context key holding the parsed JWT claims
	ContextTokenClaims = "tokenClaims"
)
