package variant

const (
	lower  = "abcdefghijklmnopqrstuvwxyz"
	digits = "0123456789"
)

// DefaultName is the profile used when a requested variant is unknown
const DefaultName = "v1"

// Builtins returns the three known service variants
func Builtins() []Profile {
	return []Profile{
		MustNew(Definition{Name: "v1", Alphabet: lower, Threshold: 10, RateLimit: 100}),
		MustNew(Definition{Name: "v2", Alphabet: lower + digits, Threshold: 12, RateLimit: 50}),
		MustNew(Definition{Name: "v3", Alphabet: lower + digits + " +-.", Threshold: 15, RateLimit: 80, Separators: " "}),
	}
}
