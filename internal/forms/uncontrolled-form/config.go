// internal/forms/uncontrolled-form/config.go
package uncontrolledform

type Config struct {
	// ListingRoute is where a successful submit navigates to.
	ListingRoute string
}

func LoadConfig() *Config {
	return &Config{
		ListingRoute: "/",
	}
}
