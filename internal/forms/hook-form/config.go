// internal/forms/hook-form/config.go
package hookform

type Mode string

const (
	// ModeOnChange revalidates touched fields on every change.
	ModeOnChange Mode = "onChange"
	// ModeOnSubmit stays silent until the first submit.
	ModeOnSubmit Mode = "onSubmit"
)

type Config struct {
	Mode         Mode
	ListingRoute string
}

func LoadConfig() *Config {
	return &Config{
		Mode:         ModeOnChange,
		ListingRoute: "/",
	}
}
