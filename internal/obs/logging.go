// Package obs contains observability utilities such as logging.
package obs

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the global structured logger used by the service.
var Logger zerolog.Logger

// InitLogger initializes the global Logger. Production gets leveled
// JSON on stdout; anything else gets a console writer with caller info.
func InitLogger(environment string) {
	if environment == "production" {
		Logger = zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.InfoLevel)
		return
	}
	Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger().Level(zerolog.DebugLevel)
}

func init() {
	// Tests and early startup log before InitLogger runs.
	InitLogger("development")
}
