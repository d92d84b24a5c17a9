package system

import "fmt"

// Version is set at build time with -ldflags "-X".
var Version = "develop"

// UserAgent is sent with every request made to a bot server.
func UserAgent() string {
	return fmt.Sprintf("botdeck/%s", Version)
}
