package runner

import (
	"github.com/projectdiscovery/gologger"
	updateutils "github.com/projectdiscovery/utils/update"
)

var banner = `
       ___     __         __   _ ______
  ___ _/ (_)___/ /__ ___ / /  (_) _/ /_
 / _ '/ / / _  / -_|_-</ _ \/ / _/ __/
 \_, /_/_/\_,_/\__/___/_//_/_/_/ \__/
/___/
`

var version = "v0.1.0"

// showBanner is used to show the banner to the user
func showBanner() {
	gologger.Print().Msgf("%s\n", banner)
	gologger.Print().Msgf("\t\tioredis/node-redis -> valkey-glide\n\n")
}

// GetUpdateCallback returns a callback function that updates glideshift
func GetUpdateCallback() func() {
	return func() {
		showBanner()
		updateutils.GetUpdateToolCallback("glideshift", version)()
	}
}
