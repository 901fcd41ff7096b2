// defaults.go: viper defaults for all settings. Recipe volumes follow the lab's
// standard 15 uL reaction with 2 uL template, leaving 13 uL of mix per well.
package conf

import "github.com/spf13/viper"

// Collision policy values for Planner.OverridePolicy.
const (
	OverridePolicyOverrideWins = "override-wins"
	OverridePolicyOrderWins    = "order-wins"
)

func setDefaults() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "qpcr-go")
	viper.SetDefault("main.log.maxsizemb", 100)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxagedays", 28)

	viper.SetDefault("webserver.address", ":8080")
	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.logpath", "logs/web.log")
	viper.SetDefault("webserver.cors.enabled", true)
	viper.SetDefault("webserver.cors.allowedorigins", []string{
		"http://localhost:5176",
		"http://127.0.0.1:5176",
		"http://localhost:5177",
		"http://127.0.0.1:5177",
	})

	viper.SetDefault("planner.samples", 70)
	viper.SetDefault("planner.standards", 8)
	viper.SetDefault("planner.positives", 0)
	viper.SetDefault("planner.blanks", 1)
	viper.SetDefault("planner.replicates", 2)
	viper.SetDefault("planner.overagepct", 10.0)
	viper.SetDefault("planner.includertneg", true)
	viper.SetDefault("planner.includernaneg", true)
	viper.SetDefault("planner.overridepolicy", OverridePolicyOverrideWins)

	viper.SetDefault("recipe.totalvolumeul", 13.0)
	viper.SetDefault("recipe.mastermix2xul", 7.5)
	viper.SetDefault("recipe.probeul", 0.3)
	viper.SetDefault("recipe.primerul", 0.3)
}
