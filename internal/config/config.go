// Package config defines the Conf struct used by the cli package to bind
// cobra flags and viper configuration values into a single typed
// structure (spec §6 CLI surface).
package config

// Conf holds the configuration values populated by viper from cobra
// flags or ZIPCRACK_*-prefixed environment variables.
//
// mapstructure tags are required wherever the lowercased Go field name
// does not match the cobra flag name that viper binds; without them
// viper.Unmarshal silently leaves the field at its zero value.
type Conf struct {
	// Input is not populated by internal/cli: the positional archive path
	// is passed to cli.RunFunc as a separate argument.
	Input string

	// Alphabet is the raw, unresolved value of --alphabet/-a: either
	// "base64" or "custom:<letters>". internal/cli resolves it into a
	// sorted, deduplicated byte slice before the search starts.
	Alphabet string

	MinLength     int    `mapstructure:"min-length"`
	MaxLength     int    `mapstructure:"max-length"`
	NumThreads    int    `mapstructure:"num-threads"`
	StartPassword string `mapstructure:"start-password"`

	Unroll             bool   `mapstructure:"unroll"`
	ShowZipfileRecords bool   `mapstructure:"show-zipfile-records"`
	LogFile            string `mapstructure:"logfile"`
}
