// Package cli wires the zipcrack command-line surface: one cobra root
// command (no subcommand tree, since the whole tool is a single
// operation) binding every flag in spec §6 into a config.Conf via viper,
// generalized from go-i2p-newsgo/cmd/root.go's
// persistent-flag/cobra.OnInitialize/env-prefix pattern.
package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Asylian21/zipcrack/internal/config"
)

var c = &config.Conf{}

// RunFunc is the action the root command performs once its flags are
// parsed and validated; main.go supplies the real implementation so this
// package stays testable without constructing an archive and a search.
type RunFunc func(conf *config.Conf, archivePath string) error

// NewRootCmd builds the zipcrack root command. run is invoked with the
// bound configuration and the positional archive path once flags have
// been parsed.
func NewRootCmd(run RunFunc) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zipcrack <archive>",
		Short: "Brute-force recovery of a PKWARE/ZipCrypto archive password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.Unmarshal(c); err != nil {
				return err
			}
			return run(c, args[0])
		},
	}

	flags := rootCmd.Flags()
	flags.StringP("alphabet", "a", "", `"base64" or "custom:<letters>" (required)`)
	flags.Int("min-length", 1, "minimum candidate password length")
	flags.Int("max-length", 10, "maximum candidate password length")
	flags.String("start-password", "", "begin enumeration at this candidate instead of the lexicographically smallest")
	flags.Int("num-threads", 1, "number of worker goroutines")
	flags.Bool("unroll", false, "use the vectorized last-character-unrolled search driver")
	flags.Bool("show-zipfile-records", false, "print parsed archive records and proceed")
	flags.String("logfile", "zipcrack_log.json", "path for periodic JSON progress snapshots")
	rootCmd.MarkFlagRequired("alphabet")

	viper.BindPFlags(flags)
	cobra.OnInitialize(func() {
		viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		viper.SetEnvPrefix("zipcrack")
		viper.AutomaticEnv()
	})

	return rootCmd
}
