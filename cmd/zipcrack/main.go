// Command zipcrack brute-forces the password of a PKWARE/ZipCrypto
// encrypted ZIP archive: it parses the archive, extracts a fingerprint
// per encrypted entry, and searches a configured alphabet/length space in
// parallel until the space is exhausted, reporting every candidate that
// satisfies all fingerprints (spec §1, §2).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Asylian21/zipcrack/internal/archive"
	"github.com/Asylian21/zipcrack/internal/cli"
	"github.com/Asylian21/zipcrack/internal/config"
	"github.com/Asylian21/zipcrack/internal/enumerator"
	"github.com/Asylian21/zipcrack/internal/pool"
	"github.com/Asylian21/zipcrack/internal/progress"
)

func main() {
	rootCmd := cli.NewRootCmd(run)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(conf *config.Conf, archivePath string) error {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return fmt.Errorf("zipcrack: reading archive: %w", err)
	}

	records, err := archive.Parse(data)
	if err != nil {
		return fmt.Errorf("zipcrack: parsing archive: %w", err)
	}
	if conf.ShowZipfileRecords {
		archive.ShowRecords(os.Stdout, records)
	}

	fps := archive.Fingerprints(records)
	if len(fps) == 0 {
		return fmt.Errorf("zipcrack: archive contains no PKWARE-encrypted entries")
	}

	alphabet, err := cli.ResolveAlphabet(conf.Alphabet)
	if err != nil {
		return err
	}

	var startPassword []byte
	if conf.StartPassword != "" {
		startPassword = []byte(conf.StartPassword)
	}

	enumCfg := enumerator.Config{
		Alphabet:      alphabet,
		MinLength:     conf.MinLength,
		MaxLength:     conf.MaxLength,
		StartPassword: startPassword,
		NumThreads:    conf.NumThreads,
	}

	display := progress.NewDisplay(os.Stdout)
	display.PrintCapabilities()
	defer display.Close()

	sharedProgress := pool.NewSharedProgress()
	ticks := make(chan struct{})
	stopTicks := make(chan struct{})
	displayDone := make(chan struct{})
	go func() {
		defer close(displayDone)
		progress.RunLoop(display, sharedProgress, ticks)
	}()

	go func() {
		defer close(ticks)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case ticks <- struct{}{}:
				default:
				}
			case <-stopTicks:
				return
			}
		}
	}()

	result, err := pool.Run(pool.Config{
		Enum:         enumCfg,
		Fingerprints: fps,
		Unroll:       conf.Unroll,
		LogPath:      conf.LogFile,
		Progress:     sharedProgress,
	})
	close(stopTicks)
	<-displayDone
	if err != nil {
		return err
	}

	if len(result.FoundPasswords) == 0 {
		fmt.Println("search space exhausted, no password found")
		return nil
	}
	fmt.Println("found passwords:")
	for _, pw := range result.FoundPasswords {
		fmt.Printf("  %s\n", pw)
	}
	return nil
}
