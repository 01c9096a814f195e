package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hotel_reservations/internal/adapters/hotelapi"
)

type options struct {
	baseURL    string
	rps        int
	outputJSON bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "hotelctl",
		Short: "Operator CLI for the hotel reservation API",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// stdout carries command output; logs go to stderr
			level := zerolog.WarnLevel
			if opts.verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
		},
		SilenceUsage: true,
	}
	defBase := os.Getenv("HOTEL_API_URL")
	if defBase == "" {
		defBase = "http://localhost:8080/api"
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", defBase, "API base URL (env HOTEL_API_URL)")
	root.PersistentFlags().IntVar(&opts.rps, "rps", 10, "Client-side request rate limit")
	root.PersistentFlags().BoolVar(&opts.outputJSON, "json", false, "Output JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(seedCmd(opts))
	root.AddCommand(hotelsCmd(opts))
	root.AddCommand(roomsCmd(opts))
	root.AddCommand(availableCmd(opts))
	root.AddCommand(bookCmd(opts))
	root.AddCommand(reservationsCmd(opts))
	return root
}

func (o *options) client() (*hotelapi.Client, error) {
	return hotelapi.New(o.baseURL, o.rps)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
