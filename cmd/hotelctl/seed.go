package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"hotel_reservations/internal/adapters/hotelapi"
)

// catalogFile is the seed input: hotels with their rooms.
type catalogFile struct {
	Hotels []seedHotel `json:"hotels"`
}

type seedHotel struct {
	Name    string     `json:"name"`
	Address string     `json:"address"`
	Rooms   []seedRoom `json:"rooms"`
}

type seedRoom struct {
	Number    string `json:"number"`
	PositionX int    `json:"positionX"`
	PositionY int    `json:"positionY"`
	Floor     string `json:"floor"`
	Capacity  int    `json:"capacity"`
	Features  string `json:"features"`
}

type seedResult struct {
	Hotels int `json:"hotels"`
	Rooms  int `json:"rooms"`
	Failed int `json:"failed"`
}

func seedCmd(opts *options) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "seed <catalog.json>",
		Short: "Create the hotels and rooms listed in a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			var cat catalogFile
			if err := json.NewDecoder(f).Decode(&cat); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			cl, err := opts.client()
			if err != nil {
				return err
			}
			res, err := seed(cmd.Context(), cl, cat, workers)
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d hotels and %d rooms (%d failed)\n", res.Hotels, res.Rooms, res.Failed)
			if res.Failed > 0 {
				return fmt.Errorf("%d items failed", res.Failed)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "Hotels created concurrently")
	return cmd
}

// seed creates each hotel and then its rooms; hotels run on up to workers goroutines.
func seed(ctx context.Context, cl *hotelapi.Client, cat catalogFile, workers int) (seedResult, error) {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg                    sync.WaitGroup
		hotels, rooms, failed atomic.Int64
	)

	for _, h := range cat.Hotels {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return seedResult{}, err
		}
		wg.Add(1)
		go func(h seedHotel) {
			defer wg.Done()
			defer sem.Release(1)

			created, err := cl.CreateHotel(ctx, h.Name, h.Address)
			if err != nil {
				log.Warn().Str("hotel", h.Name).Err(err).Msg("hotel failed")
				failed.Add(int64(1 + len(h.Rooms)))
				return
			}
			hotels.Add(1)
			for _, r := range h.Rooms {
				_, err := cl.CreateRoom(ctx, hotelapi.NewRoom{
					Number:    r.Number,
					HotelID:   created.ID,
					PositionX: r.PositionX,
					PositionY: r.PositionY,
					Floor:     r.Floor,
					Capacity:  r.Capacity,
					Features:  r.Features,
				})
				if err != nil {
					log.Warn().Str("hotel", h.Name).Str("room", r.Number).Err(err).Msg("room failed")
					failed.Add(1)
					continue
				}
				rooms.Add(1)
			}
			log.Debug().Int64("hotel_id", created.ID).Int("rooms", len(h.Rooms)).Msg("hotel seeded")
		}(h)
	}
	wg.Wait()
	return seedResult{Hotels: int(hotels.Load()), Rooms: int(rooms.Load()), Failed: int(failed.Load())}, nil
}
