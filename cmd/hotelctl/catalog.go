package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func hotelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "hotels",
		Short: "List hotels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := opts.client()
			if err != nil {
				return err
			}
			hs, err := cl.ListHotels(cmd.Context())
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), hs)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tADDRESS")
			for _, h := range hs {
				fmt.Fprintf(w, "%d\t%s\t%s\n", h.ID, h.Name, h.Address)
			}
			return w.Flush()
		},
	}
}

func roomsCmd(opts *options) *cobra.Command {
	var hotelID int64
	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List rooms, optionally of one hotel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := opts.client()
			if err != nil {
				return err
			}
			rooms, err := cl.ListRooms(cmd.Context(), hotelID)
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), rooms)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tHOTEL\tNUMBER\tFLOOR\tCAPACITY\tFEATURES")
			for _, r := range rooms {
				hotel := fmt.Sprint(r.HotelID)
				if r.Hotel != nil {
					hotel = r.Hotel.Name
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", r.ID, hotel, r.Number, r.Floor, r.Capacity, r.Features)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&hotelID, "hotel", 0, "Hotel id")
	return cmd
}
