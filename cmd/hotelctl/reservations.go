package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hotel_reservations/internal/adapters/hotelapi"
)

func availableCmd(opts *options) *cobra.Command {
	var (
		hotelID           int64
		checkIn, checkOut string
		capacity          int
	)
	cmd := &cobra.Command{
		Use:   "available",
		Short: "List rooms of a hotel free for a stay",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hotelID == 0 || checkIn == "" || checkOut == "" {
				return fmt.Errorf("--hotel, --check-in and --check-out are required")
			}
			cl, err := opts.client()
			if err != nil {
				return err
			}
			rooms, err := cl.AvailableRooms(cmd.Context(), hotelID, checkIn, checkOut, capacity)
			if errors.Is(err, hotelapi.ErrNoRooms) {
				fmt.Fprintln(cmd.OutOrStdout(), "no rooms match the criteria")
				return nil
			}
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), rooms)
			}
			if len(rooms) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "all matching rooms are booked")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNUMBER\tFLOOR\tCAPACITY\tFEATURES")
			for _, r := range rooms {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", r.ID, r.Number, r.Floor, r.Capacity, r.Features)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&hotelID, "hotel", 0, "Hotel id")
	cmd.Flags().StringVar(&checkIn, "check-in", "", "Check-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&checkOut, "check-out", "", "Check-out date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "Minimum room capacity")
	return cmd
}

func bookCmd(opts *options) *cobra.Command {
	var b hotelapi.Booking
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := opts.client()
			if err != nil {
				return err
			}
			res, err := cl.CreateReservation(cmd.Context(), b)
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "booked %s: room %s at %s, %s to %s (%d nights) for %s %s\n",
				res.Reference, res.Room.Number, res.Hotel.Name, res.CheckIn, res.CheckOut, res.Nights,
				res.Customer.FirstName, res.Customer.LastName)
			return nil
		},
	}
	cmd.Flags().Int64Var(&b.HotelID, "hotel", 0, "Hotel id")
	cmd.Flags().Int64Var(&b.RoomID, "room", 0, "Room id")
	cmd.Flags().StringVar(&b.NationalID, "national-id", "", "Guest national id")
	cmd.Flags().StringVar(&b.FirstName, "first-name", "", "Guest first name")
	cmd.Flags().StringVar(&b.LastName, "last-name", "", "Guest last name")
	cmd.Flags().StringVar(&b.CheckIn, "check-in", "", "Check-in date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&b.CheckOut, "check-out", "", "Check-out date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&b.GuestCount, "guests", 1, "Number of guests")
	return cmd
}

func reservationsCmd(opts *options) *cobra.Command {
	var f hotelapi.ReservationFilter
	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "List reservations, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := opts.client()
			if err != nil {
				return err
			}
			list, err := cl.ListReservations(cmd.Context(), f)
			if err != nil {
				return err
			}
			if opts.outputJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCHECK-IN\tCHECK-OUT\tHOTEL\tFLOOR\tROOM\tGUESTS\tCUSTOMER")
			for _, r := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s %s (%s)\n",
					r.ID, r.CheckIn, r.CheckOut, r.Hotel.Name, r.Room.Floor, r.Room.Number, r.GuestCount,
					r.Customer.FirstName, r.Customer.LastName, r.Customer.NationalID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Int64Var(&f.HotelID, "hotel", 0, "Hotel id")
	cmd.Flags().StringVar(&f.CheckIn, "check-in", "", "Exact check-in date")
	cmd.Flags().StringVar(&f.CheckOut, "check-out", "", "Exact check-out date")
	cmd.Flags().StringVar(&f.NationalID, "national-id", "", "Customer national id")
	return cmd
}
