package domain

import "time"

type Hotel struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Room belongs to exactly one hotel. Floor is free text ("1", "PB", "M2").
type Room struct {
	ID        int64     `json:"id"`
	Number    string    `json:"number"`
	HotelID   int64     `json:"hotelId"`
	PositionX int       `json:"positionX"`
	PositionY int       `json:"positionY"`
	Floor     string    `json:"floor"`
	Capacity  int       `json:"capacity"`
	Features  string    `json:"features"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Hotel is filled by list/get reads that join the owning hotel.
	Hotel *HotelSummary `json:"hotel,omitempty"`
}

type HotelSummary struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type RoomSummary struct {
	Number   string `json:"number"`
	Floor    string `json:"floor"`
	Capacity int    `json:"capacity"`
	Features string `json:"features"`
}

type RoomFilter struct {
	HotelID     *int64
	MinCapacity *int
}
