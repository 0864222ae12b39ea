package domain

import "time"

type Classroom struct {
	ID         int64     `json:"id"`
	RoomNumber string    `json:"roomNumber"`
	Block      string    `json:"block"`
	Capacity   int32     `json:"capacity"`
	CreatedAt  time.Time `json:"createdAt"`
	Version    int32     `json:"-"`
}
