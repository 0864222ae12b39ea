package domain

import "time"

// Staff 监考人员，只有 IsAvailable 为 true 的人员才会参与监考分配
type Staff struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Department  string    `json:"department"`
	Designation string    `json:"designation"`
	Email       string    `json:"email"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int32     `json:"-"`
}
