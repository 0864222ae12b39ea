package domain

import "time"

type Exam struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Semester  int32     `json:"semester"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}
