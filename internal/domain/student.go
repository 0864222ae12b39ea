package domain

import "time"

type Student struct {
	ID            int64     `json:"id"`
	StudentNumber string    `json:"studentNumber"`
	Name          string    `json:"name"`
	Semester      int32     `json:"semester"`
	Department    string    `json:"department"`
	CreatedAt     time.Time `json:"createdAt"`
	Version       int32     `json:"-"`
}

// StudentFilter 查询学生时的可选过滤条件，为 nil 的字段不参与过滤
type StudentFilter struct {
	Semester   *int32
	Department *string
}
