package domain

import "time"

// RoomAllocation 某个教室的分配结果，RoomNumber、Block 和 Capacity 是分配时教室信息的快照
type RoomAllocation struct {
	ClassroomID int64   `json:"classroomID"`
	RoomNumber  string  `json:"roomNumber"`
	Block       string  `json:"block"`
	Capacity    int32   `json:"capacity"`
	StaffIDs    []int64 `json:"staffIDs"` // 可能少于需求人数，甚至为空（监考人员不足）
	StudentIDs  []int64 `json:"studentIDs"`
}

type Allocation struct {
	ID                     int64            `json:"id"`
	ExamID                 int64            `json:"examID"`
	RoomAllocations        []RoomAllocation `json:"roomAllocations"`
	TotalStudents          int32            `json:"totalStudents"`
	TotalStudentsAllocated int32            `json:"totalStudentsAllocated"`
	TotalRoomsUsed         int32            `json:"totalRoomsUsed"`
	UnallocatedCount       int32            `json:"unallocatedCount"`
	CreatedAt              time.Time        `json:"createdAt"`
	Version                int32            `json:"-"`
}

// RoomAllocationDetail 填充了教室、监考人员和学生详细信息的分配结果，仅用于展示
type RoomAllocationDetail struct {
	Classroom  *Classroom `json:"classroom"` // 当前的教室信息，可能已在分配之后被修改，分配时的信息见下面的快照字段
	RoomNumber string     `json:"roomNumber"`
	Block      string     `json:"block"`
	Capacity   int32      `json:"capacity"`
	Staff      []*Staff   `json:"staff"`
	Students   []*Student `json:"students"`
}

type AllocationDetail struct {
	ID                     int64                  `json:"id"`
	Exam                   *Exam                  `json:"exam"`
	RoomAllocations        []RoomAllocationDetail `json:"roomAllocations"`
	TotalStudents          int32                  `json:"totalStudents"`
	TotalStudentsAllocated int32                  `json:"totalStudentsAllocated"`
	TotalRoomsUsed         int32                  `json:"totalRoomsUsed"`
	UnallocatedCount       int32                  `json:"unallocatedCount"`
	CreatedAt              time.Time              `json:"createdAt"`
}
