package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

func validFixture() (*domain.Allocation, []*domain.Student, []*domain.Classroom, []*domain.Staff) {
	students := []*domain.Student{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	classrooms := []*domain.Classroom{
		{ID: 10, RoomNumber: "A-101", Capacity: 2},
		{ID: 11, RoomNumber: "A-102", Capacity: 1},
	}
	staff := []*domain.Staff{
		{ID: 20, IsAvailable: true},
		{ID: 21, IsAvailable: true},
		{ID: 22, IsAvailable: false},
	}
	result := &domain.Allocation{
		RoomAllocations: []domain.RoomAllocation{
			{ClassroomID: 10, RoomNumber: "A-101", Capacity: 2, StaffIDs: []int64{20}, StudentIDs: []int64{3, 1}},
			{ClassroomID: 11, RoomNumber: "A-102", Capacity: 1, StaffIDs: []int64{}, StudentIDs: []int64{4}},
		},
		TotalStudents:          4,
		TotalStudentsAllocated: 3,
		TotalRoomsUsed:         2,
		UnallocatedCount:       1,
	}
	return result, students, classrooms, staff
}

func TestValidateAllocation(t *testing.T) {
	t.Run("valid result", func(t *testing.T) {
		result, students, classrooms, staff := validFixture()
		assert.NoError(t, ValidateAllocation(result, students, classrooms, staff))
	})

	violations := map[string]func(*domain.Allocation){
		"capacity exceeded": func(a *domain.Allocation) {
			a.RoomAllocations[1].StudentIDs = []int64{4, 2}
			a.TotalStudentsAllocated = 4
			a.UnallocatedCount = 0
		},
		"student double booked": func(a *domain.Allocation) {
			a.RoomAllocations[1].StudentIDs = []int64{1}
		},
		"unknown student": func(a *domain.Allocation) {
			a.RoomAllocations[1].StudentIDs = []int64{99}
		},
		"staff double booked": func(a *domain.Allocation) {
			a.RoomAllocations[1].StaffIDs = []int64{20}
		},
		"unavailable staff": func(a *domain.Allocation) {
			a.RoomAllocations[1].StaffIDs = []int64{22}
		},
		"unknown classroom": func(a *domain.Allocation) {
			a.RoomAllocations[1].ClassroomID = 12
		},
		"classroom used twice": func(a *domain.Allocation) {
			a.RoomAllocations[1].ClassroomID = 10
		},
		"empty room": func(a *domain.Allocation) {
			a.RoomAllocations[1].StudentIDs = []int64{}
			a.TotalStudentsAllocated = 2
			a.UnallocatedCount = 2
		},
		"allocated count mismatch": func(a *domain.Allocation) {
			a.TotalStudentsAllocated = 4
			a.UnallocatedCount = 0
		},
		"conservation broken": func(a *domain.Allocation) {
			a.UnallocatedCount = 3
		},
		"total students mismatch": func(a *domain.Allocation) {
			a.TotalStudents = 5
			a.UnallocatedCount = 2
		},
		"rooms used mismatch": func(a *domain.Allocation) {
			a.TotalRoomsUsed = 3
		},
	}

	for name, mutate := range violations {
		t.Run(name, func(t *testing.T) {
			result, students, classrooms, staff := validFixture()
			mutate(result)
			assert.Error(t, ValidateAllocation(result, students, classrooms, staff))
		})
	}
}

func TestValidateStudentNumber(t *testing.T) {
	assert.NoError(t, ValidateStudentNumber("1DS21CS001"))
	assert.NoError(t, ValidateStudentNumber("2023123456"))
	assert.Error(t, ValidateStudentNumber("1DS21CS01"))
	assert.Error(t, ValidateStudentNumber("1ds21cs001"))
	assert.Error(t, ValidateStudentNumber("1DS21CS-01"))
	assert.Error(t, ValidateStudentNumber(""))
}

func TestValidateExamDate(t *testing.T) {
	now := time.Date(2026, 2, 20, 15, 30, 0, 0, time.UTC)

	assert.NoError(t, ValidateExamDate(&domain.Exam{Date: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)}, now))
	assert.NoError(t, ValidateExamDate(&domain.Exam{Date: time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)}, now))
	assert.Error(t, ValidateExamDate(&domain.Exam{Date: time.Date(2026, 2, 19, 23, 0, 0, 0, time.UTC)}, now))
}
