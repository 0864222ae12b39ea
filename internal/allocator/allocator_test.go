package allocator

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/utils"
)

var departments = []string{"CSE", "ISE", "AIML", "ECE"}

func newStudents(n int, semester int32) []*domain.Student {
	students := make([]*domain.Student, n)
	for i := range students {
		students[i] = &domain.Student{
			ID:            int64(i + 1),
			StudentNumber: fmt.Sprintf("1DS21CS%03d", i+1),
			Semester:      semester,
			Department:    departments[i*len(departments)/n],
		}
	}
	return students
}

func newClassrooms(capacities ...int32) []*domain.Classroom {
	classrooms := make([]*domain.Classroom, len(capacities))
	for i, capacity := range capacities {
		classrooms[i] = &domain.Classroom{
			ID:         int64(100 + i),
			RoomNumber: fmt.Sprintf("A-%d", 101+i),
			Block:      "BB",
			Capacity:   capacity,
		}
	}
	return classrooms
}

func newStaff(n int) []*domain.Staff {
	staff := make([]*domain.Staff, n)
	for i := range staff {
		staff[i] = &domain.Staff{
			ID:          int64(1000 + i),
			Name:        fmt.Sprintf("staff-%d", i),
			IsAvailable: true,
		}
	}
	return staff
}

func newSeededAllocator(t *testing.T, seed int64) *Allocator {
	t.Helper()
	a, err := New(DefaultPolicy(), rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return a
}

func TestAllocateFillsLargestRoomFirst(t *testing.T) {
	// Arrange
	a := newSeededAllocator(t, 1)
	students := newStudents(45, 3)
	classrooms := newClassrooms(30, 50, 20)
	staff := newStaff(5)

	// Act
	result, err := a.Allocate(3, students, classrooms, staff)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.RoomAllocations, 1)
	assert.Equal(t, int64(101), result.RoomAllocations[0].ClassroomID)
	assert.Len(t, result.RoomAllocations[0].StudentIDs, 45)
	assert.Len(t, result.RoomAllocations[0].StaffIDs, 2)
	assert.Equal(t, int32(1), result.TotalRoomsUsed)
	assert.Equal(t, int32(45), result.TotalStudents)
	assert.Equal(t, int32(45), result.TotalStudentsAllocated)
	assert.Equal(t, int32(0), result.UnallocatedCount)
	assert.NoError(t, utils.ValidateAllocation(result, students, classrooms, staff))
}

func TestAllocateOverflow(t *testing.T) {
	a := newSeededAllocator(t, 2)
	students := newStudents(15, 1)
	classrooms := newClassrooms(10)
	staff := newStaff(3)

	result, err := a.Allocate(1, students, classrooms, staff)

	require.NoError(t, err)
	require.Len(t, result.RoomAllocations, 1)
	assert.Len(t, result.RoomAllocations[0].StudentIDs, 10)
	assert.Equal(t, int32(10), result.TotalStudentsAllocated)
	assert.Equal(t, int32(5), result.UnallocatedCount)
	assert.Equal(t, int32(15), result.TotalStudents)
	assert.NoError(t, utils.ValidateAllocation(result, students, classrooms, staff))
}

func TestAllocateStaffDemandTiers(t *testing.T) {
	scenarios := []struct {
		capacity int32
		expected int
	}{
		{capacity: 41, expected: 2},
		{capacity: 40, expected: 1},
		{capacity: 1, expected: 1},
		{capacity: 120, expected: 2},
	}

	for _, scenario := range scenarios {
		t.Run(fmt.Sprintf("capacity %d", scenario.capacity), func(t *testing.T) {
			a := newSeededAllocator(t, 3)

			result, err := a.Allocate(5, newStudents(10, 5), newClassrooms(scenario.capacity), newStaff(4))

			require.NoError(t, err)
			require.Len(t, result.RoomAllocations, 1)
			assert.Len(t, result.RoomAllocations[0].StaffIDs, scenario.expected)
		})
	}
}

func TestAllocateStaffExhaustion(t *testing.T) {
	a := newSeededAllocator(t, 4)
	students := newStudents(15, 2)
	classrooms := newClassrooms(10, 10)
	staff := newStaff(1)

	result, err := a.Allocate(2, students, classrooms, staff)

	require.NoError(t, err)
	require.Len(t, result.RoomAllocations, 2)
	assert.Equal(t, []int64{1000}, result.RoomAllocations[0].StaffIDs)
	assert.Empty(t, result.RoomAllocations[1].StaffIDs)
	assert.Len(t, result.RoomAllocations[0].StudentIDs, 10)
	assert.Len(t, result.RoomAllocations[1].StudentIDs, 5)
	assert.NoError(t, utils.ValidateAllocation(result, students, classrooms, staff))
}

func TestAllocatePreconditions(t *testing.T) {
	a := newSeededAllocator(t, 5)

	t.Run("no students in semester", func(t *testing.T) {
		_, err := a.Allocate(4, newStudents(10, 3), newClassrooms(30), newStaff(2))

		var noStudents *NoStudentsError
		require.ErrorAs(t, err, &noStudents)
		assert.Equal(t, int32(4), noStudents.Semester)
		assert.True(t, IsPreconditionError(err))
	})

	t.Run("no students at all", func(t *testing.T) {
		_, err := a.Allocate(4, nil, newClassrooms(30), newStaff(2))

		var noStudents *NoStudentsError
		assert.ErrorAs(t, err, &noStudents)
	})

	t.Run("no classrooms", func(t *testing.T) {
		_, err := a.Allocate(3, newStudents(10, 3), nil, newStaff(2))

		assert.ErrorIs(t, err, ErrNoClassrooms)
		assert.True(t, IsPreconditionError(err))
	})

	t.Run("no available staff", func(t *testing.T) {
		staff := newStaff(3)
		for _, s := range staff {
			s.IsAvailable = false
		}

		_, err := a.Allocate(3, newStudents(10, 3), newClassrooms(30), staff)

		assert.ErrorIs(t, err, ErrNoStaff)
		assert.True(t, IsPreconditionError(err))
	})

	t.Run("students checked before classrooms", func(t *testing.T) {
		_, err := a.Allocate(3, nil, nil, nil)

		var noStudents *NoStudentsError
		assert.ErrorAs(t, err, &noStudents)
	})

	t.Run("other errors are not preconditions", func(t *testing.T) {
		assert.False(t, IsPreconditionError(errors.New("connection refused")))
	})
}

func TestAllocateSelectsOnlyRequestedSemester(t *testing.T) {
	a := newSeededAllocator(t, 6)
	students := append(newStudents(20, 3), &domain.Student{ID: 500, Semester: 5}, &domain.Student{ID: 501, Semester: 30})

	result, err := a.Allocate(3, students, newClassrooms(60), newStaff(2))

	require.NoError(t, err)
	assert.Equal(t, int32(20), result.TotalStudents)
	assert.NotContains(t, result.RoomAllocations[0].StudentIDs, int64(500))
	assert.NotContains(t, result.RoomAllocations[0].StudentIDs, int64(501))
}

func TestAllocateSkipsUnavailableStaff(t *testing.T) {
	a := newSeededAllocator(t, 7)
	staff := newStaff(6)
	for i, s := range staff {
		s.IsAvailable = i%2 == 0
	}

	result, err := a.Allocate(1, newStudents(200, 1), newClassrooms(50, 50, 50, 50), staff)

	require.NoError(t, err)
	assigned := lo.FlatMap(result.RoomAllocations, func(r domain.RoomAllocation, _ int) []int64 {
		return r.StaffIDs
	})
	assert.ElementsMatch(t, []int64{1000, 1002, 1004}, assigned)
}

func TestAllocateKeepsInputOrderForEqualCapacities(t *testing.T) {
	a := newSeededAllocator(t, 8)
	classrooms := newClassrooms(30, 50, 30, 50)

	result, err := a.Allocate(1, newStudents(200, 1), classrooms, newStaff(10))

	require.NoError(t, err)
	order := lo.Map(result.RoomAllocations, func(r domain.RoomAllocation, _ int) int64 {
		return r.ClassroomID
	})
	assert.Equal(t, []int64{101, 103, 100, 102}, order)
	assert.Equal(t, int32(160), result.TotalStudentsAllocated)
	assert.Equal(t, int32(40), result.UnallocatedCount)
}

func TestAllocateDoesNotMutateInput(t *testing.T) {
	a := newSeededAllocator(t, 9)
	students := newStudents(30, 1)
	classrooms := newClassrooms(10, 20, 5)
	staff := newStaff(4)

	studentIDs := lo.Map(students, func(s *domain.Student, _ int) int64 { return s.ID })
	classroomIDs := lo.Map(classrooms, func(c *domain.Classroom, _ int) int64 { return c.ID })
	staffIDs := lo.Map(staff, func(s *domain.Staff, _ int) int64 { return s.ID })

	_, err := a.Allocate(1, students, classrooms, staff)
	require.NoError(t, err)

	assert.Equal(t, studentIDs, lo.Map(students, func(s *domain.Student, _ int) int64 { return s.ID }))
	assert.Equal(t, classroomIDs, lo.Map(classrooms, func(c *domain.Classroom, _ int) int64 { return c.ID }))
	assert.Equal(t, staffIDs, lo.Map(staff, func(s *domain.Staff, _ int) int64 { return s.ID }))
}

func TestAllocateSnapshotsClassroom(t *testing.T) {
	a := newSeededAllocator(t, 10)
	classrooms := []*domain.Classroom{{ID: 7, RoomNumber: "C-301", Block: "EC", Capacity: 60}}

	result, err := a.Allocate(1, newStudents(5, 1), classrooms, newStaff(1))

	require.NoError(t, err)
	room := result.RoomAllocations[0]
	assert.Equal(t, int64(7), room.ClassroomID)
	assert.Equal(t, "C-301", room.RoomNumber)
	assert.Equal(t, "EC", room.Block)
	assert.Equal(t, int32(60), room.Capacity)
}

func TestAllocateDeterministicWithSameSeed(t *testing.T) {
	students := newStudents(100, 2)
	classrooms := newClassrooms(45, 30, 30)
	staff := newStaff(5)

	first, err := newSeededAllocator(t, 42).Allocate(2, students, classrooms, staff)
	require.NoError(t, err)
	second, err := newSeededAllocator(t, 42).Allocate(2, students, classrooms, staff)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAllocateWithCustomPolicy(t *testing.T) {
	a, err := New(&Policy{LargeRoomThreshold: 20, LargeRoomStaff: 3, StandardRoomStaff: 1}, rand.New(rand.NewSource(11)))
	require.NoError(t, err)

	result, err := a.Allocate(1, newStudents(40, 1), newClassrooms(21, 20), newStaff(10))

	require.NoError(t, err)
	require.Len(t, result.RoomAllocations, 2)
	assert.Len(t, result.RoomAllocations[0].StaffIDs, 3)
	assert.Len(t, result.RoomAllocations[1].StaffIDs, 1)
}

func TestNewRejectsInvalidPolicy(t *testing.T) {
	_, err := New(&Policy{LargeRoomThreshold: 0, LargeRoomStaff: 2, StandardRoomStaff: 1}, nil)
	assert.Error(t, err)

	_, err = New(&Policy{LargeRoomThreshold: 40, LargeRoomStaff: 2, StandardRoomStaff: 0}, nil)
	assert.Error(t, err)

	a, err := New(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), a.policy)
}

func TestAllocateInvariantsOnRandomInputs(t *testing.T) {
	gen := rand.New(rand.NewSource(2024))
	a := newSeededAllocator(t, 12)

	for i := 0; i < 200; i++ {
		students := newStudents(gen.Intn(300)+1, 1)
		capacities := make([]int32, gen.Intn(8)+1)
		for i := range capacities {
			capacities[i] = int32(gen.Intn(70) + 1)
		}
		classrooms := newClassrooms(capacities...)
		staff := newStaff(gen.Intn(12) + 1)

		result, err := a.Allocate(1, students, classrooms, staff)

		require.NoError(t, err)
		require.NoError(t, utils.ValidateAllocation(result, students, classrooms, staff))
	}
}

func TestAllocateConcurrently(t *testing.T) {
	a := newSeededAllocator(t, 13)
	classrooms := newClassrooms(40, 35, 50)
	staff := newStaff(6)

	wg := sync.WaitGroup{}
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(semester int32) {
			defer wg.Done()
			students := newStudents(100, semester)
			result, err := a.Allocate(semester, students, classrooms, staff)
			if err != nil {
				errs <- err
				return
			}
			errs <- utils.ValidateAllocation(result, students, classrooms, staff)
		}(int32(i%8 + 1))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

// 每个学生落入每个教室的概率应该等于 1 / 教室数
func TestAllocateRoomProbabilityIsUniform(t *testing.T) {
	const trials = 30000
	a := newSeededAllocator(t, 14)
	students := newStudents(3, 1)
	classrooms := newClassrooms(1, 1, 1)
	staff := newStaff(3)

	counts := make(map[int64]map[int64]int) // studentID -> classroomID -> count
	for _, s := range students {
		counts[s.ID] = make(map[int64]int)
	}

	for i := 0; i < trials; i++ {
		result, err := a.Allocate(1, students, classrooms, staff)
		require.NoError(t, err)
		for _, room := range result.RoomAllocations {
			counts[room.StudentIDs[0]][room.ClassroomID]++
		}
	}

	expected := float64(trials) / 3
	for studentID, rooms := range counts {
		for _, c := range classrooms {
			assert.InDelta(t, expected, float64(rooms[c.ID]), 600, "student %d in classroom %d", studentID, c.ID)
		}
	}
}

type fakeSource struct {
	students   []*domain.Student
	classrooms []*domain.Classroom
	staff      []*domain.Staff
	err        error

	requestedSemester int32
}

func (f *fakeSource) GetStudentsBySemester(semester int32) ([]*domain.Student, error) {
	f.requestedSemester = semester
	return f.students, nil
}

func (f *fakeSource) GetAllClassrooms() ([]*domain.Classroom, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.classrooms, nil
}

func (f *fakeSource) GetAvailableStaff() ([]*domain.Staff, error) {
	return f.staff, nil
}

func TestRun(t *testing.T) {
	t.Run("fetches from source", func(t *testing.T) {
		src := &fakeSource{students: newStudents(12, 6), classrooms: newClassrooms(10, 10), staff: newStaff(2)}
		a := newSeededAllocator(t, 15)

		result, err := a.Run(src, 6)

		require.NoError(t, err)
		assert.Equal(t, int32(6), src.requestedSemester)
		assert.Equal(t, int32(12), result.TotalStudentsAllocated)
		assert.Equal(t, int32(2), result.TotalRoomsUsed)
	})

	t.Run("propagates fetch errors unmodified", func(t *testing.T) {
		fetchErr := errors.New("查询超时")
		src := &fakeSource{students: newStudents(12, 6), err: fetchErr}
		a := newSeededAllocator(t, 16)

		_, err := a.Run(src, 6)

		assert.Same(t, fetchErr, err)
		assert.False(t, IsPreconditionError(err))
	})
}
