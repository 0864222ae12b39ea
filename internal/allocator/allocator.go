package allocator

import (
	"cmp"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

type Allocator struct {
	policy *Policy

	mu  sync.Mutex // rand.Rand 不是并发安全的
	rng *rand.Rand
}

// New 创建分配器，rng 为 nil 时使用当前时间作为随机种子
func New(policy *Policy, rng *rand.Rand) (*Allocator, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Allocator{
		policy: policy,
		rng:    rng,
	}, nil
}

// Run 从 src 中读取数据后进行分配，读取数据时产生的错误原样返回
func (a *Allocator) Run(src Source, semester int32) (*domain.Allocation, error) {
	students, err := src.GetStudentsBySemester(semester)
	if err != nil {
		return nil, err
	}

	classrooms, err := src.GetAllClassrooms()
	if err != nil {
		return nil, err
	}

	staff, err := src.GetAvailableStaff()
	if err != nil {
		return nil, err
	}

	return a.Allocate(semester, students, classrooms, staff)
}

/**
 * 将 semester 学期的学生分配到各个教室中，并为每个教室分配监考人员
 * 步骤:
 * 		1. 筛选出该学期的学生并打乱顺序，使同一院系的学生分散到不同教室
 * 		2. 按容量从大到小对教室进行稳定排序
 * 		3. 打乱可用监考人员的顺序
 * 		4. 依次填满每个教室，学生分配完后剩余的教室不会出现在结果中
 * 		5. 为每个使用的教室分配监考人员，人员不足时能分多少分多少
 * 传入的三个切片不会被修改
 */
func (a *Allocator) Allocate(semester int32, students []*domain.Student, classrooms []*domain.Classroom, staff []*domain.Staff) (*domain.Allocation, error) {
	eligibleStudents := lo.Filter(students, func(s *domain.Student, _ int) bool {
		return s.Semester == semester
	})
	if len(eligibleStudents) == 0 {
		return nil, &NoStudentsError{Semester: semester}
	}

	if len(classrooms) == 0 {
		return nil, ErrNoClassrooms
	}

	availableStaff := lo.Filter(staff, func(s *domain.Staff, _ int) bool {
		return s.IsAvailable
	})
	if len(availableStaff) == 0 {
		return nil, ErrNoStaff
	}

	a.mu.Lock()
	shuffledStudents := Shuffle(a.rng, eligibleStudents)
	shuffledStaff := Shuffle(a.rng, availableStaff)
	a.mu.Unlock()

	// 容量相同的教室保持传入时的顺序
	sortedClassrooms := slices.Clone(classrooms)
	slices.SortStableFunc(sortedClassrooms, func(x, y *domain.Classroom) int {
		return cmp.Compare(y.Capacity, x.Capacity)
	})

	result := &domain.Allocation{
		RoomAllocations: make([]domain.RoomAllocation, 0),
		TotalStudents:   int32(len(shuffledStudents)),
	}

	studentIndex := 0
	staffIndex := 0

	for _, room := range sortedClassrooms {
		if studentIndex >= len(shuffledStudents) {
			// 所有学生都已经分配完毕
			break
		}

		seats := min(int(room.Capacity), len(shuffledStudents)-studentIndex)
		if seats <= 0 {
			continue
		}

		studentIDs := make([]int64, 0, seats)
		for _, s := range shuffledStudents[studentIndex : studentIndex+seats] {
			studentIDs = append(studentIDs, s.ID)
		}
		studentIndex += seats

		// 监考人员不足时不报错，由调用方通过结果感知
		demand := a.policy.staffDemand(room.Capacity)
		chosen := min(demand, len(shuffledStaff)-staffIndex)
		staffIDs := make([]int64, 0, chosen)
		for _, s := range shuffledStaff[staffIndex : staffIndex+chosen] {
			staffIDs = append(staffIDs, s.ID)
		}
		staffIndex += chosen

		result.RoomAllocations = append(result.RoomAllocations, domain.RoomAllocation{
			ClassroomID: room.ID,
			RoomNumber:  room.RoomNumber,
			Block:       room.Block,
			Capacity:    room.Capacity,
			StaffIDs:    staffIDs,
			StudentIDs:  studentIDs,
		})
		result.TotalStudentsAllocated += int32(seats)
	}

	result.TotalRoomsUsed = int32(len(result.RoomAllocations))
	result.UnallocatedCount = result.TotalStudents - result.TotalStudentsAllocated

	return result, nil
}
