package utils

import (
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/samber/lo"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

const StudentNumberLength = 10

func ValidateStudentNumber(number string) error {
	if len(number) != StudentNumberLength {
		return fmt.Errorf("学号长度必须为 %d 位", StudentNumberLength)
	}
	for _, r := range number {
		if r > unicode.MaxASCII || !(unicode.IsDigit(r) || unicode.IsUpper(r)) {
			return errors.New("学号只能包含数字和大写字母")
		}
	}
	return nil
}

// 考试日期不能早于今天
func ValidateExamDate(exam *domain.Exam, now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if exam.Date.Before(today) {
		return errors.New("考试日期不能早于今天")
	}
	return nil
}

/**
 * 检查分配结果是否满足约束条件
 * students 应该是参与本次分配的学生（即该学期的所有学生），staff 可以包含不可用的人员
 */
func ValidateAllocation(result *domain.Allocation, students []*domain.Student, classrooms []*domain.Classroom, staff []*domain.Staff) error {
	studentSet := lo.SliceToMap(students, func(s *domain.Student) (int64, bool) {
		return s.ID, true
	})
	classroomMap := lo.KeyBy(classrooms, func(c *domain.Classroom) int64 {
		return c.ID
	})
	staffMap := lo.KeyBy(staff, func(s *domain.Staff) int64 {
		return s.ID
	})

	seenStudents := make(map[int64]bool)
	seenStaff := make(map[int64]bool)
	seenClassrooms := make(map[int64]bool)
	allocated := 0

	for i, room := range result.RoomAllocations {
		classroom, ok := classroomMap[room.ClassroomID]
		if !ok {
			return fmt.Errorf("第 %d 个教室分配中的教室 %d 不存在", i+1, room.ClassroomID)
		}
		if seenClassrooms[room.ClassroomID] {
			return fmt.Errorf("教室 %s 被重复使用", room.RoomNumber)
		}
		seenClassrooms[room.ClassroomID] = true

		if len(room.StudentIDs) == 0 {
			return fmt.Errorf("教室 %s 没有分配任何学生，不应该出现在结果中", room.RoomNumber)
		}
		if len(room.StudentIDs) > int(classroom.Capacity) {
			return fmt.Errorf("教室 %s 分配了 %d 名学生，超过了容量 %d", room.RoomNumber, len(room.StudentIDs), classroom.Capacity)
		}

		for _, studentID := range room.StudentIDs {
			if !studentSet[studentID] {
				return fmt.Errorf("教室 %s 中的学生 %d 不在本次分配的学生中", room.RoomNumber, studentID)
			}
			if seenStudents[studentID] {
				return fmt.Errorf("学生 %d 被分配到了多个教室", studentID)
			}
			seenStudents[studentID] = true
		}

		for _, staffID := range room.StaffIDs {
			s, ok := staffMap[staffID]
			if !ok || !s.IsAvailable {
				return fmt.Errorf("教室 %s 中的监考人员 %d 不可用", room.RoomNumber, staffID)
			}
			if seenStaff[staffID] {
				return fmt.Errorf("监考人员 %d 被分配到了多个教室", staffID)
			}
			seenStaff[staffID] = true
		}

		allocated += len(room.StudentIDs)
	}

	if int(result.TotalStudents) != len(students) {
		return fmt.Errorf("学生总数 %d 与实际参与分配的学生数 %d 不一致", result.TotalStudents, len(students))
	}
	if int(result.TotalStudentsAllocated) != allocated {
		return fmt.Errorf("已分配学生数 %d 与各教室学生数之和 %d 不一致", result.TotalStudentsAllocated, allocated)
	}
	if result.TotalStudentsAllocated+result.UnallocatedCount != result.TotalStudents {
		return errors.New("已分配学生数与未分配学生数之和不等于学生总数")
	}
	if int(result.TotalRoomsUsed) != len(result.RoomAllocations) {
		return fmt.Errorf("使用的教室数 %d 与教室分配数 %d 不一致", result.TotalRoomsUsed, len(result.RoomAllocations))
	}

	return nil
}
