package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/allocator"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/utils"
)

// Store 写入示例数据所需的操作，repository.Repository 实现了这个接口
type Store interface {
	CreateStaff(s *domain.Staff) error
	CreateStudents(students []*domain.Student) error
	CreateClassroom(c *domain.Classroom) error
	CreateExam(exam *domain.Exam) error
}

type Department struct {
	Name string
	Code string
}

var Departments = []Department{
	{Name: "CSE", Code: "CS"},
	{Name: "ISE", Code: "IS"},
	{Name: "AIML", Code: "AI"},
	{Name: "ECE", Code: "EC"},
}

const (
	FirstSemester = 1
	LastSemester  = 6
)

var SampleClassrooms = []domain.Classroom{
	{RoomNumber: "A-101", Block: "BB", Capacity: 30},
	{RoomNumber: "A-102", Block: "BB", Capacity: 40},
	{RoomNumber: "A-103", Block: "BB", Capacity: 50},
	{RoomNumber: "B-201", Block: "IS", Capacity: 35},
	{RoomNumber: "B-202", Block: "IS", Capacity: 45},
	{RoomNumber: "B-203", Block: "IS", Capacity: 30},
	{RoomNumber: "C-301", Block: "EC", Capacity: 60},
	{RoomNumber: "C-302", Block: "EC", Capacity: 40},
}

var SampleExams = []domain.Exam{
	{Name: "CIA-1 Feb 2026", Date: time.Date(2026, 2, 28, 9, 0, 0, 0, time.Local), Semester: 3},
	{Name: "CIA-1 Feb 2026", Date: time.Date(2026, 2, 28, 9, 0, 0, 0, time.Local), Semester: 5},
}

// SeedStaff 插入 n 个随机监考人员，院系轮流分配，返回成功插入的数量
func SeedStaff(s Store, n int, emailDomain string) int {
	cnt := 0
	for i := 0; i < n; i++ {
		dept := Departments[i%len(Departments)]
		staff := utils.GenerateRandomStaff(dept.Name, emailDomain)
		if err := s.CreateStaff(staff); err != nil {
			slog.Error("无法插入监考人员", "error", err)
			continue
		}
		cnt++
	}

	slog.Info("插入监考人员完成", "count", cnt)
	return cnt
}

// SeedStudents 为每个院系的每个学期插入 perGroup 个学生
// 同一院系的学号序号连续递增，因此不同学期之间不会冲突
func SeedStudents(s Store, perGroup int, year int) int {
	cnt := 0
	for _, dept := range Departments {
		seq := 1
		for semester := int32(FirstSemester); semester <= LastSemester; semester++ {
			students := utils.GenerateRandomStudents(semester, dept.Name, dept.Code, year, seq, perGroup)
			seq += perGroup

			if err := s.CreateStudents(students); err != nil {
				slog.Error("无法插入学生", "department", dept.Name, "semester", semester, "error", err)
				continue
			}
			cnt += len(students)
		}
	}

	slog.Info("插入学生完成", "count", cnt)
	return cnt
}

func SeedClassrooms(s Store) int {
	cnt := 0
	for _, c := range SampleClassrooms {
		classroom := c
		if err := s.CreateClassroom(&classroom); err != nil {
			slog.Error("无法插入教室", "roomNumber", c.RoomNumber, "error", err)
			continue
		}
		cnt++
	}

	slog.Info("插入教室完成", "count", cnt)
	return cnt
}

func SeedExams(s Store) int {
	cnt := 0
	for _, e := range SampleExams {
		exam := e
		if err := s.CreateExam(&exam); err != nil {
			slog.Error("无法插入考试", "name", e.Name, "error", err)
			continue
		}
		cnt++
	}

	slog.Info("插入考试完成", "count", cnt)
	return cnt
}

var studentCSVHeaders = []string{"学号", "姓名", "学期", "院系"}

// ParseStudentsCSV 读取学生名单，第一行必须是表头: 学号,姓名,学期,院系（顺序不限）
func ParseStudentsCSV(r io.Reader) ([]*domain.Student, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[strings.TrimSpace(h)] = i
	}
	if missing := lo.Filter(studentCSVHeaders, func(h string, _ int) bool {
		_, ok := index[h]
		return !ok
	}); len(missing) > 0 {
		return nil, fmt.Errorf("缺少列: %s", strings.Join(missing, ", "))
	}

	students := make([]*domain.Student, 0)
	line := 1
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("读取文件失败: %w", err)
		}
		line++

		number := strings.TrimSpace(row[index["学号"]])
		if err := utils.ValidateStudentNumber(number); err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}

		semester, err := strconv.ParseInt(strings.TrimSpace(row[index["学期"]]), 10, 32)
		if err != nil || semester < 1 || semester > 8 {
			return nil, fmt.Errorf("第 %d 行: 学期无效", line)
		}

		students = append(students, &domain.Student{
			StudentNumber: number,
			Name:          strings.TrimSpace(row[index["姓名"]]),
			Semester:      int32(semester),
			Department:    strings.TrimSpace(row[index["院系"]]),
		})
	}

	numbers := lo.Map(students, func(s *domain.Student, _ int) string { return s.StudentNumber })
	if dup := lo.FindDuplicates(numbers); len(dup) > 0 {
		return nil, fmt.Errorf("学号 %s 重复", dup[0])
	}

	return students, nil
}

// ImportStudentsCSV 从文件导入学生，所有学生在同一个事务中插入
func ImportStudentsCSV(s Store, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	students, err := ParseStudentsCSV(file)
	if err != nil {
		return 0, err
	}

	if err := s.CreateStudents(students); err != nil {
		return 0, err
	}

	slog.Info("导入学生完成", "file", path, "count", len(students))
	return len(students), nil
}

// DryRun 对某个学期执行一次分配但不保存结果，用于检查数据是否足够
func DryRun(src allocator.Source, alloc *allocator.Allocator, semester int32) (*domain.Allocation, error) {
	result, err := alloc.Run(src, semester)
	if err != nil {
		return nil, err
	}

	for _, room := range result.RoomAllocations {
		slog.Info("教室分配",
			"block", room.Block,
			"roomNumber", room.RoomNumber,
			"capacity", room.Capacity,
			"students", len(room.StudentIDs),
			"staff", len(room.StaffIDs),
		)
	}
	slog.Info("分配预览完成",
		"semester", semester,
		"totalStudents", result.TotalStudents,
		"allocated", result.TotalStudentsAllocated,
		"unallocated", result.UnallocatedCount,
		"rooms", result.TotalRoomsUsed,
	)

	return result, nil
}
