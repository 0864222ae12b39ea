package allocator

import (
	"errors"
	"fmt"

	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

// Policy 监考人员需求策略
// 容量大于 LargeRoomThreshold 的教室需要 LargeRoomStaff 名监考人员，否则需要 StandardRoomStaff 名
type Policy struct {
	LargeRoomThreshold int32
	LargeRoomStaff     int32
	StandardRoomStaff  int32
}

func DefaultPolicy() *Policy {
	return &Policy{
		LargeRoomThreshold: 40,
		LargeRoomStaff:     2,
		StandardRoomStaff:  1,
	}
}

func (p *Policy) Validate() error {
	if p.LargeRoomThreshold < 1 {
		return fmt.Errorf("大教室容量阈值必须为正数，当前为 %d", p.LargeRoomThreshold)
	}
	if p.LargeRoomStaff < 1 || p.StandardRoomStaff < 1 {
		return errors.New("每个教室所需的监考人数必须为正数")
	}
	return nil
}

func (p *Policy) staffDemand(capacity int32) int {
	if capacity > p.LargeRoomThreshold {
		return int(p.LargeRoomStaff)
	}
	return int(p.StandardRoomStaff)
}

// Source 分配所需数据的来源，repository.Repository 实现了这个接口
type Source interface {
	GetStudentsBySemester(semester int32) ([]*domain.Student, error)
	GetAllClassrooms() ([]*domain.Classroom, error)
	GetAvailableStaff() ([]*domain.Staff, error)
}

var (
	ErrNoClassrooms = errors.New("没有可用的教室")
	ErrNoStaff      = errors.New("没有可用的监考人员")
)

type NoStudentsError struct {
	Semester int32
}

func (e *NoStudentsError) Error() string {
	return fmt.Sprintf("第 %d 学期没有学生", e.Semester)
}

// IsPreconditionError 判断 err 是否为分配前的数据检查失败（调用方可以据此返回业务错误而不是服务器内部错误）
func IsPreconditionError(err error) bool {
	var noStudents *NoStudentsError
	return errors.As(err, &noStudents) || errors.Is(err, ErrNoClassrooms) || errors.Is(err, ErrNoStaff)
}
