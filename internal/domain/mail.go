package domain

import "time"

const (
	MailTypeCreateUser     = "create_user"
	MailTypeDutyAssignment = "duty_assignment"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type DutyAssignmentMailData struct {
	StaffName    string    `json:"staffName"`
	ExamName     string    `json:"examName"`
	ExamDate     time.Time `json:"examDate"`
	RoomNumber   string    `json:"roomNumber"`
	Block        string    `json:"block"`
	StudentCount int       `json:"studentCount"`
}
