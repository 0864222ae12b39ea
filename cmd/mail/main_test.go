package main

import (
	"encoding/json"
	"mime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

const testTemplateDir = "../../templates"

func encode(t *testing.T, msg domain.MailMessage) []byte {
	t.Helper()

	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func htmlBody(t *testing.T, m *mail.Msg) string {
	t.Helper()

	parts := m.GetParts()
	require.NotEmpty(t, parts)
	content, err := parts[0].GetContent()
	require.NoError(t, err)
	return string(content)
}

// subject 返回解码后的邮件主题，go-mail 会把非 ASCII 的主题编码为 RFC 2047 格式
func subject(t *testing.T, m *mail.Msg) string {
	t.Helper()

	header := m.GetGenHeader(mail.HeaderSubject)
	require.Len(t, header, 1)
	decoded, err := new(mime.WordDecoder).DecodeHeader(header[0])
	require.NoError(t, err)
	return decoded
}

func TestBuildMailCreateUser(t *testing.T) {
	body := encode(t, domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   "zhangsan@example.edu.cn",
		Data: domain.CreateUserMailData{FullName: "张三", Username: "zhangsan1", Password: "p@ssw0rd"},
	})

	m, err := buildMail("noreply@example.edu.cn", testTemplateDir, body)
	require.NoError(t, err)

	recipients, err := m.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"zhangsan@example.edu.cn"}, recipients)
	assert.Equal(t, "监考安排系统 - 账户信息", subject(t, m))

	content := htmlBody(t, m)
	assert.Contains(t, content, "zhangsan1")
	assert.Contains(t, content, "p@ssw0rd")
}

func TestBuildMailDutyAssignment(t *testing.T) {
	body := encode(t, domain.MailMessage{
		Type: domain.MailTypeDutyAssignment,
		To:   "lisi@example.edu.cn",
		Data: domain.DutyAssignmentMailData{
			StaffName:    "李四",
			ExamName:     "CIA-1 Feb 2026",
			ExamDate:     time.Date(2026, 2, 20, 9, 30, 0, 0, time.UTC),
			RoomNumber:   "C-301",
			Block:        "EC",
			StudentCount: 58,
		},
	})

	m, err := buildMail("noreply@example.edu.cn", testTemplateDir, body)
	require.NoError(t, err)

	assert.Equal(t, "监考安排系统 - 监考通知", subject(t, m))

	content := htmlBody(t, m)
	assert.Contains(t, content, "CIA-1 Feb 2026")
	assert.Contains(t, content, "2026-02-20 09:30")
	assert.Contains(t, content, "C-301")
	assert.Contains(t, content, "58")
}

func TestBuildMailRejectsMalformedMessages(t *testing.T) {
	tests := map[string][]byte{
		"not json":          []byte("{"),
		"unknown type":      []byte(`{"type":"reset_password","to":"a@example.com","data":{}}`),
		"invalid recipient": []byte(`{"type":"create_user","to":"not-an-address","data":{}}`),
		"wrong data shape":  []byte(`{"type":"duty_assignment","to":"a@example.com","data":{"studentCount":"many"}}`),
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := buildMail("noreply@example.edu.cn", testTemplateDir, body)
			assert.ErrorIs(t, err, errMalformedMessage)
		})
	}
}

func TestBuildMailMissingTemplateIsRetryable(t *testing.T) {
	body := encode(t, domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   "zhangsan@example.edu.cn",
		Data: domain.CreateUserMailData{Username: "zhangsan1"},
	})

	_, err := buildMail("noreply@example.edu.cn", "./does-not-exist", body)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errMalformedMessage)
}
