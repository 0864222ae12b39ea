package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// 取每个字拼音的一个前缀，再加上 1~3 位随机数字
func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

var designations = []string{"教授", "副教授", "讲师", "助教", "系主任"}

func GenerateRandomStaff(department string, emailDomainName string) *domain.Staff {
	name := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(name)

	return &domain.Staff{
		Name:        name,
		Department:  department,
		Designation: designations[rand.Intn(len(designations))],
		Email:       username + "@" + emailDomainName,
		IsAvailable: rand.Intn(10) > 0, // 大约 10% 的人员不可用
	}
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

// 学号格式: 1DS + 入学年份后两位 + 2 位院系代码 + 3 位序号，例如 1DS21CS001
func GenerateStudentNumber(year int, departmentCode string, seq int) string {
	code := strings.ToUpper(departmentCode)
	if len(code) > 2 {
		code = code[:2]
	}
	return fmt.Sprintf("1DS%02d%-2s%03d", year%100, code, seq%1000)
}

// 为某个学期的某个院系生成 n 个学生，序号从 startSeq 开始
func GenerateRandomStudents(semester int32, department string, departmentCode string, year int, startSeq int, n int) []*domain.Student {
	students := make([]*domain.Student, n)
	for i := range students {
		students[i] = &domain.Student{
			StudentNumber: GenerateStudentNumber(year, departmentCode, startSeq+i),
			Name:          GenerateRandomChineseName(),
			Semester:      semester,
			Department:    department,
		}
	}
	return students
}
