package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/allocator"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/config"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/repository"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/seed"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var year int
	var semester int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机监考人员, 2: 插入随机学生, 3: 插入示例教室, 4: 插入示例考试, 5: 插入以上所有数据, 6: 从 CSV 导入学生, 7: 预览某个学期的分配结果)")
	flag.IntVar(&n, "n", 0, "监考人员数量，或每个院系每个学期的学生数量，为 0 时使用默认值")
	flag.IntVar(&year, "year", time.Now().Year(), "学号中的入学年份")
	flag.IntVar(&semester, "semester", 0, "预览分配结果的学期")
	flag.StringVar(&file, "file", "./internal/seed/data/students.csv", "要导入的学生名单")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	if err := repo.RunMigrations(); err != nil {
		logger.Error("无法执行数据库迁移", "error", err)
		return
	}

	staffCount := n
	if staffCount <= 0 {
		staffCount = 10
	}
	perGroup := n
	if perGroup <= 0 {
		perGroup = cfg.Seed.StudentsPerGroup
	}

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		seed.SeedStaff(repo, staffCount, cfg.Email.StaffDomain)
	case 2:
		seed.SeedStudents(repo, perGroup, year)
	case 3:
		seed.SeedClassrooms(repo)
	case 4:
		seed.SeedExams(repo)
	case 5:
		seed.SeedStaff(repo, staffCount, cfg.Email.StaffDomain)
		seed.SeedClassrooms(repo)
		seed.SeedStudents(repo, perGroup, year)
		seed.SeedExams(repo)
		slog.Info("插入数据完成")
	case 6:
		if _, err := seed.ImportStudentsCSV(repo, file); err != nil {
			slog.Error("导入学生失败", "file", file, "error", err)
		}
	case 7:
		if semester <= 0 {
			slog.Error("请输入合法的学期")
			return
		}

		var rng *rand.Rand
		if cfg.Allocation.Seed != 0 {
			rng = rand.New(rand.NewSource(cfg.Allocation.Seed))
		}

		alloc, err := allocator.New(&allocator.Policy{
			LargeRoomThreshold: cfg.Allocation.LargeRoomThreshold,
			LargeRoomStaff:     cfg.Allocation.LargeRoomStaff,
			StandardRoomStaff:  cfg.Allocation.StandardRoomStaff,
		}, rng)
		if err != nil {
			slog.Error("无法创建分配器", "error", err)
			return
		}

		if _, err := seed.DryRun(repo, alloc, int32(semester)); err != nil {
			slog.Error("无法生成分配预览", "error", err)
		}
	default:
		slog.Error("指定的操作非法")
	}
}
