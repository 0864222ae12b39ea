package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/config"
)

// 只有持有锁的请求才能释放锁，避免锁过期后误删其他请求的锁
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func allocationLockKey(examID int64) string {
	return fmt.Sprintf("allocation_lock_exam_%d", examID)
}

// allocationLocker 保证同一场考试同时只有一个请求在生成分配结果
type allocationLocker interface {
	// Acquire 获取成功时返回用于释放锁的 token
	Acquire(examID int64) (string, bool, error)
	Release(examID int64, token string) error
}

type redisLocker struct {
	client *redis.Client
	cfg    *config.Config
}

func (l *redisLocker) Acquire(examID int64) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(l.cfg.Redis.OperationTimeout)*time.Second)
	defer cancel()

	token := uuid.NewString()
	expiration := time.Duration(l.cfg.Allocation.LockExpiration) * time.Second

	ok, err := l.client.SetNX(ctx, allocationLockKey(examID), token, expiration).Result()
	if err != nil {
		return "", false, err
	}

	return token, ok, nil
}

func (l *redisLocker) Release(examID int64, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(l.cfg.Redis.OperationTimeout)*time.Second)
	defer cancel()

	return releaseLockScript.Run(ctx, l.client, []string{allocationLockKey(examID)}, token).Err()
}
