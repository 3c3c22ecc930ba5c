package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionStore Redis会话登记表
// 核心认证不依赖服务端会话（令牌生命周期由签名内的过期时间决定），
// 这里只登记会话ID，为后续的强制下线/吊销能力预留钩子
type SessionStore struct {
	client *redis.Client
	prefix string
}

// SessionRecord 会话记录
type SessionRecord struct {
	SessionID  string `json:"session_id"`
	UserID     uint   `json:"user_id"`
	TenantID   uint   `json:"tenant_id"`
	Username   string `json:"username"`
	ClientType string `json:"client_type"` // admin 或 h5
	LoginAt    int64  `json:"login_at"`
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewSessionStore 创建会话登记表实例
func NewSessionStore(config *Config) *SessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "hcadmin:session"
	}

	return &SessionStore{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (s *SessionStore) Close() error {
	return s.client.Close()
}

// Ping 测试Redis连接
func (s *SessionStore) Ping() error {
	ctx := context.Background()
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, sessionID)
}

func (s *SessionStore) userKey(userID uint) string {
	return fmt.Sprintf("%s:user:%d", s.prefix, userID)
}

// Record 登记会话，TTL与令牌有效期一致，过期自动清除
func (s *SessionStore) Record(record *SessionRecord, ttl time.Duration) error {
	ctx := context.Background()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化会话记录失败: %v", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(record.SessionID), data, ttl)
	pipe.Set(ctx, s.userKey(record.UserID), record.SessionID, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Get 读取会话记录，不存在返回nil而非错误
func (s *SessionStore) Get(sessionID string) (*SessionRecord, error) {
	ctx := context.Background()

	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("解析会话记录失败: %v", err)
	}
	return &record, nil
}

// Remove 注销时移除会话记录
func (s *SessionStore) Remove(sessionID string, userID uint) error {
	ctx := context.Background()

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.Del(ctx, s.userKey(userID))
	_, err := pipe.Exec(ctx)
	return err
}

// RemoveByUser 按用户移除会话（没有会话也视为成功）
func (s *SessionStore) RemoveByUser(userID uint) error {
	ctx := context.Background()

	sessionID, err := s.client.Get(ctx, s.userKey(userID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Remove(sessionID, userID)
}
