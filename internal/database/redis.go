package database

import (
	"sync"

	"github.com/hugo617/healthcare-admin-sub002/pkg/config"
	"github.com/hugo617/healthcare-admin-sub002/pkg/session"
)

var (
	sessionStoreInstance *session.SessionStore
	sessionStoreOnce     sync.Once
)

// GetSessionStore 获取会话登记表的单例实例
func GetSessionStore() *session.SessionStore {
	sessionStoreOnce.Do(func() {
		cfg := config.GetConfig()
		sessionStoreInstance = session.NewSessionStore(&session.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	})
	return sessionStoreInstance
}

// CloseSessionStore 关闭Redis连接
func CloseSessionStore() error {
	if sessionStoreInstance != nil {
		return sessionStoreInstance.Close()
	}
	return nil
}
