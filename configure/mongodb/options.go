package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoOptions MongoDB 客户端配置选项
type MongoOptions struct {
	Name        string        `json:"-"`
	Uri         string        `json:"uri"`
	Username    string        `json:"username"`
	Password    string        `json:"password"`
	MaxPoolSize uint64        `json:"max_pool_size"`
	MinPoolSize uint64        `json:"min_pool_size"`
	Timeout     time.Duration `json:"timeout"`
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *MongoOptions {
	return &MongoOptions{
		Name:        name,
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     10 * time.Second,
	}
}

// Validate 验证配置
func (o *MongoOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("mongo client name is required")
	}
	if o.Uri == "" {
		return fmt.Errorf("mongo uri is required")
	}
	return nil
}

func (o *MongoOptions) clientOptions() *options.ClientOptionsBuilder {
	clientOpts := options.Client()
	if o.Username != "" || o.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: o.Username,
			Password: o.Password,
		})
	}
	if o.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(o.MinPoolSize)
	}
	if o.Timeout > 0 {
		clientOpts.SetConnectTimeout(o.Timeout)
	}
	return clientOpts
}
