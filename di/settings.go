package di

// Settings 是容器的可配置项，通常从配置文件的 "di" 节加载
type Settings struct {
	// ContextCapacity 单次解析调用中临时对象、可回滚存储和延迟构造各自的上限
	ContextCapacity int `json:"context_capacity" yaml:"context_capacity"`
	// IndexBackend 默认索引实现："hash"、"ordered" 或 "array:N"
	IndexBackend string `json:"index_backend" yaml:"index_backend"`
}

// Options 把配置转换为容器选项
func (s Settings) Options() ([]ContainerOption, error) {
	var opts []ContainerOption
	if s.ContextCapacity > 0 {
		opts = append(opts, WithContextCapacity(s.ContextCapacity))
	}
	if s.IndexBackend != "" {
		b, err := ParseIndexBackend(s.IndexBackend)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithDefaultIndexBackend(b))
	}
	return opts, nil
}
