package config

// Load 把配置节绑定到 T，section 为空时绑定全部配置
func Load[T any](cfg Configuration, section string) (T, error) {
	var t T
	err := cfg.Bind(section, &t)
	return t, err
}
