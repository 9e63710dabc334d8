package config

// Section 把指定节绑定到 T 并返回，section 为空时绑定整个配置
func Section[T any](cfg Configuration, section string) (T, error) {
	var t T
	err := cfg.Bind(section, &t)
	return t, err
}
