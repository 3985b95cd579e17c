package config

type options struct {
	name      string
	fileType  string
	paths     []string
	envPrefix string
	dotenv    string
}

func defaultOptions() *options {
	return &options{
		name:      "fusebox",
		fileType:  "yaml",
		paths:     []string{"./", "./config"},
		envPrefix: "FUSEBOX",
		dotenv:    ".env",
	}
}

// Option 配置加载选项
type Option func(*options)

// WithName 设置配置文件名（不含扩展名），默认 "fusebox"
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithFileType 设置配置文件格式，默认 "yaml"
func WithFileType(fileType string) Option {
	return func(o *options) {
		if fileType != "" {
			o.fileType = fileType
		}
	}
}

// WithPaths 设置配置文件搜索路径，默认 ./ 和 ./config
func WithPaths(paths ...string) Option {
	return func(o *options) {
		if len(paths) > 0 {
			o.paths = paths
		}
	}
}

// WithEnvPrefix 设置环境变量前缀，默认 "FUSEBOX"
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.envPrefix = prefix
		}
	}
}

// WithDotenv 设置 .env 文件路径，默认当前目录下的 ".env"
func WithDotenv(path string) Option {
	return func(o *options) {
		if path != "" {
			o.dotenv = path
		}
	}
}
