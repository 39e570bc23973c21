package utl

import (
	"path/filepath"
	"runtime"
)

// Root 返回项目的根目录路径
func Root() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return filepath.Dir(filepath.Dir(filename))
}
