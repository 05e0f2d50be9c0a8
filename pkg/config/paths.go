package config

import "path/filepath"

// ResolvePath returns p unchanged when absolute or empty, otherwise joined
// with baseDir.
func ResolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// resolvePaths anchors file locations at the directory of the config file.
func (c *Config) resolvePaths(baseDir string) {
	c.Database.Path = ResolvePath(baseDir, c.Database.Path)
	c.Screenshots.Dir = ResolvePath(baseDir, c.Screenshots.Dir)
	c.Log.Dir = ResolvePath(baseDir, c.Log.Dir)
}
