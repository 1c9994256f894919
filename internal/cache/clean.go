package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"

	"github.com/conveyor-ci/conveyor/internal/meta"
	"github.com/conveyor-ci/conveyor/internal/x"
)

// GlobalDir is the user-wide cache, used for migrated pipeline backups.
func GlobalDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", meta.AppName), nil
}

// CleanCache removes the build directories under the project at dir;
// recursive descends into child directories looking for more projects.
func CleanCache(dir string, recursive bool) {
	dirPath := filepath.Join(dir, meta.BuildDirPrefix, "pipelines", "tmp")
	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if path == dirPath {
			return nil
		}
		if info != nil && info.IsDir() {
			fmt.Println("removing", path)
			x.Must(os.RemoveAll(path))
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		panic(err)
	}
	var wg sync.WaitGroup
	if recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			panic(err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				wg.Add(1)
				go func(entry os.DirEntry) {
					defer wg.Done()
					CleanCache(filepath.Join(dir, entry.Name()), recursive)
				}(entry)
			}
		}
	}
	wg.Wait()
}
