package storage

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// JobPaths is the on-disk layout of one packaging job:
// {base}/{jobID}/master.m3u8 plus the video/audio/subtitles/custom trees.
type JobPaths struct {
	Root      string
	Video     string
	Audio     string
	Subtitles string
	Custom    string
}

// NewJobPaths lays out the directories for one job under baseDir.
func NewJobPaths(baseDir, jobID string) JobPaths {
	root := filepath.Join(baseDir, jobID)
	return JobPaths{
		Root:      root,
		Video:     filepath.Join(root, "video"),
		Audio:     filepath.Join(root, "audio"),
		Subtitles: filepath.Join(root, "subtitles"),
		Custom:    filepath.Join(root, "custom"),
	}
}

// Master returns the master playlist path.
func (p JobPaths) Master() string {
	return filepath.Join(p.Root, "master.m3u8")
}

// Create makes every job directory before any encode starts.
func (p JobPaths) Create() error {
	for _, dir := range []string{p.Root, p.Video, p.Audio, p.Subtitles, p.Custom} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// DirSize walks a directory tree and sums the file sizes.
func DirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// RemoveDir deletes a directory tree, tolerating a trailing slash.
func RemoveDir(path string) error {
	if len(path) > 0 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return os.RemoveAll(path)
}

// DownloadWithWget fetches a remote source into filePath.
func DownloadWithWget(url, filePath string) error {
	if _, err := exec.Command("wget", "-O", filePath, url).CombinedOutput(); err != nil {
		return fmt.Errorf("error running wget: %s", err)
	}
	return nil
}
