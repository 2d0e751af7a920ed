package vision

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "image/jpeg"
	_ "image/png"
)

// Frame is one decoded video frame with its position in the recording.
type Frame struct {
	TVideoMS int64
	Image    image.Image
}

// FrameSource yields decoded frames in capture order. Next returns io.EOF when
// the source is exhausted. Any other error is fatal to the run.
type FrameSource interface {
	FPS() float64
	Next() (Frame, error)
	Close() error
}

// DirSource reads an image sequence from a directory. Files must be named
// "<t_video_ms>.<ext>" and are visited in ascending timestamp order.
type DirSource struct {
	fps   float64
	files []dirFrame
	next  int
}

type dirFrame struct {
	path string
	tMS  int64
}

func NewDirSource(dir string, fps float64, extensions []string) (*DirSource, error) {
	if fps <= 0 {
		fps = 30.0
	}
	if len(extensions) == 0 {
		extensions = []string{".png", ".jpg", ".jpeg"}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open frame dir: %w", err)
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}
	files := make([]dirFrame, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !allowed[ext] {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		tMS, err := strconv.ParseInt(stem, 10, 64)
		if err != nil || tMS < 0 {
			continue
		}
		files = append(files, dirFrame{path: filepath.Join(dir, name), tMS: tMS})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no usable frames in %s", dir)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].tMS < files[j].tMS })
	return &DirSource{fps: fps, files: files}, nil
}

func (s *DirSource) FPS() float64 { return s.fps }

func (s *DirSource) Next() (Frame, error) {
	if s.next >= len(s.files) {
		return Frame{}, io.EOF
	}
	fr := s.files[s.next]
	s.next++
	f, err := os.Open(fr.path)
	if err != nil {
		return Frame{}, fmt.Errorf("open frame %s: %w", fr.path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return Frame{}, fmt.Errorf("decode frame %s: %w", fr.path, err)
	}
	return Frame{TVideoMS: fr.tMS, Image: img}, nil
}

func (s *DirSource) Close() error {
	s.next = len(s.files)
	return nil
}
