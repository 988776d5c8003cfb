package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FFmpegSource extracts individual frames from a media file by shelling out
// to ffmpeg. One seek+capture pair runs at a time per source; the internal
// mutex makes overlapping calls queue rather than corrupt the position.
type FFmpegSource struct {
	id          string
	path        string
	meta        Metadata
	ffmpegPath  string
	seekTimeout time.Duration

	mu       sync.Mutex
	position float64
	closed   bool
}

// NewFFmpegSource creates a source for the media file at path. meta should
// come from Probe (or the segmenter's metadata record).
func NewFFmpegSource(id, path string, meta Metadata, ffmpegPath string, seekTimeout time.Duration) (*FFmpegSource, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if seekTimeout <= 0 {
		seekTimeout = 5 * time.Second
	}

	return &FFmpegSource{
		id:          id,
		path:        path,
		meta:        meta,
		ffmpegPath:  ffmpegPath,
		seekTimeout: seekTimeout,
	}, nil
}

func (f *FFmpegSource) ID() string         { return f.id }
func (f *FFmpegSource) Metadata() Metadata { return f.meta }

// Seek positions the source. The position is clamped into the clip.
func (f *FFmpegSource) Seek(ctx context.Context, seconds float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fmt.Errorf("source %s is closed", f.id)
	}

	if seconds < 0 {
		seconds = 0
	}
	if seconds > f.meta.DurationSeconds {
		seconds = f.meta.DurationSeconds
	}
	f.position = seconds
	return nil
}

// Capture decodes one frame at the current position.
func (f *FFmpegSource) Capture(ctx context.Context) (image.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, fmt.Errorf("source %s is closed", f.id)
	}

	cmdCtx, cancel := context.WithTimeout(ctx, f.seekTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, f.ffmpegPath,
		"-ss", strconv.FormatFloat(f.position, 'f', 3, 64),
		"-i", f.path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-loglevel", "error",
		"-",
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("seek to %.3fs timed out: %w", f.position, cmdCtx.Err())
		}
		return nil, fmt.Errorf("ffmpeg capture failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	img, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode captured frame: %w", err)
	}

	return img, nil
}

// Close marks the source unusable. Any in-flight capture finishes first.
func (f *FFmpegSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// ffprobe JSON output shapes (only the fields we read).
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
	Size     string `json:"size"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
}

// Probe reads media metadata via ffprobe.
func Probe(ctx context.Context, ffprobePath, path string, timeout time.Duration) (Metadata, error) {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return Metadata{}, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	return parseProbeOutput(out)
}

func parseProbeOutput(data []byte) (Metadata, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var video *probeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			video = &probe.Streams[i]
			break
		}
	}
	if video == nil {
		return Metadata{}, fmt.Errorf("no video stream found")
	}

	fps := parseRational(video.AvgFrameRate)
	if fps <= 0 {
		fps = parseRational(video.RFrameRate)
	}

	duration, _ := strconv.ParseFloat(probe.Format.Duration, 64)
	bitrate, _ := strconv.ParseInt(probe.Format.BitRate, 10, 64)
	size, _ := strconv.ParseInt(probe.Format.Size, 10, 64)

	meta := Metadata{
		DurationSeconds: duration,
		Width:           video.Width,
		Height:          video.Height,
		FPS:             fps,
		Bitrate:         bitrate,
		Codec:           video.CodecName,
		SizeBytes:       size,
	}

	if err := meta.Validate(); err != nil {
		return Metadata{}, err
	}

	return meta, nil
}

// parseRational parses ffprobe rate strings like "30000/1001" or "25".
func parseRational(s string) float64 {
	if s == "" || s == "0/0" {
		return 0
	}

	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0
		}
		return n / d
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
