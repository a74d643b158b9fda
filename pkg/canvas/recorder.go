package canvas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
)

// Op names a recorded canvas command.
type Op string

// Recorded operations.
const (
	OpText    Op = "text"
	OpImage   Op = "image"
	OpNewPage Op = "new_page"
)

// Command is one recorded canvas call. Images are recorded by size and digest.
type Command struct {
	Op    Op      `json:"op"`
	Page  int     `json:"page"`
	Text  string  `json:"text,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Size  float64 `json:"size,omitempty"`
	Width float64 `json:"width,omitempty"`
	Bytes int     `json:"bytes,omitempty"`
	SHA   string  `json:"sha256,omitempty"`
}

// Recorder is a [Finalizer] that keeps every command in memory and finalizes
// them as an indented JSON document.
type Recorder struct {
	Commands []Command `json:"commands"`
	Pages    int       `json:"pages"`
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) page() (int, error) {
	if r.Pages == 0 {
		return 0, fmt.Errorf("draw before the first page")
	}
	return r.Pages, nil
}

// DrawText records a text command.
func (r *Recorder) DrawText(text string, x, y, size float64) error {
	p, err := r.page()
	if err != nil {
		return err
	}
	r.Commands = append(r.Commands, Command{Op: OpText, Page: p, Text: text, X: x, Y: y, Size: size})
	return nil
}

// DrawImage records an image command.
func (r *Recorder) DrawImage(img []byte, x, y, width float64) error {
	p, err := r.page()
	if err != nil {
		return err
	}
	sum := sha256.Sum256(img)
	r.Commands = append(r.Commands, Command{
		Op: OpImage, Page: p, X: x, Y: y, Width: width,
		Bytes: len(img), SHA: hex.EncodeToString(sum[:]),
	})
	return nil
}

// NewPage records a page start. Pages are numbered from 1.
func (r *Recorder) NewPage() error {
	r.Pages++
	r.Commands = append(r.Commands, Command{Op: OpNewPage, Page: r.Pages})
	return nil
}

// Texts returns the texts drawn on page (1-based), in drawing order.
func (r *Recorder) Texts(page int) []string {
	var out []string
	for _, c := range r.Commands {
		if c.Op == OpText && c.Page == page {
			out = append(out, c.Text)
		}
	}
	return out
}

// Finalize writes the recording as JSON.
func (r *Recorder) Finalize(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
