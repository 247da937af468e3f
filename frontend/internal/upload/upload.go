// Package upload implements the single-image attachment zone used by the
// thread and reply composers.
package upload

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/itchan-dev/discussion/frontend/internal/dom"
	"github.com/itchan-dev/discussion/frontend/internal/eventloop"
	"github.com/itchan-dev/discussion/shared/domain"
	"github.com/itchan-dev/discussion/shared/logger"
	"github.com/itchan-dev/discussion/shared/validation"
)

type State int

const (
	Idle State = iota
	Previewing
)

func (s State) String() string {
	if s == Previewing {
		return "previewing"
	}
	return "idle"
}

const (
	msgUnreadable = "Could not read the selected file."
	msgEmpty      = "No file selected."
)

type Options struct {
	Rules validation.ImageRules
	// Browse opens the host's file picker; a chosen file comes back through Select.
	Browse func()
	// Notify shows a transient notice about a rejected file.
	Notify func(message string)
}

// Preview is the rendered form of the held file.
type Preview struct {
	DataURL string
	Width   *int
	Height  *int
}

type Zone struct {
	loop *eventloop.Loop
	opts Options

	root      *dom.Element
	prompt    *dom.Element
	preview   *dom.Element
	image     *dom.Element
	removeBtn *dom.Element

	file  *domain.PendingFile
	shown *Preview
	// generation invalidates previews still being read when the selection changes.
	generation uint64
}

// New builds a zone whose presentation lives in Element.
func New(id string, loop *eventloop.Loop, opts Options) *Zone {
	z := &Zone{loop: loop, opts: opts}

	z.prompt = dom.New("div", "upload-prompt").WithText("Drop an image here or click to browse")
	z.image = dom.New("img", "upload-preview-img")
	z.removeBtn = dom.New("button", "upload-remove").WithText("Remove")
	z.preview = dom.New("div", "upload-preview").Append(z.image, z.removeBtn)
	z.preview.Hidden = true
	z.root = dom.New("div", "upload-zone").WithID(id).Append(z.prompt, z.preview)
	z.root.SetAttr("tabindex", "0").SetAttr("role", "button")

	z.removeBtn.On(dom.Click, func(ev *dom.Event) {
		ev.StopPropagation()
		z.Clear()
	})
	z.root.On(dom.Click, func(*dom.Event) { z.Activate() })
	z.root.On(dom.KeyDown, func(ev *dom.Event) { z.KeyDown(ev.Key) })
	z.root.On(dom.Drop, func(ev *dom.Event) {
		files, _ := ev.Payload.([]*domain.PendingFile)
		z.Drop(files)
	})
	z.root.On(dom.Change, func(ev *dom.Event) {
		if f, ok := ev.Payload.(*domain.PendingFile); ok {
			z.Select(f)
		}
	})
	return z
}

func (z *Zone) Element() *dom.Element { return z.root }

func (z *Zone) State() State {
	if z.file != nil {
		return Previewing
	}
	return Idle
}

// Held returns the file that would be submitted, or nil.
func (z *Zone) Held() *domain.PendingFile { return z.file }

// Preview returns the rendered preview, or nil while idle or still reading.
func (z *Zone) Preview() *Preview { return z.shown }

// Validate checks the file against the allow-list and size ceiling.
func (z *Zone) Validate(f *domain.PendingFile) error {
	if f == nil {
		return &validation.AttachmentError{Reason: msgEmpty, Err: errors.New("nil file")}
	}
	if f.MimeType == "" {
		if mimeType, err := validation.DetectMimeType(f.Filename, "", nil); err == nil {
			f.MimeType = mimeType
		}
	}
	return validation.ValidateImage(f.FileCommonMetadata, z.opts.Rules)
}

// Select offers a file chosen through the picker. A rejected file leaves the
// current selection untouched.
func (z *Zone) Select(f *domain.PendingFile) bool {
	if err := z.Validate(f); err != nil {
		z.reject(err)
		return false
	}
	z.file = f
	z.shown = nil
	z.generation++
	z.renderPreview(z.generation, f)
	return true
}

// Drop takes the first dropped file only.
func (z *Zone) Drop(files []*domain.PendingFile) bool {
	if len(files) == 0 {
		return false
	}
	return z.Select(files[0])
}

func (z *Zone) Activate() {
	if z.opts.Browse != nil {
		z.opts.Browse()
	}
}

// KeyDown activates the zone on Enter or Space.
func (z *Zone) KeyDown(key string) bool {
	switch key {
	case "Enter", " ", "Space":
		z.Activate()
		return true
	}
	return false
}

// Clear drops the held file and shows the idle prompt. Safe to call at any time.
func (z *Zone) Clear() {
	z.generation++
	z.file = nil
	z.shown = nil
	z.image.SetAttr("src", "")
	z.preview.Hidden = true
	z.prompt.Hidden = false
}

func (z *Zone) reject(err error) {
	reason := err.Error()
	var attachmentErr *validation.AttachmentError
	if errors.As(err, &attachmentErr) {
		reason = attachmentErr.Reason
	}
	logger.Log.Debug("attachment rejected", "zone", z.root.ID, "error", err)
	if z.opts.Notify != nil {
		z.opts.Notify(reason)
	}
}

func (z *Zone) renderPreview(gen uint64, f *domain.PendingFile) {
	z.loop.Go(func() func() {
		p, err := readPreview(f)
		return func() {
			if gen != z.generation {
				return
			}
			if err != nil {
				logger.Log.Warn("cannot preview attachment", "file", f.Filename, "error", err)
				z.Clear()
				if z.opts.Notify != nil {
					z.opts.Notify(msgUnreadable)
				}
				return
			}
			f.ImageWidth, f.ImageHeight = p.Width, p.Height
			z.shown = p
			z.image.SetAttr("src", p.DataURL)
			z.image.SetAttr("alt", f.Filename)
			z.prompt.Hidden = true
			z.preview.Hidden = false
		}
	})
}

func readPreview(f *domain.PendingFile) (*Preview, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	width, height := validation.ExtractImageDimensions(bytes.NewReader(data), f.MimeType)
	return &Preview{
		DataURL: "data:" + f.MimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Width:   width,
		Height:  height,
	}, nil
}

// FromPath stats a local file and detects its type from name and content.
// The content itself is read again when the file is previewed or submitted.
func FromPath(path string) (*domain.PendingFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	head := make([]byte, 512)
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	n, _ := io.ReadFull(f, head)
	f.Close()

	mimeType, err := validation.DetectMimeType(path, "", head[:n])
	if err != nil {
		return nil, err
	}
	return &domain.PendingFile{
		FileCommonMetadata: domain.FileCommonMetadata{
			Filename:  filepath.Base(path),
			SizeBytes: info.Size(),
			MimeType:  mimeType,
		},
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}
