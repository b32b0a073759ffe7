package filetype

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	"github.com/local/duplexsplit/internal/duplex"
)

// PDFMIME is the only type the splitter accepts.
const PDFMIME = "application/pdf"

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	Supported   bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename
func (d *Detector) Detect(filePath string) (*FileTypeInfo, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	info := &FileTypeInfo{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("file", filePath).Msg("detected file type")

	d.classify(info)
	return info, nil
}

// classify marks PDFs as supported and describes everything else
func (d *Detector) classify(info *FileTypeInfo) {
	switch {
	case info.MIMEType == PDFMIME:
		info.Supported = true
		info.Description = "PDF document"
	case strings.HasPrefix(info.MIMEType, "text/"):
		info.Description = "Plain text file"
	case strings.HasPrefix(info.MIMEType, "image/"):
		info.Description = "Image file"
	default:
		info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
	}
}

// RequirePDF fails with an InvalidDocument error unless filePath starts with a
// PDF header.
func (d *Detector) RequirePDF(filePath string) error {
	info, err := d.Detect(filePath)
	if err != nil {
		return duplex.InvalidDocument("detect type", filePath, 0, err)
	}
	if !info.Supported {
		return duplex.InvalidDocument("detect type", filePath, 0, fmt.Errorf("not a PDF: %s", info.Description))
	}
	return nil
}
