// Package filetype classifies uploads by their magic bytes.
package filetype

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

type Kind string

const (
	KindImage       Kind = "image"
	KindPDF         Kind = "pdf"
	KindUnsupported Kind = "unsupported"
)

// Info is the detected type of an upload.
type Info struct {
	MIMEType  string
	Extension string
	Kind      Kind
}

func (i Info) Supported() bool { return i.Kind != KindUnsupported }

// Images the preprocessor can decode.
var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Detect classifies data using magic bytes; the filename is never trusted.
func Detect(data []byte) Info {
	mtype := mimetype.Detect(data)
	info := Info{MIMEType: mtype.String(), Extension: mtype.Extension(), Kind: KindUnsupported}

	switch {
	case mtype.Is("application/pdf"):
		info.Kind = KindPDF
	case imageTypes[mtype.String()]:
		info.Kind = KindImage
	}

	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("kind", string(info.Kind)).Msg("detected upload type")
	return info
}
