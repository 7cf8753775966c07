// Package mailer implements the background email dispatcher: an unbounded
// FIFO of outgoing messages with retry-on-failure, plus a synchronous send
// path for the worker driver's result-email delivery.
package mailer

import (
	"path/filepath"
	"strings"
)

// TextAttachment is a plain utf-8 text part (e.g. a LaTeX log).
type TextAttachment struct {
	Name string
	Body string
}

// BinaryAttachment is a raw byte part (e.g. the rendered PDF).
type BinaryAttachment struct {
	Name string
	Data []byte
}

// Message is one outgoing email. TextBody and HTMLBody are both sent as
// alternative parts, mirroring the original's plain-text-alongside-HTML
// convention.
type Message struct {
	To               string
	Subject          string
	TextBody         string
	HTMLBody         string
	TextAttachments  []TextAttachment
	BinaryAttachments []BinaryAttachment
}

// mimeSubtype classifies a binary attachment by filename extension, the
// way a small pure-function dispatch table would, falling back to
// application/octet-stream for anything unrecognized.
func mimeSubtype(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".txt", ".log":
		return "text/plain"
	case ".csv":
		return "text/csv"
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
