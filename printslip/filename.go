package printslip

import (
	"regexp"
	"strings"
)

// DefaultFilename is used when nothing printable is left after sanitizing.
const DefaultFilename = "phieu_xuat_kho"

var unsafeFilenameChars = regexp.MustCompile(`[^0-9A-Za-z_.\-]+`)

// SafeFilename keeps [0-9A-Za-z_.-] and turns every other run of characters into "_".
func SafeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(name), "_")
	if name == "" {
		return DefaultFilename
	}
	return name
}

// PDFFilename is the download name of a slip: PX-<so phieu>.pdf.
func PDFFilename(soPhieu string) string {
	return SafeFilename("PX-"+soPhieu) + ".pdf"
}
