package examxml

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"

	"exam-mex-backend/internal/model"
)

// AttachmentRef returns the cross-reference name of an attachment: the hex
// SHA-1 of the filename encoded as a JSON string. Attachment entries carry it
// as name and attachment links carry it as ref.
func AttachmentRef(filename string) string {
	sum := sha1.Sum(jsonString(filename))
	return hex.EncodeToString(sum[:])
}

// jsonString encodes s the way JavaScript's JSON.stringify does: no HTML
// escaping and U+2028/U+2029 left as literal characters.
func jsonString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	encoded := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	out := make([]byte, 0, len(encoded))
	for i := 0; i < len(encoded); i++ {
		if encoded[i] != '\\' || i+1 >= len(encoded) {
			out = append(out, encoded[i])
			continue
		}
		if esc := string(encoded[i+1:min(i+6, len(encoded))]); esc == "u2028" || esc == "u2029" {
			r := '\u2028'
			if esc == "u2029" {
				r = '\u2029'
			}
			out = utf8.AppendRune(out, r)
			i += 5
			continue
		}
		out = append(out, encoded[i], encoded[i+1])
		i++
	}
	return out
}

// BuildExternalMaterial emits one e:attachment per attachment.
func BuildExternalMaterial(attachments []model.Attachment) *xmlquery.Node {
	material := newElement("external-material")
	for _, a := range attachments {
		entry := appendElement(material, "attachment")
		entry.SetAttr("name", AttachmentRef(a.Filename))
		appendText(appendElement(entry, "attachment-title"), a.Filename)
		appendElement(entry, string(a.Type)).SetAttr("src", a.Filename)
	}
	return material
}
