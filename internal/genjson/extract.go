// Package genjson extracts JSON documents from free-form language-model output.
//
// Models wrap their JSON in prose, markdown fences, or both. Rather than
// demanding clean output, every generation stage funnels raw text through
// Extract which locates the outermost bracket pair of the expected kind and
// unmarshals whatever sits between.
package genjson

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/myrjola/whodunit/internal/errors"
)

var ErrNoJSON = errors.NewSentinel("no JSON document found in text")

// Extract finds the first JSON object or array embedded in text and
// unmarshals it into dst. The document runs from the first '{' or '['
// (whichever comes first) to the last matching closing bracket.
func Extract(text string, dst any) error {
	raw, err := Slice(text)
	if err != nil {
		return err
	}
	if err = json.Unmarshal([]byte(raw), dst); err != nil {
		return errors.Wrap(err, "unmarshal extracted JSON", slog.String("json", raw))
	}
	return nil
}

// Slice returns the substring of text holding the outermost JSON document.
func Slice(text string) (string, error) {
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")

	start, closer := objStart, "}"
	if objStart < 0 || (arrStart >= 0 && arrStart < objStart) {
		start, closer = arrStart, "]"
	}
	if start < 0 {
		return "", errors.Wrap(ErrNoJSON, "locate opening bracket")
	}

	end := strings.LastIndex(text, closer)
	if end <= start {
		return "", errors.Wrap(ErrNoJSON, "locate closing bracket")
	}

	return text[start : end+1], nil
}
