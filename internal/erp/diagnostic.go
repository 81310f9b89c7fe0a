package erp

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"focorders/internal/util"
)

const maxSummaryRunes = 300

type odataError struct {
	Error struct {
		Code    string `json:"code"`
		Message struct {
			Value string `json:"value"`
		} `json:"message"`
	} `json:"error"`
}

// Summarize turns an ERP error body into one readable line for logs and summaries.
// OData JSON errors yield "code: message"; gateway HTML pages yield their title or text.
func Summarize(contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	ct := strings.ToLower(contentType)

	if strings.Contains(ct, "json") || trimmed[0] == '{' {
		var oe odataError
		if err := json.Unmarshal(trimmed, &oe); err == nil && oe.Error.Message.Value != "" {
			msg := oe.Error.Message.Value
			if oe.Error.Code != "" {
				msg = oe.Error.Code + ": " + msg
			}
			return util.Truncate(util.NormalizeSpaces(msg), maxSummaryRunes)
		}
	}

	if strings.Contains(ct, "html") || bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<!doctype html")) || bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<html")) {
		if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed)); err == nil {
			if title := util.NormalizeSpaces(doc.Find("title").First().Text()); title != "" {
				return util.Truncate(title, maxSummaryRunes)
			}
			if text := util.NormalizeSpaces(doc.Find("body").Text()); text != "" {
				return util.Truncate(text, maxSummaryRunes)
			}
		}
	}

	return util.Truncate(util.NormalizeSpaces(string(trimmed)), maxSummaryRunes)
}
