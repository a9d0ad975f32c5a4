// Package export builds the text and files a user copies or downloads.
package export

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/lehigh-university-libraries/coursemarketer/internal/models"
)

// fixed hashtags appended after the strategy's keywords
var brandHashtags = []string{"104學習精靈", "職涯發展"}

var ErrInvalidDataURI = errors.New("invalid data URI")

// Caption joins every slide's headline and subtext in order, then a call to
// action naming the course and a hashtag line built from the keywords.
func Caption(slides []models.SlideContent, courseTitle string, keywords []string) string {
	parts := make([]string, 0, len(slides))
	for i, s := range slides {
		parts = append(parts, fmt.Sprintf("【Slide %d】%s\n%s", i+1, s.Headline, s.Subtext))
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(parts, "\n\n"))
	sb.WriteString("\n\n👇 立即搜尋課程：")
	sb.WriteString(courseTitle)
	sb.WriteString("\n\n")
	sb.WriteString(Hashtags(keywords))
	return sb.String()
}

// Hashtags renders keywords followed by the brand tags, e.g. "#轉職 #履歷技巧 #104學習精靈 #職涯發展"
func Hashtags(keywords []string) string {
	tags := make([]string, 0, len(keywords)+len(brandHashtags))
	for _, kw := range append(append([]string(nil), keywords...), brandHashtags...) {
		kw = strings.Join(strings.Fields(kw), "")
		kw = strings.TrimPrefix(kw, "#")
		if kw == "" {
			continue
		}
		tags = append(tags, "#"+kw)
	}
	return strings.Join(tags, " ")
}

// Transcript joins each scene's label, visual direction and audio line
func Transcript(scenes []models.VideoScriptScene) string {
	lines := make([]string, 0, len(scenes))
	for _, s := range scenes {
		lines = append(lines, fmt.Sprintf("[%s] (Visual: %s) -> Audio: %s", s.Scene, s.Visual, s.Audio))
	}
	return strings.Join(lines, "\n\n")
}

// SlideFilename is the download name for the slide at zero-based index
func SlideFilename(index int) string {
	return fmt.Sprintf("104-course-slide-%d.png", index+1)
}

// DecodeDataURI returns the payload and media type of a data: URI
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}

	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if mimeType == "" {
		mimeType = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
		return data, mimeType, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return []byte(decoded), mimeType, nil
}

// TrafficTips are posting suggestions for the selected strategy
func TrafficTips(pp models.PainPoint) []string {
	tips := make([]string, 0, 3)
	if len(pp.SEOKeywords) > 0 {
		tips = append(tips, fmt.Sprintf("Include the keyword %q in your first 3 seconds of video.", pp.SEOKeywords[0]))
	}
	tips = append(tips,
		"Use the generated hashtags in your post description.",
		"Post during commute hours (8am/6pm) for this demographic.",
	)
	return tips
}
