package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/book-expert/logger"

	"github.com/mrijcreo/scripttts/internal/pptx"
)

const (
	answerContentLimit = 1000

	analyzedTitleFmt     = "Slide %d (AI Analyzed)"
	plainTitleFmt        = "Slide %d"
	noContentText        = "Geen tekstuele content gevonden"
	deckPlaceholderFmt   = "Content voor slide %d - geanalyseerd door AI maar geen specifieke tekst gevonden."
	logFmtSlideAnalyzed  = "Model analysis succeeded for slide %d"
	logFmtSlideUnparsed  = "Model answer for slide %d is not JSON, using it as text"
	logFmtDeckAnalyzed   = "Model analysis produced %d slides"
	logFmtDeckUnparsed   = "Model deck analysis is not a JSON array, using placeholders for %d slides"
	logFmtAnalyzingSlide = "Asking model to analyze slide %d"
	logFmtAnalyzingDeck  = "Asking model to analyze the whole deck (%d slides)"
)

// Analyzer implements pptx.SlideAnalyzer on top of a Completer.
type Analyzer struct {
	completer Completer
	log       *logger.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(completer Completer, log *logger.Logger) *Analyzer {
	return &Analyzer{completer: completer, log: log}
}

// AnalyzeSlide asks the model for the title and text of one slide. An answer
// that is not JSON is kept as the slide text.
func (a *Analyzer) AnalyzeSlide(ctx context.Context, slideNumber int, markup []byte) (pptx.SlideContent, error) {
	a.log.Info(logFmtAnalyzingSlide, slideNumber)

	answer, err := a.completer.Complete(ctx, "", slidePrompt(slideNumber, markup))
	if err != nil {
		return pptx.SlideContent{}, fmt.Errorf("analyze slide %d: %w", slideNumber, err)
	}

	var parsed pptx.SlideContent

	if decodeSpan(answer, '{', '}', &parsed) {
		a.log.Info(logFmtSlideAnalyzed, slideNumber)

		parsed.SlideNumber = slideNumber

		if parsed.Title == "" {
			parsed.Title = fmt.Sprintf(plainTitleFmt, slideNumber)
		}

		if parsed.Content == "" {
			parsed.Content = noContentText
		}

		return parsed, nil
	}

	a.log.Warn(logFmtSlideUnparsed, slideNumber)

	return pptx.SlideContent{
		SlideNumber: slideNumber,
		Title:       fmt.Sprintf(analyzedTitleFmt, slideNumber),
		Content:     truncate(answer, answerContentLimit, ""),
	}, nil
}

// AnalyzeDeck asks the model for every slide at once from the presentation
// outline. An unusable answer yields one placeholder per slide.
func (a *Analyzer) AnalyzeDeck(ctx context.Context, outline pptx.DeckOutline) ([]pptx.SlideContent, error) {
	a.log.Info(logFmtAnalyzingDeck, outline.SlideCount)

	answer, err := a.completer.Complete(ctx, "", deckPrompt(outline))
	if err != nil {
		return nil, fmt.Errorf("analyze deck: %w", err)
	}

	var parsed []pptx.SlideContent

	if decodeSpan(answer, '[', ']', &parsed) && len(parsed) > 0 {
		for index := range parsed {
			if parsed[index].SlideNumber <= 0 {
				parsed[index].SlideNumber = index + 1
			}
		}

		a.log.Info(logFmtDeckAnalyzed, len(parsed))

		return parsed, nil
	}

	a.log.Warn(logFmtDeckUnparsed, outline.SlideCount)

	placeholders := make([]pptx.SlideContent, 0, outline.SlideCount)
	for number := 1; number <= outline.SlideCount; number++ {
		placeholders = append(placeholders, pptx.SlideContent{
			SlideNumber: number,
			Title:       fmt.Sprintf(plainTitleFmt, number),
			Content:     fmt.Sprintf(deckPlaceholderFmt, number),
		})
	}

	return placeholders, nil
}

// decodeSpan decodes the text between the first open and the last closing
// delimiter, which skips prose or code fences around the JSON.
func decodeSpan(answer string, open, closing byte, target any) bool {
	start := strings.IndexByte(answer, open)
	end := strings.LastIndexByte(answer, closing)

	if start < 0 || end <= start {
		return false
	}

	return json.Unmarshal([]byte(answer[start:end+1]), target) == nil
}
