package pptx_test

import (
	"strings"
	"testing"

	"github.com/mrijcreo/scripttts/internal/pptx"
	"github.com/stretchr/testify/assert"
)

func TestExtractSlide(t *testing.T) {
	t.Parallel()

	longTitle := strings.Repeat("Lange titel ", 12)

	testCases := []struct {
		name            string
		markup          string
		expectedTitle   string
		expectedContent string
	}{
		{
			name:            "title placeholder",
			markup:          titledSlide("Introductie", "Eerste punt", "Tweede punt", "Derde punt"),
			expectedTitle:   "Introductie",
			expectedContent: "Eerste punt Tweede punt Derde punt",
		},
		{
			name: "free runs only",
			markup: slideXML(
				shapeXML(2, "", "Welkom"),
				shapeXML(3, "", "Agenda voor vandaag", "Resultaten van het kwartaal"),
				shapeXML(4, "", "Vragen"),
			),
			expectedTitle:   "Welkom",
			expectedContent: "Agenda voor vandaag Resultaten van het kwartaal Vragen",
		},
		{
			name:            "centered title placeholder",
			markup:          slideXML(shapeXML(2, "ctrTitle", "Jaarverslag"), shapeXML(3, "subTitle", "Financiele resultaten 2025")),
			expectedTitle:   "Jaarverslag",
			expectedContent: "Financiele resultaten 2025",
		},
		{
			name:            "no text",
			markup:          slideXML(),
			expectedTitle:   "Slide 4",
			expectedContent: "",
		},
		{
			name:            "long title is truncated",
			markup:          titledSlide(longTitle, "Een inhoud van voldoende lengte"),
			expectedTitle:   strings.TrimSpace(longTitle)[:100] + "...",
			expectedContent: "Een inhoud van voldoende lengte",
		},
		{
			name:            "entities are decoded",
			markup:          titledSlide("Q&amp;A", "Wat is &lt;nieuw&gt; dit jaar?"),
			expectedTitle:   "Q&A",
			expectedContent: "Wat is <nieuw> dit jaar?",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			content := pptx.ExtractSlide([]byte(tc.markup), 4)

			assert.Equal(t, 4, content.SlideNumber)
			assert.Equal(t, tc.expectedTitle, content.Title)
			assert.Equal(t, tc.expectedContent, content.Content)
		})
	}
}

func TestExtractSlide_ShortContentFallsBackToParagraphs(t *testing.T) {
	t.Parallel()

	// The body repeats the title, leaving too little text once the title is removed.
	markup := titledSlide("Doelen", "Doelen", "Groei")

	content := pptx.ExtractSlide([]byte(markup), 1)

	assert.Equal(t, "Doelen", content.Title)
	assert.Equal(t, "Doelen\nDoelen\nGroei", content.Content)
}

func TestExtractSlide_RunsOutsideParagraphsFallBackToShapes(t *testing.T) {
	t.Parallel()

	markup := slideXML(
		`<p:sp><p:nvSpPr><p:cNvPr id="2" name="Titel"/><p:cNvSpPr/><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr><a:t>Plan</a:t></p:sp>`,
		`<p:sp><p:nvSpPr><p:cNvPr id="3" name="Tekst"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><a:t>Q1</a:t><a:t>Q2</a:t></p:sp>`,
	)

	content := pptx.ExtractSlide([]byte(markup), 1)

	assert.Equal(t, "Plan", content.Title)
	assert.Equal(t, "Plan\nQ1 Q2", content.Content)
}

func TestExtractSlide_LooseRunsFallBackToFlatJoin(t *testing.T) {
	t.Parallel()

	markup := slideXML(`<p:graphicFrame><a:t>Ja</a:t><a:t>Nee</a:t></p:graphicFrame>`)

	content := pptx.ExtractSlide([]byte(markup), 3)

	assert.Equal(t, "Ja", content.Title)
	assert.Equal(t, "Ja Nee", content.Content)
}

func TestExtractSlide_MalformedMarkupKeepsCollectedText(t *testing.T) {
	t.Parallel()

	markup := slideOpen + shapeXML(2, "title", "Overzicht") + `<p:sp><a:t>Kapot`

	content := pptx.ExtractSlide([]byte(markup), 2)

	assert.Equal(t, "Overzicht", content.Title)
	assert.Equal(t, "Overzicht", content.Content)
}
