package script

import (
	"fmt"
	"strings"

	"github.com/mrijcreo/scripttts/internal/pptx"
)

// Script styles.
const (
	StyleProfessional = "professional"
	StyleCasual       = "casual"
	StyleEducational  = "educational"
)

// Script lengths.
const (
	LengthShort  = "beknopt"
	LengthNormal = "normaal"
	LengthLong   = "uitgebreid"
)

const (
	slideMarkupLimit        = 8000
	presentationMarkupLimit = 3000
	relationshipsLimit      = 2000
	truncatedSuffix         = " ...[truncated]"
)

const systemPrompt = "Je bent een expert presentatiescriptschrijver die natuurlijk, spreekbaar Nederlands schrijft."

type lengthSetting struct {
	timePerSlide string
	wordCount    string
	description  string
	emphasis     string
}

var lengthSettings = map[string]lengthSetting{
	LengthShort: {
		timePerSlide: "15-30 seconden",
		wordCount:    "40-80 woorden",
		description:  "zeer korte, bondige scripts",
		emphasis:     "BELANGRIJK: Houd het zeer kort en krachtig. Ga direct to the point. Maximaal 80 woorden per slide.",
	},
	LengthNormal: {
		timePerSlide: "30-45 seconden",
		wordCount:    "80-120 woorden",
		description:  "standaard scripts",
		emphasis:     "BELANGRIJK: Geef voldoende detail maar blijf gefocust. Ongeveer 80-120 woorden per slide.",
	},
	LengthLong: {
		timePerSlide: "45-60 seconden",
		wordCount:    "120-180 woorden",
		description:  "uitgebreide, gedetailleerde scripts",
		emphasis:     "BELANGRIJK: Geef uitgebreide uitleg, voorbeelden en context. Ongeveer 120-180 woorden per slide.",
	},
}

var stylePrompts = map[string]string{
	StyleProfessional: "Schrijf een professioneel, zakelijk presentatiescript. Gebruik formele taal, duidelijke structuur en overtuigende argumenten.",
	StyleCasual:       "Schrijf een informeel, toegankelijk presentatiescript. Gebruik een vriendelijke toon, spreektaal en maak het persoonlijk.",
	StyleEducational:  "Schrijf een educatief presentatiescript. Leg concepten duidelijk uit, gebruik voorbeelden en zorg voor goede leerdoelen.",
}

const (
	informalInstruction = "BELANGRIJK: Gebruik ALTIJD de informele aanspreekvorm 'jij/jouw/je' in plaats van 'u/uw'. Spreek het publiek direct en persoonlijk aan."
	formalInstruction   = "Gebruik de formele aanspreekvorm 'u/uw' waar gepast."
)

const answerFormat = `FORMAAT:
Geef het resultaat in deze structuur:

SLIDE 1 SCRIPT:
[%[1]s voor slide 1]

SLIDE 2 SCRIPT:
[%[1]s voor slide 2]

[etc. voor alle slides]

VOLLEDIG SCRIPT:
[Het complete %[2]s als één doorlopende tekst]
`

// generationPrompt builds the request for one script per slide.
func generationPrompt(slides []pptx.SlideContent, style, length string, informal bool) string {
	setting := lengthSettings[length]
	address := formalInstruction

	if informal {
		address = informalInstruction
	}

	var b strings.Builder

	b.WriteString("Je bent een expert presentatiescriptschrijver. Genereer een professioneel script voor een PowerPoint presentatie.\n\n")
	fmt.Fprintf(&b, "STIJL: %s\n\n", stylePrompts[style])
	fmt.Fprintf(&b, "SCRIPT LENGTE: %s\n", strings.ToUpper(length))
	fmt.Fprintf(&b, "- Tijd per slide: %s\n", setting.timePerSlide)
	fmt.Fprintf(&b, "- Woordenaantal per slide: %s\n", setting.wordCount)
	fmt.Fprintf(&b, "- Type: %s\n\n", setting.description)
	fmt.Fprintf(&b, "AANSPREEKVORM: %s\n\n", address)
	b.WriteString("SPECIFICATIES:\n")
	fmt.Fprintf(&b, "- Aantal slides: %d\n", len(slides))
	b.WriteString("- Taal: Nederlands\n- Maak het script natuurlijk en spreekbaar\n\n")
	b.WriteString("SLIDES INHOUD:\n")

	for _, slide := range slides {
		fmt.Fprintf(&b, "\nSlide %d: %s\nInhoud: %s\n", slide.SlideNumber, slide.Title, slide.Content)
	}

	b.WriteString("\nINSTRUCTIES:\n")
	fmt.Fprintf(&b, "1. Genereer voor elke slide een apart script van %s\n", setting.wordCount)
	b.WriteString("2. Zorg voor vloeiende overgangen tussen slides\n")
	b.WriteString("3. Begin met een sterke opening en eindig met een krachtige conclusie\n")
	b.WriteString("4. Maak het script natuurlijk en spreekbaar\n")
	b.WriteString("5. Voeg waar nodig pauzes en ademruimte toe\n")
	fmt.Fprintf(&b, "6. Gebruik de %s stijl consequent\n", style)
	fmt.Fprintf(&b, "7. Houd rekening met de %s lengte-instelling\n", length)
	fmt.Fprintf(&b, "8. %s\n\n", address)
	fmt.Fprintf(&b, "%s\n\n", setting.emphasis)
	fmt.Fprintf(&b, answerFormat, "Script", "script")

	return b.String()
}

// informalPrompt builds the request that rewrites scripts with the informal pronoun.
func informalPrompt(entries []pptx.ScriptEntry) string {
	var b strings.Builder

	b.WriteString("Je bent een expert tekstbewerker. Converteer de volgende presentatiescripts naar de informele aanspreekvorm (tutoyeren).\n\n")
	b.WriteString("INSTRUCTIES:\n")
	b.WriteString("1. Vervang ALLE vormen van \"u/uw/uzelf\" door \"jij/jouw/jezelf/je\"\n")
	b.WriteString("2. Pas werkwoordsvormen aan waar nodig (u bent → jij bent, u heeft → jij hebt, etc.)\n")
	b.WriteString("3. Behoud de exacte inhoud, structuur en toon van het script\n")
	b.WriteString("4. Maak het natuurlijk en vloeiend klinken\n")
	b.WriteString("5. Behoud alle interpunctie en opmaak\n")
	b.WriteString("6. Zorg dat het script nog steeds professioneel klinkt ondanks de informele aanspreekvorm\n\n")
	b.WriteString("SLIDES MET SCRIPTS:\n")

	for index, entry := range entries {
		number := entry.SlideNumber
		if number <= 0 {
			number = index + 1
		}

		text := entry.Script
		if strings.TrimSpace(text) == "" {
			text = "Geen script beschikbaar"
		}

		fmt.Fprintf(&b, "\nSLIDE %d SCRIPT:\n%s\n", number, text)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, answerFormat, "Geconverteerd script", "geconverteerde script")

	return b.String()
}

// slidePrompt asks for the title and text of one slide as a JSON object.
func slidePrompt(slideNumber int, markup []byte) string {
	return fmt.Sprintf(`Analyseer deze PowerPoint slide XML en extraheer de belangrijkste informatie:

SLIDE XML:
%s

INSTRUCTIES:
1. Zoek naar alle tekstuele content in de slide
2. Identificeer wat de titel zou kunnen zijn (meestal de eerste of grootste tekst)
3. Verzamel alle andere tekstuele content als slide inhoud
4. Negeer XML tags en technische elementen
5. Geef een duidelijke, leesbare samenvatting

FORMAAT (JSON):
{
  "slideNumber": %d,
  "title": "Duidelijke slide titel (max 100 karakters)",
  "content": "Alle tekstuele content van de slide, gestructureerd en leesbaar"
}

Geef ALLEEN de JSON terug, geen extra tekst.`, truncate(string(markup), slideMarkupLimit, truncatedSuffix), slideNumber)
}

// deckPrompt asks for a title and text per slide as a JSON array.
func deckPrompt(outline pptx.DeckOutline) string {
	return fmt.Sprintf(`Analyseer deze PowerPoint presentatie structuur en genereer slide informatie:

PRESENTATIE XML (eerste %d karakters):
%s

RELATIES XML (eerste %d karakters):
%s

AANTAL SLIDES: %d

INSTRUCTIES:
1. Genereer voor elke slide (1 tot %d) een logische titel en content
2. Gebruik de XML structuur om slide volgorde en relaties te begrijpen
3. Maak realistische slide content gebaseerd op wat je kunt afleiden
4. Als er geen specifieke content te vinden is, maak dan generieke maar nuttige placeholders

FORMAAT (JSON Array):
[
  {
    "slideNumber": 1,
    "title": "Slide titel",
    "content": "Slide content en beschrijving"
  }
]

Geef ALLEEN de JSON array terug, geen extra tekst.`,
		presentationMarkupLimit, truncate(string(outline.Presentation), presentationMarkupLimit, ""),
		relationshipsLimit, truncate(string(outline.Relationships), relationshipsLimit, ""),
		outline.SlideCount, outline.SlideCount)
}

// truncate cuts s to at most limit runes and appends suffix when it did.
func truncate(s string, limit int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit]) + suffix
}
