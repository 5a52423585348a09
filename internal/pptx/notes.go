package pptx

import "fmt"

// DefaultNotesLanguage is the language tag written on the notes text run.
const DefaultNotesLanguage = "nl-NL"

// NotesOptions controls the cosmetic parts of a generated notes part.
type NotesOptions struct {
	// Language is the language tag of the notes text.
	Language string
	// AudioBanner is prepended to the notes text of slides that carry narration audio.
	AudioBanner string
}

// notesTemplate holds a slide image placeholder and a body placeholder with a
// single run. It is complete on its own and replaces any existing notes part.
const notesTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:notes xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld>
    <p:spTree>
      <p:nvGrpSpPr>
        <p:cNvPr id="1" name=""/>
        <p:cNvGrpSpPr/>
        <p:nvPr/>
      </p:nvGrpSpPr>
      <p:grpSpPr>
        <a:xfrm>
          <a:off x="0" y="0"/>
          <a:ext cx="0" cy="0"/>
          <a:chOff x="0" y="0"/>
          <a:chExt cx="0" cy="0"/>
        </a:xfrm>
      </p:grpSpPr>
      <p:sp>
        <p:nvSpPr>
          <p:cNvPr id="2" name="Slide Image Placeholder 1"/>
          <p:cNvSpPr>
            <a:spLocks noGrp="1" noRot="1" noChangeAspect="1"/>
          </p:cNvSpPr>
          <p:nvPr>
            <p:ph type="sldImg"/>
          </p:nvPr>
        </p:nvSpPr>
        <p:spPr/>
      </p:sp>
      <p:sp>
        <p:nvSpPr>
          <p:cNvPr id="3" name="Notes Placeholder 2"/>
          <p:cNvSpPr>
            <a:spLocks noGrp="1"/>
          </p:cNvSpPr>
          <p:nvPr>
            <p:ph type="body" idx="1"/>
          </p:nvPr>
        </p:nvSpPr>
        <p:spPr/>
        <p:txBody>
          <a:bodyPr/>
          <a:lstStyle/>
          <a:p>
            <a:r>
              <a:rPr lang="%s" dirty="0"/>
              <a:t>%s</a:t>
            </a:r>
          </a:p>
        </p:txBody>
      </p:sp>
    </p:spTree>
  </p:cSld>
  <p:clrMapOvr>
    <a:masterClrMapping/>
  </p:clrMapOvr>
</p:notes>`

// BuildNotesPart renders a notes part with script as its text. The part does
// not depend on the slide it belongs to; the link is made by the relationship parts.
func BuildNotesPart(script string, hasAudio bool, opts NotesOptions) []byte {
	language := opts.Language
	if language == "" {
		language = DefaultNotesLanguage
	}

	text := script
	if hasAudio && opts.AudioBanner != "" {
		text = opts.AudioBanner + " " + script
	}

	return fmt.Appendf(nil, notesTemplate, EscapeMarkup(language), EscapeMarkup(text))
}
