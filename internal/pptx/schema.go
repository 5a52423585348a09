package pptx

// Well-known part paths.
const (
	contentTypesPath     = "[Content_Types].xml"
	presentationPath     = "ppt/presentation.xml"
	presentationRelsPath = "ppt/_rels/presentation.xml.rels"
	slidesDir            = "ppt/slides/"
	slideRelsDir         = "ppt/slides/_rels/"
	notesDir             = "ppt/notesSlides/"
	notesRelsDir         = "ppt/notesSlides/_rels/"
	mediaDir             = "ppt/media/"
	layoutsDir           = "ppt/slideLayouts/"
	notesMastersDir      = "ppt/notesMasters/"
	relsSuffix           = ".rels"
	xmlSuffix            = ".xml"
	slidePrefix          = "slide"
	relIDPrefix          = "rId"
)

// Namespaces.
const (
	nsContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsPackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPowerPoint14  = "http://schemas.microsoft.com/office/powerpoint/2010/main"
)

// Relationship types.
const (
	relTypeNotesSlide  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"
	relTypeSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTypeNotesMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesMaster"
	relTypeAudio       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/audio"
	relTypeImage       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relTypeMedia       = "http://schemas.microsoft.com/office/2007/relationships/media"
)

// Content types.
const (
	contentTypeNotesSlide = "application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"
	contentTypeRels       = "application/vnd.openxmlformats-package.relationships+xml"
	contentTypePNG        = "image/png"
	extensionRels         = "rels"
	extensionPNG          = "png"
)

// Default slide size (4:3, in EMU) when the presentation part does not declare one.
const (
	defaultSlideWidth  = 9144000
	defaultSlideHeight = 6858000
)

const xmlDeclaration = `version="1.0" encoding="UTF-8" standalone="yes"`
