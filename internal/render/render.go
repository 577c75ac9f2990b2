// Package render turns listing descriptions written in markdown into HTML.
package render

import (
	"strings"
	"sync"

	"github.com/debemdeboas/homestead/internal/cache"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"
)

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

const descriptionExtensions = parser.Tables | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
	parser.BackslashLineBreak | parser.DefinitionLists | parser.NoIntraEmphasis | parser.NonBlockingSpace

func newParser() *parser.Parser {
	return parser.NewWithExtensions(descriptionExtensions)
}

// Description renders a listing description. Descriptions are user input, so raw HTML is dropped
// and links are marked nofollow.
func Description(md []byte) []byte {
	md = markdown.NormalizeNewlines(md)

	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.SkipHTML | md_html.Safelink |
			md_html.NofollowLinks | md_html.NoreferrerLinks | md_html.NoopenerLinks | md_html.HrefTargetBlank,
	}

	doc := markdown.Parse(md, newParser())
	return markdown.Render(doc, md_html.NewRenderer(opts))
}

// Mutex to protect the check-render-set operation in DescriptionCached
var renderCacheMutex sync.Mutex

// DescriptionCached renders md once per content hash.
func DescriptionCached(md []byte, contentHash string) []byte {
	if contentHash == "" {
		renderLogger.Warn().Msg("Content hash is empty, skipping cache check")
		return Description(md)
	}

	if cached, found := cache.GetRenderedDescription(contentHash); found {
		renderLogger.Debug().Str("contentHash", contentHash).Msg("Cache hit for rendered description")
		return cached
	}

	renderLogger.Debug().Str("contentHash", contentHash).Msg("Cache miss for rendered description")
	renderCacheMutex.Lock()
	defer renderCacheMutex.Unlock()

	if cached, found := cache.GetRenderedDescription(contentHash); found {
		return cached
	}

	html := Description(md)
	cache.SetRenderedDescription(contentHash, html)
	return html
}

// Excerpt returns the plain text of md cut to at most n runes on a word boundary.
func Excerpt(md []byte, n int) string {
	doc := markdown.Parse(markdown.NormalizeNewlines(md), newParser())

	var b strings.Builder
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch node := node.(type) {
		case *ast.Text:
			b.Write(node.Literal)
		case *ast.Code:
			b.Write(node.Literal)
		case *ast.Softbreak, *ast.Hardbreak, *ast.Paragraph, *ast.Heading, *ast.ListItem:
			b.WriteByte(' ')
		}
		return ast.GoToNext
	})

	text := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}

	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
