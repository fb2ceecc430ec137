package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertHTMLToMarkdownStripsChrome(t *testing.T) {
	html := `<html><body>
		<nav>Home | About</nav>
		<div class="cookie-banner">We use cookies</div>
		<main>
			<h1>Care Assistant</h1>
			<p>Join our team in Leeds.</p>
		</main>
		<footer class="sidebar">Footer links</footer>
	</body></html>`

	out := ConvertHTMLToMarkdown(html)
	assert.Contains(t, out, "Care Assistant")
	assert.Contains(t, out, "Join our team in Leeds.")
	assert.NotContains(t, out, "cookies")
	assert.NotContains(t, out, "Home | About")
}

func TestRemoveDuplicatesLinkLines(t *testing.T) {
	in := strings.Join([]string{
		"![logo](https://acme.co.uk/logo.png)",
		"Some text",
		"![logo](https://acme.co.uk/logo.png)",
	}, "\n")
	out := RemoveDuplicates(in)
	assert.Equal(t, 1, strings.Count(out, "logo.png"))
	assert.Contains(t, out, "Some text")
}

func TestCleanMarkdownBoilerplateDropsImageOnlyLines(t *testing.T) {
	in := "![hero](https://acme.co.uk/hero.jpg)\nApply now\n\n\n\nDeadline: soon"
	out := CleanMarkdownBoilerplate(in)
	assert.NotContains(t, out, "hero.jpg")
	assert.Contains(t, out, "Apply now")
	assert.NotContains(t, out, "\n\n\n")
}

func TestSanitizeLineRemovesInvisibleCharacters(t *testing.T) {
	assert.Equal(t, "Senior Engineer", sanitizeLine("Senior\u200b Engineer\ufeff"))
}
