package forms

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-agent/internal/browser/browsertest"
	"github.com/jonathan/apply-agent/internal/types"
)

const applicationFixture = `<!DOCTYPE html>
<html><body>
<form action="/apply" method="post">
  <label for="first">First name</label><input id="first" type="text" required data-k="1">
  <label>Email <input name="email" type="email" data-k="2"></label>
  <input type="tel" placeholder="Phone" data-k="3">
  <input data-k="4">
  <input type="text" data-k="5">
  <textarea name="cover" data-k="6"></textarea>
  <input type="hidden" name="csrf" value="token">
  <input type="text" name="honeypot" hidden>
  <input type="checkbox" name="agree">
  <label for="role">Role</label>
  <select id="role" data-k="7">
    <option value="">Choose one</option>
    <option value="a">  Alpha  </option>
    <option value="b" selected>Beta</option>
  </select>
  <input type="file" id="cv" accept=".pdf,.docx" data-k="8">
  <button type="submit">Apply</button>
</form>
</body></html>`

func TestExtractHTML_FieldsAndOrder(t *testing.T) {
	fields, err := ExtractHTML(applicationFixture)
	require.NoError(t, err)
	require.Len(t, fields, 8)

	kinds := make([]types.FieldKind, 0, len(fields))
	for _, f := range fields {
		kinds = append(kinds, f.Kind)
	}
	assert.Equal(t, []types.FieldKind{
		types.FieldText, types.FieldText, types.FieldText, types.FieldText,
		types.FieldText, types.FieldText, types.FieldSelect, types.FieldFile,
	}, kinds)

	assert.Equal(t, "#first", fields[0].Selector)
	assert.Equal(t, `[name="email"]`, fields[1].Selector)
	assert.Equal(t, `input[type="tel"]`, fields[2].Selector)
	assert.Equal(t, "input:not([type])", fields[3].Selector)
	assert.Equal(t, `[name="cover"]`, fields[5].Selector)
	assert.Equal(t, "#role", fields[6].Selector)
	assert.Equal(t, "#cv", fields[7].Selector)
}

// Every selector must re-resolve to the element it was derived from.
func TestExtractHTML_SelectorsReResolve(t *testing.T) {
	fields, err := ExtractHTML(applicationFixture)
	require.NoError(t, err)

	session := browsertest.MustNew(applicationFixture)
	doc := session.Document()

	seen := make(map[string]bool)
	for _, f := range fields {
		match := doc.Find(f.Selector).First()
		require.Equal(t, 1, match.Length(), "selector %q", f.Selector)
		key, ok := match.Attr("data-k")
		require.True(t, ok, "selector %q resolved to a non-fixture element", f.Selector)
		assert.False(t, seen[key], "selector %q resolved to an element twice", f.Selector)
		seen[key] = true
	}
	assert.Len(t, seen, 8)
}

func TestExtractHTML_PositionalFallback(t *testing.T) {
	fields, err := ExtractHTML(applicationFixture)
	require.NoError(t, err)

	// input[type="text"] already resolves to #first.
	assert.Contains(t, fields[4].Selector, ":nth-child(")
	assert.Equal(t, "text", fields[4].InputType)
}

func TestExtractHTML_Labels(t *testing.T) {
	fields, err := ExtractHTML(applicationFixture)
	require.NoError(t, err)

	assert.Equal(t, "First name", fields[0].Label)
	assert.Equal(t, "Email", fields[1].Label, "enclosing label")
	assert.Equal(t, "Email", fields[1].ParentText)
	assert.Equal(t, "Phone", fields[2].Label, "placeholder fallback")
	assert.Equal(t, "", fields[3].Label)
	assert.Equal(t, "cover", fields[5].Label, "name fallback")
	assert.Equal(t, "Role", fields[6].Label)
}

func TestExtractHTML_Attributes(t *testing.T) {
	fields, err := ExtractHTML(applicationFixture)
	require.NoError(t, err)

	assert.True(t, fields[0].Required)
	assert.False(t, fields[1].Required)
	assert.Equal(t, "first", fields[0].ID)
	assert.Equal(t, "email", fields[1].Name)
	assert.Equal(t, "email", fields[1].InputType)
	assert.Equal(t, "text", fields[3].InputType, "untyped input")
	assert.Equal(t, "textarea", fields[5].InputType)
	assert.Equal(t, "Phone", fields[2].Placeholder)

	assert.Equal(t, ".pdf,.docx", fields[7].Accept)
	assert.Equal(t, "file", fields[7].InputType)
}

func TestExtractHTML_SelectOptions(t *testing.T) {
	fields, err := ExtractHTML(applicationFixture)
	require.NoError(t, err)

	role := types.FindField(fields, "#role")
	require.NotNil(t, role)
	assert.Equal(t, []types.SelectOption{
		{Value: "a", Text: "Alpha", Selected: false},
		{Value: "b", Text: "Beta", Selected: true},
	}, role.Options)
}

func TestExtractHTML_DefaultSelection(t *testing.T) {
	fields, err := ExtractHTML(`<select name="size"><option>Small</option><option>Large</option></select>`)
	require.NoError(t, err)
	require.Len(t, fields, 1)

	assert.Equal(t, `[name="size"]`, fields[0].Selector)
	assert.Equal(t, []types.SelectOption{
		{Value: "Small", Text: "Small", Selected: true},
		{Value: "Large", Text: "Large"},
	}, fields[0].Options)
}

func TestExtractHTML_DuplicateNames(t *testing.T) {
	html := `<form><input name="q" data-k="1"><input name="q" data-k="2"></form>`
	fields, err := ExtractHTML(html)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, `[name="q"]`, fields[0].Selector)
	assert.NotEqual(t, fields[0].Selector, fields[1].Selector)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, "2", doc.Find(fields[1].Selector).First().AttrOr("data-k", ""))
}

func TestExtractHTML_QuotedName(t *testing.T) {
	fields, err := ExtractHTML(`<input name='a"b'>`)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, `[name="a\"b"]`, fields[0].Selector)
}

func TestExtractHTML_NoFields(t *testing.T) {
	fields, err := ExtractHTML(`<p>Applications are closed.</p><input type="hidden" name="x">`)
	require.NoError(t, err)
	assert.NotNil(t, fields)
	assert.Empty(t, fields)
}

func TestExtract_UsesSession(t *testing.T) {
	session := browsertest.MustNew(applicationFixture)
	session.OnEvaluate = func(expression string, doc *goquery.Document) (any, error) {
		assert.Equal(t, ExtractScript, expression)
		return ExtractDocument(doc), nil
	}

	fields, err := Extract(context.Background(), session)
	require.NoError(t, err)
	assert.Len(t, fields, 8)

	html, err := session.HTML(context.Background())
	require.NoError(t, err)
	assert.Contains(t, html, `value="token"`, "extraction does not modify the page")
}

func TestExtract_EvaluateError(t *testing.T) {
	session := browsertest.MustNew(applicationFixture)
	session.OnEvaluate = func(string, *goquery.Document) (any, error) {
		return nil, errors.New("execution context was destroyed")
	}

	fields, err := Extract(context.Background(), session)
	assert.Error(t, err)
	assert.Nil(t, fields)
}
