// Package forms extracts fillable controls from a job-application page and fills
// them from a field assignment.
package forms

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/types"
)

// Text-like input types. An input without a type attribute is also text.
var textInputTypes = map[string]bool{
	"text":   true,
	"email":  true,
	"tel":    true,
	"url":    true,
	"number": true,
	"search": true,
}

// ExtractScript collects field descriptors in the page. It follows the same rules as
// ExtractHTML: text inputs and textareas in document order, then selects, then file
// inputs. A candidate selector is used only if it re-resolves to the element itself;
// otherwise a structural nth-child path is produced.
const ExtractScript = `(() => {
	const textTypes = new Set(["text", "email", "tel", "url", "number", "search"]);
	const quote = (s) => '"' + String(s).replace(/\\/g, "\\\\").replace(/"/g, '\\"') + '"';
	const clean = (s) => (s || "").trim();

	const first = (sel) => {
		try { return document.querySelector(sel); } catch (e) { return null; }
	};

	const labelFor = (el) => {
		if (el.id) {
			const l = first("label[for=" + quote(el.id) + "]");
			const t = l ? clean(l.textContent) : "";
			if (t) return t;
		}
		const wrap = el.closest("label");
		const t = wrap ? clean(wrap.textContent) : "";
		if (t) return t;
		return el.getAttribute("placeholder") || el.getAttribute("name") || "";
	};

	const path = (el) => {
		const parts = [];
		for (let n = el; n && n.nodeType === 1 && n !== document.documentElement; n = n.parentElement) {
			let i = 1;
			for (let s = n.previousElementSibling; s; s = s.previousElementSibling) i++;
			parts.unshift(n.tagName.toLowerCase() + ":nth-child(" + i + ")");
		}
		return ["html"].concat(parts).join(" > ");
	};

	const selectorFor = (el, generic) => {
		const id = el.getAttribute("id") || "";
		const name = el.getAttribute("name") || "";
		const candidates = [];
		if (id) candidates.push("#" + id, "[id=" + quote(id) + "]");
		if (name) candidates.push("[name=" + quote(name) + "]");
		candidates.push(generic);
		for (const c of candidates) {
			if (first(c) === el) return c;
		}
		return path(el);
	};

	const base = (el, kind) => ({
		type: kind,
		label: labelFor(el),
		parentText: el.parentElement ? clean(el.parentElement.textContent) : "",
		id: el.getAttribute("id") || "",
		name: el.getAttribute("name") || "",
		required: el.hasAttribute("required"),
	});

	const skip = (el) => el.hasAttribute("hidden") || (el.getAttribute("type") || "").toLowerCase() === "hidden";

	const fields = [];

	document.querySelectorAll("input, textarea").forEach((el) => {
		if (skip(el)) return;
		const tag = el.tagName.toLowerCase();
		let inputType, generic;
		if (tag === "textarea") {
			inputType = "textarea";
			generic = "textarea";
		} else {
			const attr = (el.getAttribute("type") || "").toLowerCase();
			if (attr !== "" && !textTypes.has(attr)) return;
			inputType = attr || "text";
			generic = attr ? "input[type=" + quote(attr) + "]" : "input:not([type])";
		}
		const f = base(el, "text");
		f.inputType = inputType;
		f.placeholder = el.getAttribute("placeholder") || "";
		f.selector = selectorFor(el, generic);
		fields.push(f);
	});

	document.querySelectorAll("select").forEach((el) => {
		if (skip(el)) return;
		const f = base(el, "select");
		f.options = Array.from(el.options)
			.filter((o) => o.value && clean(o.text))
			.map((o) => ({ value: o.value, text: clean(o.text), selected: o.selected }));
		f.selector = selectorFor(el, "select");
		fields.push(f);
	});

	document.querySelectorAll('input[type="file" i]').forEach((el) => {
		if (skip(el)) return;
		const f = base(el, "file");
		f.inputType = "file";
		f.accept = el.getAttribute("accept") || "";
		f.selector = selectorFor(el, 'input[type="file"]');
		fields.push(f);
	});

	return fields;
})()`

// Extract evaluates ExtractScript in the live page. It does not modify the page.
func Extract(ctx context.Context, s browser.Session) ([]types.FieldDescriptor, error) {
	var fields []types.FieldDescriptor
	if err := s.Evaluate(ctx, ExtractScript, &fields); err != nil {
		return nil, fmt.Errorf("failed to extract form fields: %w", err)
	}
	if fields == nil {
		fields = []types.FieldDescriptor{}
	}
	return fields, nil
}

// ExtractHTML applies the extraction rules to a static HTML snapshot.
func ExtractHTML(html string) ([]types.FieldDescriptor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return ExtractDocument(doc), nil
}

// ExtractDocument applies the extraction rules to a parsed document.
func ExtractDocument(doc *goquery.Document) []types.FieldDescriptor {
	fields := []types.FieldDescriptor{}

	doc.Find("input, textarea").Each(func(_ int, el *goquery.Selection) {
		if skipElement(el) {
			return
		}
		var inputType, generic string
		if goquery.NodeName(el) == "textarea" {
			inputType, generic = "textarea", "textarea"
		} else {
			attr := strings.ToLower(el.AttrOr("type", ""))
			if attr != "" && !textInputTypes[attr] {
				return
			}
			inputType = attr
			generic = "input:not([type])"
			if attr == "" {
				inputType = "text"
			} else {
				generic = "input[type=" + cssString(attr) + "]"
			}
		}
		f := baseDescriptor(el, types.FieldText)
		f.InputType = inputType
		f.Placeholder = el.AttrOr("placeholder", "")
		f.Selector = selectorFor(doc, el, generic)
		fields = append(fields, f)
	})

	doc.Find("select").Each(func(_ int, el *goquery.Selection) {
		if skipElement(el) {
			return
		}
		f := baseDescriptor(el, types.FieldSelect)
		f.Options = []types.SelectOption{}
		selectedSet := false
		el.Find("option").Each(func(_ int, opt *goquery.Selection) {
			value := optionValue(opt)
			text := collapse(opt.Text())
			if value == "" || text == "" {
				return
			}
			_, selected := opt.Attr("selected")
			if selected {
				selectedSet = true
			}
			f.Options = append(f.Options, types.SelectOption{Value: value, Text: text, Selected: selected})
		})
		// A single-choice select without an explicit selection shows its first option.
		if !selectedSet && !el.Is("[multiple]") && len(f.Options) > 0 {
			if first := el.Find("option").First(); optionValue(first) == f.Options[0].Value {
				f.Options[0].Selected = true
			}
		}
		f.Selector = selectorFor(doc, el, "select")
		fields = append(fields, f)
	})

	doc.Find("input").Each(func(_ int, el *goquery.Selection) {
		if !strings.EqualFold(el.AttrOr("type", ""), "file") || skipElement(el) {
			return
		}
		f := baseDescriptor(el, types.FieldFile)
		f.InputType = "file"
		f.Accept = el.AttrOr("accept", "")
		f.Selector = selectorFor(doc, el, `input[type="file"]`)
		fields = append(fields, f)
	})

	return fields
}

func skipElement(el *goquery.Selection) bool {
	if _, hidden := el.Attr("hidden"); hidden {
		return true
	}
	return strings.EqualFold(el.AttrOr("type", ""), "hidden")
}

func baseDescriptor(el *goquery.Selection, kind types.FieldKind) types.FieldDescriptor {
	_, required := el.Attr("required")
	return types.FieldDescriptor{
		Kind:       kind,
		Label:      labelFor(el),
		ParentText: strings.TrimSpace(el.Parent().Text()),
		ID:         el.AttrOr("id", ""),
		Name:       el.AttrOr("name", ""),
		Required:   required,
	}
}

func labelFor(el *goquery.Selection) string {
	if id := el.AttrOr("id", ""); id != "" {
		doc := el.Closest("html")
		if t := strings.TrimSpace(doc.Find("label[for=" + cssString(id) + "]").First().Text()); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(el.Closest("label").Text()); t != "" {
		return t
	}
	if p := el.AttrOr("placeholder", ""); p != "" {
		return p
	}
	return el.AttrOr("name", "")
}

// selectorFor returns the first candidate whose first match is el itself.
func selectorFor(doc *goquery.Document, el *goquery.Selection, generic string) string {
	var candidates []string
	if id := el.AttrOr("id", ""); id != "" {
		candidates = append(candidates, "#"+id, "[id="+cssString(id)+"]")
	}
	if name := el.AttrOr("name", ""); name != "" {
		candidates = append(candidates, "[name="+cssString(name)+"]")
	}
	candidates = append(candidates, generic)

	node := el.Get(0)
	for _, c := range candidates {
		if m := doc.Find(c).First(); m.Length() > 0 && m.Get(0) == node {
			return c
		}
	}
	return structuralPath(el)
}

func structuralPath(el *goquery.Selection) string {
	var parts []string
	for n := el; n.Length() > 0 && goquery.NodeName(n) != "html" && goquery.NodeName(n) != "#document"; n = n.Parent() {
		parts = append([]string{fmt.Sprintf("%s:nth-child(%d)", goquery.NodeName(n), n.Index()+1)}, parts...)
	}
	return strings.Join(append([]string{"html"}, parts...), " > ")
}

// cssString quotes s as a CSS string literal.
func cssString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// optionValue mirrors HTMLOptionElement.value: the value attribute, else the text.
func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return collapse(opt.Text())
}

// collapse mirrors HTMLOptionElement.text whitespace handling.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
