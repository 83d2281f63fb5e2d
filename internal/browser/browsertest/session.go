// Package browsertest provides an in-memory browser.Session over a static HTML
// document, for exercising the form pipeline without Chrome.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/apply-agent/internal/browser"
)

// Session implements browser.Session against a goquery document. Mutations
// (fill, select, upload) are applied to the document so later reads observe them.
type Session struct {
	mu  sync.Mutex
	doc *goquery.Document

	// NavigateErr is returned by Navigate when set.
	NavigateErr error
	// OnEvaluate answers Evaluate calls. The result is JSON round-tripped into out.
	OnEvaluate func(expression string, doc *goquery.Document) (any, error)
	// FailSelectors makes every operation on these selectors fail with the given error.
	FailSelectors map[string]error

	URL     string
	Calls   []string
	Files   map[string][]string
	Clicked []string
	Closed  int
}

var _ browser.Session = (*Session)(nil)

// New parses html into a session.
func New(html string) (*Session, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Session{doc: doc, Files: make(map[string][]string)}, nil
}

// MustNew is New for test fixtures.
func MustNew(html string) *Session {
	s, err := New(html)
	if err != nil {
		panic(err)
	}
	return s
}

// Launcher returns a launcher that always hands out s.
func (s *Session) Launcher() browser.Launcher {
	return browser.LauncherFunc(func(context.Context) (browser.Session, error) {
		return s, nil
	})
}

func (s *Session) record(op, selector string) {
	s.Calls = append(s.Calls, op+" "+selector)
}

func (s *Session) find(op, selector string) (*goquery.Selection, error) {
	if err, ok := s.FailSelectors[selector]; ok {
		return nil, &browser.Error{Op: op, Selector: selector, Cause: err}
	}
	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil, &browser.Error{Op: op, Selector: selector, Cause: browser.ErrNotFound}
	}
	return sel, nil
}

// Navigate implements browser.Session.
func (s *Session) Navigate(_ context.Context, url string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.URL = url
	s.record("navigate", url)
	return s.NavigateErr
}

// Evaluate implements browser.Session.
func (s *Session) Evaluate(_ context.Context, expression string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("evaluate", "")
	if s.OnEvaluate == nil {
		return &browser.Error{Op: "evaluate", Cause: fmt.Errorf("no evaluator configured")}
	}
	result, err := s.OnEvaluate(expression, s.doc)
	if err != nil {
		return &browser.Error{Op: "evaluate", Cause: err}
	}
	if out == nil {
		return nil
	}
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// WaitSelector implements browser.Session. Missing elements fail immediately.
func (s *Session) WaitSelector(_ context.Context, selector string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("wait", selector)
	_, err := s.find("wait", selector)
	return err
}

// Exists implements browser.Session.
func (s *Session) Exists(_ context.Context, selector string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("exists", selector)
	if err, ok := s.FailSelectors[selector]; ok {
		return false, err
	}
	return s.doc.Find(selector).Length() > 0, nil
}

// TagName implements browser.Session.
func (s *Session) TagName(_ context.Context, selector string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("tag", selector)
	sel, err := s.find("tag", selector)
	if err != nil {
		return "", err
	}
	return goquery.NodeName(sel), nil
}

// Fill implements browser.Session.
func (s *Session) Fill(_ context.Context, selector, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("fill", selector)
	sel, err := s.find("fill", selector)
	if err != nil {
		return err
	}
	switch goquery.NodeName(sel) {
	case "textarea":
		sel.SetText(value)
	case "input":
		if t, _ := sel.Attr("type"); strings.EqualFold(t, "file") {
			return &browser.Error{Op: "fill", Selector: selector, Cause: fmt.Errorf("cannot fill a file input")}
		}
		sel.SetAttr("value", value)
	default:
		return &browser.Error{Op: "fill", Selector: selector, Cause: fmt.Errorf("element <%s> is not fillable", goquery.NodeName(sel))}
	}
	return nil
}

func (s *Session) selectOption(op, selector, wanted string, byLabel bool) error {
	sel, err := s.find(op, selector)
	if err != nil {
		return err
	}
	if goquery.NodeName(sel) != "select" {
		return &browser.Error{Op: op, Selector: selector, Cause: browser.ErrNotSelect}
	}

	options := sel.Find("option")
	var match *goquery.Selection
	options.EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		if byLabel {
			if optionText(opt) == wanted {
				match = opt
			}
		} else if optionValue(opt) == wanted {
			match = opt
		}
		return match == nil
	})
	if match == nil {
		return &browser.Error{Op: op, Selector: selector, Cause: fmt.Errorf("%q: %w", wanted, browser.ErrOptionNotFound)}
	}

	options.RemoveAttr("selected")
	match.SetAttr("selected", "selected")
	return nil
}

// SelectByValue implements browser.Session.
func (s *Session) SelectByValue(_ context.Context, selector, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("select-value", selector)
	return s.selectOption("select", selector, value, false)
}

// SelectByLabel implements browser.Session.
func (s *Session) SelectByLabel(_ context.Context, selector, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("select-label", selector)
	return s.selectOption("select", selector, label, true)
}

// SetFiles implements browser.Session.
func (s *Session) SetFiles(_ context.Context, selector string, paths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("upload", selector)
	sel, err := s.find("upload", selector)
	if err != nil {
		return err
	}
	if t, _ := sel.Attr("type"); goquery.NodeName(sel) != "input" || !strings.EqualFold(t, "file") {
		return &browser.Error{Op: "upload", Selector: selector, Cause: fmt.Errorf("element is not a file input")}
	}
	s.Files[selector] = append([]string(nil), paths...)
	return nil
}

// Click implements browser.Session.
func (s *Session) Click(_ context.Context, selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("click", selector)
	if _, err := s.find("click", selector); err != nil {
		return err
	}
	s.Clicked = append(s.Clicked, selector)
	return nil
}

// HTML implements browser.Session.
func (s *Session) HTML(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return goquery.OuterHtml(s.doc.Selection)
}

// Close implements browser.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed++
	return nil
}

// Value returns the current value of a control: the value attribute of an input,
// the text of a textarea, or the selected option value of a select.
func (s *Session) Value(selector string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.doc.Find(selector).First()
	switch goquery.NodeName(sel) {
	case "textarea":
		return sel.Text()
	case "select":
		selected := sel.Find("option[selected]").First()
		if selected.Length() == 0 {
			selected = sel.Find("option").First()
		}
		return optionValue(selected)
	default:
		v, _ := sel.Attr("value")
		return v
	}
}

// Document exposes the underlying document.
func (s *Session) Document() *goquery.Document {
	return s.doc
}

// optionValue mirrors HTMLOptionElement.value: the value attribute, else the text.
func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return optionText(opt)
}

// optionText collapses whitespace the way HTMLOptionElement.text does.
func optionText(opt *goquery.Selection) string {
	return strings.Join(strings.Fields(opt.Text()), " ")
}
