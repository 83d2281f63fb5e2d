package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

const existsScript = `(sel) => document.querySelector(sel) !== null`

const tagNameScript = `(sel) => {
	const el = document.querySelector(sel);
	return el ? el.tagName.toLowerCase() : "";
}`

// fillScript uses the native value setter so framework-controlled inputs see the change.
const fillScript = `(sel, value) => {
	const el = document.querySelector(sel);
	if (!el) return "missing";
	const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
	const desc = Object.getOwnPropertyDescriptor(proto, "value");
	el.focus();
	if (desc && desc.set && (el instanceof HTMLInputElement || el instanceof HTMLTextAreaElement)) {
		desc.set.call(el, value);
	} else {
		el.value = value;
	}
	el.dispatchEvent(new Event("input", { bubbles: true }));
	el.dispatchEvent(new Event("change", { bubbles: true }));
	el.blur();
	return "ok";
}`

const selectScript = `(sel, wanted, byLabel) => {
	const el = document.querySelector(sel);
	if (!el) return "missing";
	if (el.tagName.toLowerCase() !== "select") return "not-select";
	const opt = Array.from(el.options).find(o => byLabel ? o.text.trim() === wanted : o.value === wanted);
	if (!opt) return "no-option";
	el.value = opt.value;
	opt.selected = true;
	el.dispatchEvent(new Event("input", { bubbles: true }));
	el.dispatchEvent(new Event("change", { bubbles: true }));
	return "ok";
}`

// Call renders an immediately invoked function expression with JSON-encoded arguments.
func Call(fn string, args ...any) (string, error) {
	encoded := make([]string, 0, len(args))
	for _, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("failed to encode script argument: %w", err)
		}
		encoded = append(encoded, string(b))
	}
	return fmt.Sprintf("(%s)(%s)", fn, strings.Join(encoded, ", ")), nil
}

// scriptStatus maps a status string returned by fillScript/selectScript to an error.
func scriptStatus(status string) error {
	switch status {
	case "ok":
		return nil
	case "missing":
		return ErrNotFound
	case "not-select":
		return ErrNotSelect
	case "no-option":
		return ErrOptionNotFound
	default:
		return fmt.Errorf("unexpected script status %q", status)
	}
}
