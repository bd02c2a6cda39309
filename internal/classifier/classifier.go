package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"LootLedger/internal/model"
)

// modelNumber matches weapon designators such as AK-47 or M4A1.
var modelNumber = regexp.MustCompile(`^[A-Z0-9\-]+$`)

const (
	minNameLen        = 2
	maxModelNumberLen = 10
)

// Classifier decides whether OCR text looks like an item name.
type Classifier struct {
	rules []Rule
}

// New creates a Classifier over the given rules. With no rules it uses DefaultRules.
func New(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// IsItemName reports whether text is a candidate item name: it either contains a
// vocabulary keyword or is a short upper-case model number.
func (c *Classifier) IsItemName(text string) bool {
	n := utf8.RuneCountInString(text)
	if n < minNameLen {
		return false
	}
	if c.match(text) != nil {
		return true
	}
	return n <= maxModelNumberLen && modelNumber.MatchString(text)
}

// DetectCategory returns the category of the first rule whose keywords appear in name.
func (c *Classifier) DetectCategory(name string) model.Category {
	if r := c.match(name); r != nil {
		return r.Category
	}
	return model.CategoryUnknown
}

func (c *Classifier) match(text string) *Rule {
	for i := range c.rules {
		for _, kw := range c.rules[i].Keywords {
			if strings.Contains(text, kw) {
				return &c.rules[i]
			}
		}
	}
	return nil
}

var std = New()

// IsItemName classifies text with DefaultRules.
func IsItemName(text string) bool { return std.IsItemName(text) }

// DetectCategory detects a category with DefaultRules.
func DetectCategory(name string) model.Category { return std.DetectCategory(name) }
