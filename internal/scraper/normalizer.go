package scraper

import (
	"fmt"
	"regexp"
)

// maxPasses bounds the passes that do not shrink the content. Shrinking
// passes always terminate and are not counted.
const maxPasses = 8

// Rule is one removal or rewrite applied to fetched markup.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// Literal builds a rule that removes every occurrence of s.
func Literal(name, s string) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(regexp.QuoteMeta(s))}
}

// Pattern builds a rule from a regular expression.
func Pattern(name, expr, replacement string) (Rule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", name, err)
	}
	return Rule{Name: name, Pattern: re, Replacement: replacement}, nil
}

// DefaultRules strips the UI noise of the monitored review page: spacing
// between tags, "show more" affordances, ellipsis markers, image fallbacks
// and cache-busted asset URLs that change between otherwise identical
// responses.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "span-spacing", Pattern: regexp.MustCompile(`>\s+<span `), Replacement: "><span "},
		Literal("show-more-label", "Xem thêm"),
		Literal("ellipsis", "..."),
		Literal("view-more-btn", "_view-more-btn"),
		Literal("view-more-text", "_view-more-text"),
		Literal("view-more-content", "_view-more-content"),
		Literal("image-fallback", "this.onerror = null; this.src=window.WEB.noImage"),
		{Name: "company-logo", Pattern: regexp.MustCompile(`(?:https://reviewscongty\.me)?/storage/app/uploads/public/companies/[a-z0-9-]+\.png(?:\?t=\d+)?`)},
		Literal("default-avatar", "https://reviewscongty.me/themes/ocean/assets/images/default-avatar.png"),
		Literal("site-logo", "https://reviewscongty.me/themes/ocean/assets/images/logo-web.png"),
	}
}

// RuleNormalizer applies an ordered rule table.
type RuleNormalizer struct {
	rules []Rule
}

func NewRuleNormalizer(rules ...Rule) *RuleNormalizer {
	return &RuleNormalizer{rules: rules}
}

// Normalize applies the rules in order and repeats the table until the
// output stops changing, so normalizing normalized content is a no-op.
func (n *RuleNormalizer) Normalize(content string) string {
	if content == "" {
		return ""
	}
	for flat := 0; flat < maxPasses; {
		next := n.apply(content)
		if next == content {
			return next
		}
		if len(next) >= len(content) {
			flat++
		}
		content = next
	}
	return content
}

func (n *RuleNormalizer) apply(content string) string {
	for _, r := range n.rules {
		if r.Pattern == nil {
			continue
		}
		content = r.Pattern.ReplaceAllLiteralString(content, r.Replacement)
	}
	return content
}
