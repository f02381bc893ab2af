// Package changelog turns scanned commits into human-readable log entries.
package changelog

import "regexp"

// Category labels a log entry.
type Category string

const (
	CategoryFix         Category = "fix"
	CategoryFeature     Category = "feature"
	CategoryImprovement Category = "improvement"
	CategoryDocs        Category = "docs"
	CategoryTest        Category = "test"
	CategoryOther       Category = "other"
)

// Tag is the {name, type} pair attached to an entry.
type Tag struct {
	Name string   `json:"name"`
	Type Category `json:"type"`
}

type rule struct {
	category Category
	pattern  *regexp.Regexp
}

// Checked in order; the first match wins.
var rules = []rule{
	{CategoryFix, regexp.MustCompile(`(?i)修复|fix|bug|问题|error`)},
	{CategoryFeature, regexp.MustCompile(`(?i)添加|新增|feat|功能|create|implement`)},
	{CategoryImprovement, regexp.MustCompile(`(?i)优化|改进|improve|重构|refactor`)},
	{CategoryDocs, regexp.MustCompile(`(?i)文档|doc|readme|说明|guide`)},
	{CategoryTest, regexp.MustCompile(`(?i)测试|test|spec`)},
}

var tags = map[Category]Tag{
	CategoryFix:         {Name: "🔧 Fix", Type: CategoryFix},
	CategoryFeature:     {Name: "✨ Feature", Type: CategoryFeature},
	CategoryImprovement: {Name: "🚀 Improvement", Type: CategoryImprovement},
	CategoryDocs:        {Name: "📚 Docs", Type: CategoryDocs},
	CategoryTest:        {Name: "🧪 Test", Type: CategoryTest},
	CategoryOther:       {Name: "📝 Other", Type: CategoryOther},
}

// Classify returns the category of a commit message.
func Classify(message string) Category {
	for _, r := range rules {
		if r.pattern.MatchString(message) {
			return r.category
		}
	}
	return CategoryOther
}

// TagFor returns the display tag of a category.
func TagFor(c Category) Tag {
	if t, ok := tags[c]; ok {
		return t
	}
	return tags[CategoryOther]
}
