package filter

import (
	"go-recruit-crawler/internal/models"
	"testing"
)

func TestMatchesPreferences(t *testing.T) {
	rec := models.Record{
		Company:  "华为技术有限公司",
		Position: "软件开发工程师（Java/Python）",
		Location: "深圳、上海",
	}

	tests := []struct {
		name     string
		prefs    models.Preferences
		expected bool
	}{
		{
			name:     "Empty preferences",
			prefs:    models.Preferences{},
			expected: true,
		},
		{
			name:     "Keyword hit",
			prefs:    models.Preferences{Keywords: []string{"golang", "PYTHON"}},
			expected: true,
		},
		{
			name:     "Keyword miss",
			prefs:    models.Preferences{Keywords: []string{"芯片"}},
			expected: false,
		},
		{
			name:     "Keyword hit but location miss",
			prefs:    models.Preferences{Keywords: []string{"java"}, Locations: []string{"北京"}},
			expected: false,
		},
		{
			name:     "Location hit",
			prefs:    models.Preferences{Locations: []string{"上海"}},
			expected: true,
		},
		{
			name:     "Blank entries are ignored",
			prefs:    models.Preferences{Keywords: []string{"", "  "}, Locations: []string{"深圳"}},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchesPreferences(rec, tt.prefs)
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestShouldIncludeJob(t *testing.T) {
	rec := models.Record{Company: "某银行", Position: "柜员 销售岗", Target: "2026届毕业生"}

	if !ShouldIncludeJob(rec, nil, nil) {
		t.Error("no lists should include everything")
	}
	if ShouldIncludeJob(rec, nil, []string{"销售"}) {
		t.Error("exclude keyword should reject")
	}
	if !ShouldIncludeJob(rec, []string{"2026"}, []string{"算法"}) {
		t.Error("include keyword on target should accept")
	}
	if ShouldIncludeJob(rec, []string{"算法"}, nil) {
		t.Error("include list without hit should reject")
	}
}

func TestExtractSkills(t *testing.T) {
	got := ExtractSkills("算法工程师（python / C++），芯片验证与测试")
	want := []string{"Python", "C++", "算法", "芯片", "测试"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("skill %d: got %s, want %s", i, got[i], want[i])
		}
	}

	if skills := ExtractSkills("行政助理"); len(skills) != 0 {
		t.Errorf("expected no skills, got %v", skills)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  ＡＢＣ　 科技 \t有限公司 "); got != "abc 科技 有限公司" {
		t.Errorf("got %q", got)
	}
}
