package filter

import (
	"strings"

	"go-recruit-crawler/internal/models"
)

// SkillVocabulary is the fixed set of tags extracted from position text.
var SkillVocabulary = []string{
	"Python", "Java", "C++", "SQL", "算法", "芯片", "硬件",
	"软件", "测试", "销售", "职能", "通信", "微波", "计算机",
	"机械", "材料", "产品", "运营", "模拟",
}

// ExtractSkills returns the vocabulary entries found in the position text, in vocabulary order.
func ExtractSkills(position string) []string {
	text := Normalize(position)
	var skills []string
	for _, keyword := range SkillVocabulary {
		if strings.Contains(text, strings.ToLower(keyword)) {
			skills = append(skills, keyword)
		}
	}
	return skills
}

// ShouldIncludeJob applies the crawl-level include/exclude keyword lists.
// An empty include list accepts everything.
func ShouldIncludeJob(r models.Record, include, exclude []string) bool {
	text := Normalize(strings.Join([]string{r.Company, r.Position, r.Target, r.Notes}, " "))

	//must not contain exclude keywords
	for _, kw := range exclude {
		if kw = Normalize(kw); kw != "" && strings.Contains(text, kw) {
			return false
		}
	}

	if len(include) == 0 {
		return true
	}
	return containsAny(text, include)
}
