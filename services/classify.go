package services

import (
	"regexp"
	"strings"

	"hiko-crawler/models"
)

var storeBracket = regexp.MustCompile(`^\[([^\]]*)\]`)

// InferStore returns the contents of a leading "[...]" token in title,
// verbatim. An empty bracket yields "" and true; no bracket yields false.
func InferStore(title string) (string, bool) {
	m := storeBracket.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return "", false
	}
	return m[1], true
}

type labelRule struct {
	needles  []string
	category models.Category
}

type keywordRule struct {
	keywords []string
	category models.Category
}

// Rule order is significant: the first match wins.
var (
	labelRules = []labelRule{
		{[]string{"패션", "의류"}, models.CategoryClothing},
		{[]string{"신발"}, models.CategoryFootwear},
		{[]string{"가방"}, models.CategoryBag},
		{[]string{"컴퓨터", "디지털", "가전", "pc", "하드웨어"}, models.CategoryDigital},
		{[]string{"식품", "먹거리"}, models.CategoryFood},
		{[]string{"화장품", "뷰티"}, models.CategoryBeauty},
		{[]string{"생활", "주방", "가구"}, models.CategoryLiving},
		{[]string{"육아"}, models.CategoryBaby},
		{[]string{"레저", "스포츠", "자동차"}, models.CategorySports},
		{[]string{"기타", "네이버"}, models.CategoryOther},
	}

	titleRules = []keywordRule{
		{[]string{"신발", "스니커즈", "운동화", "sneaker", "shoe"}, models.CategoryFootwear},
		{[]string{"가방", "백팩", "bag"}, models.CategoryBag},
		{[]string{"모자", "캡", "시계", "워치", "지갑", "벨트", "cap", "watch", "wallet", "belt"}, models.CategoryAccessories},
	}
)

// InferCategory maps a board's category label, then title keywords, to a
// Category. A recognised label always beats title keywords.
func InferCategory(label, title string) models.Category {
	if c, ok := categoryFromLabel(label); ok {
		return c
	}

	lower := strings.ToLower(title)
	for _, rule := range titleRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return models.CategoryOther
}

func categoryFromLabel(label string) (models.Category, bool) {
	label = strings.ToLower(strings.Trim(strings.TrimSpace(label), "[]"))
	if label == "" {
		return "", false
	}
	for _, rule := range labelRules {
		for _, needle := range rule.needles {
			if strings.Contains(label, needle) {
				return rule.category, true
			}
		}
	}
	return "", false
}
