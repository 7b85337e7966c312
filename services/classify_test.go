package services

import (
	"testing"

	"hiko-crawler/models"
)

func TestInferStore(t *testing.T) {
	tests := []struct {
		title  string
		want   string
		wantOK bool
	}{
		{"[쿠팡] 상품명", "쿠팡", true},
		{"[쿠팡]청우 참깨스틱 진 220g", "쿠팡", true},
		{"  [11번가] 공백 뒤 브래킷", "11번가", true},
		{"[] 빈 브래킷", "", true},
		{"상품명 without bracket", "", false},
		{"상품 [쿠팡] 중간 브래킷", "", false},
	}

	for _, tt := range tests {
		got, ok := InferStore(tt.title)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("InferStore(%q) = %q, %v; want %q, %v", tt.title, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		label string
		title string
		want  models.Category
	}{
		// title keywords when no label
		{"", "나이키 에어맥스 운동화 특가", models.CategoryFootwear},
		{"", "Adidas Sneaker sale", models.CategoryFootwear},
		{"", "노스페이스 백팩", models.CategoryBag},
		{"", "카시오 시계 할인", models.CategoryAccessories},
		{"", "가죽 벨트와 지갑", models.CategoryAccessories},
		{"", "청우 참깨스틱", models.CategoryOther},
		// a recognised label beats title keywords
		{"식품", "운동화 모양 쿠키", models.CategoryFood},
		{"[의류/잡화]", "운동화", models.CategoryClothing},
		{"PC/하드웨어", "가방형 케이스", models.CategoryDigital},
		{"육아", "아기 신발", models.CategoryBaby},
		{"자동차", "차량용 방향제", models.CategorySports},
		{"네이버", "모자", models.CategoryOther},
		// unmapped label falls through to keywords
		{"이벤트", "캡 모자", models.CategoryAccessories},
		// rule order: shoe keywords are checked before bag keywords
		{"", "신발 가방 세트", models.CategoryFootwear},
	}

	for _, tt := range tests {
		if got := InferCategory(tt.label, tt.title); got != tt.want {
			t.Errorf("InferCategory(%q, %q) = %q; want %q", tt.label, tt.title, got, tt.want)
		}
	}
}
