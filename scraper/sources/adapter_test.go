package sources

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiko-crawler/models"
)

var (
	kst     = time.FixedZone("KST", 9*60*60)
	testNow = time.Date(2025, 7, 11, 12, 0, 0, 0, kst)
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestForSourceCoversEverySource(t *testing.T) {
	for _, src := range models.AllSources() {
		a, err := ForSource(src)
		require.NoError(t, err, src)
		assert.Equal(t, src, a.Name())
		assert.True(t, strings.HasPrefix(a.BaseURL(), "https://"), a.BaseURL())
		assert.NotEmpty(t, a.DetailSelectors().ContentAreas)
	}
	assert.Len(t, All(), len(models.AllSources()))
}

func TestForSourceUnknown(t *testing.T) {
	_, err := ForSource("dcinside")
	if !errors.Is(err, ErrUnknownSource) {
		t.Errorf("got %v, want ErrUnknownSource", err)
	}
}

func TestListURL(t *testing.T) {
	tests := []struct {
		adapter Adapter
		page    int
		want    string
	}{
		{NewPpomppu(), 1, "https://www.ppomppu.co.kr/zboard/zboard.php?id=ppomppu"},
		{NewPpomppu(), 2, "https://www.ppomppu.co.kr/zboard/zboard.php?id=ppomppu&page=2"},
		{NewRuliweb(), 3, "https://bbs.ruliweb.com/market/board/1020?page=3"},
		{NewClien(), 1, "https://www.clien.net/service/board/jirum"},
		{NewClien(), 3, "https://www.clien.net/service/board/jirum?&po=2"},
		{NewQuasarzone(), 2, "https://quasarzone.com/bbs/qb_saleinfo?page=2"},
		{NewEomisae(), 2, "https://eomisae.co.kr/fs?page=2"},
		{NewCoolenjoy(), 1, "https://coolenjoy.net/bbs/jirum"},
	}
	for _, tt := range tests {
		if got := tt.adapter.ListURL(tt.page); got != tt.want {
			t.Errorf("%s ListURL(%d) = %q, want %q", tt.adapter.Name(), tt.page, got, tt.want)
		}
	}
}

func TestExtractRequiresPostID(t *testing.T) {
	for _, a := range All() {
		post, ok := a.Extract(&models.RawListing{PostID: "  ", Title: "[쿠팡] 상품"}, testNow)
		assert.False(t, ok, a.Name())
		assert.Nil(t, post)
	}
}

func TestExtractDefaults(t *testing.T) {
	post, ok := NewRuliweb().Extract(&models.RawListing{PostID: "1", Title: "그냥 상품", DateText: "???"}, testNow)
	require.True(t, ok)

	assert.Equal(t, models.CategoryOther, post.Category)
	assert.Equal(t, "루리웹", post.Store)
	assert.Equal(t, "", post.ImageURL)
	assert.False(t, post.ShippingFree)
	assert.Equal(t, 0, post.Price)
	assert.Equal(t, testNow, post.PostDate)
	assert.True(t, post.DateFallback)
}

func TestExtractStoreFallbackChain(t *testing.T) {
	a := NewEomisae()
	tests := []struct {
		name string
		raw  models.RawListing
		want string
	}{
		{"bracket", models.RawListing{PostID: "1", Title: "[쿠팡] 상품", Store: "무신사", Category: "기타"}, "쿠팡"},
		{"store cell", models.RawListing{PostID: "1", Title: "상품", Store: "무신사", Category: "기타"}, "무신사"},
		{"category label", models.RawListing{PostID: "1", Title: "상품", Category: "[29CM]"}, "29CM"},
		{"empty bracket", models.RawListing{PostID: "1", Title: "[] 상품"}, "어미새"},
		{"site name", models.RawListing{PostID: "1", Title: "상품"}, "어미새"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.raw
			post, ok := a.Extract(&raw, testNow)
			require.True(t, ok)
			assert.Equal(t, tt.want, post.Store)
		})
	}
}

func TestExtractFreeShippingFromShippingCell(t *testing.T) {
	a := NewQuasarzone()
	post, _ := a.Extract(&models.RawListing{PostID: "1", Title: "SSD", ShippingText: "0원"}, testNow)
	assert.True(t, post.ShippingFree)

	post, _ = a.Extract(&models.RawListing{PostID: "1", Title: "SSD", ShippingText: "3,000원"}, testNow)
	assert.False(t, post.ShippingFree)
}

func TestParseDetail(t *testing.T) {
	doc := mustDoc(t, `<html><body>
<div class="board_content">로그인 후 댓글을 작성할 수 있습니다. 지금 회원가입 하세요</div>
<div class="view_content">짧은 본문</div>
<div class="article_content">
  <p>이번 특가는   배송비 포함 최저가이며
  재고가 얼마 남지 않았습니다</p>
  <img src="https://i1.ruliweb.com/img/deal.jpg">
  <img src="//i2.ruliweb.com/img/deal2.png?w=640">
  <img src="https://i1.ruliweb.com/img/icon_new.gif">
  <img src="https://i1.ruliweb.com/img/emoticon/1.png">
  <img src="https://i1.ruliweb.com/img/banner.svg">
  <img src="data:image/png;base64,AAAA">
  <img data-src="https://i1.ruliweb.com/img/lazy.webp">
  <img src="https://i1.ruliweb.com/img/deal.jpg">
</div>
</body></html>`)

	detail := ParseDetail(doc, NewRuliweb().DetailSelectors())

	assert.Equal(t, "이번 특가는 배송비 포함 최저가이며 재고가 얼마 남지 않았습니다", detail.Content)
	assert.Equal(t, []string{
		"https://i1.ruliweb.com/img/deal.jpg",
		"https://i2.ruliweb.com/img/deal2.png?w=640",
		"https://i1.ruliweb.com/img/lazy.webp",
	}, detail.Images)
}

func TestParseDetailNothingQualifies(t *testing.T) {
	doc := mustDoc(t, `<html><body><div class="xe_content">광고</div></body></html>`)
	detail := ParseDetail(doc, NewEomisae().DetailSelectors())
	assert.Equal(t, "", detail.Content)
	assert.Empty(t, detail.Images)
}
