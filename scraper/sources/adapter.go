package sources

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"hiko-crawler/models"
	"hiko-crawler/services"
)

// ErrUnknownSource is returned by ForSource for an unsupported board.
var ErrUnknownSource = errors.New("unknown source")

// Adapter knows where one board lists its deals and how to read them.
type Adapter interface {
	services.Extractor

	BaseURL() string
	// ListURL returns the listing URL of a 1-based page.
	ListURL(page int) string
	ParseListing(doc *goquery.Document, now time.Time) []*models.RawListing
	DetailSelectors() DetailSelectors
}

// DetailSelectors locate the body and images of a post's detail page.
type DetailSelectors struct {
	ContentAreas []string
	Images       string
}

// ForSource returns the adapter for source.
func ForSource(source models.Source) (Adapter, error) {
	switch source {
	case models.SourcePpomppu:
		return NewPpomppu(), nil
	case models.SourceRuliweb:
		return NewRuliweb(), nil
	case models.SourceClien:
		return NewClien(), nil
	case models.SourceQuasarzone:
		return NewQuasarzone(), nil
	case models.SourceEomisae:
		return NewEomisae(), nil
	case models.SourceCoolenjoy:
		return NewCoolenjoy(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
}

// All returns an adapter for every supported source in crawl order.
func All() []Adapter {
	out := make([]Adapter, 0, len(models.AllSources()))
	for _, src := range models.AllSources() {
		a, _ := ForSource(src)
		out = append(out, a)
	}
	return out
}

// site carries what every adapter shares.
type site struct {
	source   models.Source
	name     string
	baseURL  string
	detail   DetailSelectors
	priceFld bool // PriceText is a dedicated price cell rather than free text
}

func (s site) Name() models.Source              { return s.source }
func (s site) BaseURL() string                  { return s.baseURL }
func (s site) DetailSelectors() DetailSelectors { return s.detail }

func (s site) pagedURL(page int) string {
	if page <= 1 {
		return s.baseURL
	}
	return fmt.Sprintf("%s?page=%d", s.baseURL, page)
}

// extract applies the field rules common to every board. Site quirks are
// handled by the adapters before or after calling it.
func (s site) extract(raw *models.RawListing, now time.Time) (*models.NormalizedPost, bool) {
	id := strings.TrimSpace(raw.PostID)
	if id == "" {
		return nil, false
	}
	title := services.CollapseSpace(raw.Title)

	price, ok := 0, false
	if raw.PriceText != "" {
		if s.priceFld {
			price, ok = services.ParseCount(raw.PriceText), true
		} else {
			price, ok = services.ParsePrice(raw.PriceText)
		}
	}
	if !ok || price == 0 {
		if p, found := services.ParsePrice(title); found {
			price = p
		}
	}

	postDate, parsed := services.ParseDateStrict(raw.DateText, now)

	return &models.NormalizedPost{
		PostID:       id,
		Title:        title,
		URL:          s.absolute(raw.URL),
		Author:       strings.TrimSpace(raw.Author),
		Category:     services.InferCategory(raw.Category, title),
		Price:        price,
		Store:        s.store(title, raw),
		ShippingFree: services.IsFreeShipping(title, raw.ShippingText) || services.ShippingIsZero(raw.ShippingText),
		Views:        services.ParseCount(raw.Views),
		LikeCount:    services.ParseCount(raw.Likes),
		CommentCount: services.ParseCount(raw.Comments),
		PostDate:     postDate,
		RawStatus:    strings.TrimSpace(raw.StatusText),
		ImageURL:     s.absolute(raw.ImageURL),
		DateFallback: !parsed,
	}, true
}

// store resolves the seller: title bracket, then the board's store cell,
// then its category label, then the board name.
func (s site) store(title string, raw *models.RawListing) string {
	if st, ok := services.InferStore(title); ok && strings.TrimSpace(st) != "" {
		return strings.TrimSpace(st)
	}
	if st := strings.TrimSpace(raw.Store); st != "" {
		return st
	}
	if label := strings.Trim(strings.TrimSpace(raw.Category), "[]"); label != "" {
		return label
	}
	return s.name
}

// absolute resolves href against the board's base URL. Protocol-relative
// and empty values are left for the normalizer.
func (s site) absolute(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "//") {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

const minContentLen = 20

var (
	contentNoise  = []string{"로그인", "회원가입", "광고"}
	imageExt      = regexp.MustCompile(`(?i)^https?://[^\s]+\.(jpe?g|png|webp|gif)(\?[^\s]*)?$`)
	imageExcluded = []string{"icon", "emoticon", "logo"}
)

// ParseDetail reads the post body and content images from a detail page.
// The body is the first content area whose text is long enough and free of
// navigation noise. It returns an empty detail when nothing qualifies.
func ParseDetail(doc *goquery.Document, sel DetailSelectors) *models.DealDetail {
	detail := &models.DealDetail{}

	for _, area := range sel.ContentAreas {
		doc.Find(area).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			body := services.CollapseSpace(s.Text())
			if utf8.RuneCountInString(body) <= minContentLen || hasAny(body, contentNoise) {
				return true
			}
			detail.Content = body
			return false
		})
		if detail.Content != "" {
			break
		}
	}

	if sel.Images == "" {
		return detail
	}
	seen := map[string]bool{}
	doc.Find(sel.Images).Each(func(_ int, img *goquery.Selection) {
		src := imageSource(img)
		if strings.HasPrefix(src, "//") {
			src = "https:" + src
		}
		if !imageExt.MatchString(src) || hasAny(strings.ToLower(src), imageExcluded) || seen[src] {
			return
		}
		seen[src] = true
		detail.Images = append(detail.Images, src)
	})
	return detail
}

func imageSource(img *goquery.Selection) string {
	for _, name := range []string{"src", "data-src", "data-original"} {
		if v, ok := img.Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func hasAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// text returns the collapsed text of the first match of selector under s.
func text(s *goquery.Selection, selector string) string {
	return services.CollapseSpace(s.Find(selector).First().Text())
}

func attr(s *goquery.Selection, selector, name string) string {
	v, _ := s.Find(selector).First().Attr(name)
	return strings.TrimSpace(v)
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func queryParam(href, key string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}
