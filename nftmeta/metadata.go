// Package nftmeta builds and validates ERC-721 metadata for purchased
// courses.
package nftmeta

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/chain"
)

// Attribute is an OpenSea-style metadata attribute.
type Attribute struct {
	TraitType   string `json:"trait_type"`
	Value       any    `json:"value"`
	DisplayType string `json:"display_type,omitempty"`
}

// Metadata is the ERC-721 token document pinned to IPFS. Immutable once
// built; the pipeline validates it before upload.
type Metadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url,omitempty"`
	Attributes  []Attribute `json:"attributes"`
}

// Attribute keys that must be present for a metadata document to be
// uploadable.
var requiredAttributes = []string{
	"Course Title",
	"Course Type",
	"Instructor",
	"Payment Token",
	"Blockchain",
}

var ErrMissingAttribute = errors.New("metadata missing required attribute")

// popularity tiers bucketed by sales volume
var popularityTiers = []struct {
	min   int64
	label string
}{
	{10000, "Bestseller"},
	{5000, "Popular"},
	{1000, "Well-Known"},
	{100, "Established"},
	{10, "Emerging"},
	{0, "Launch Edition"},
}

// PopularityTier buckets a course's sales volume into a named rarity tier.
func PopularityTier(soldCount int64) string {
	for _, tier := range popularityTiers {
		if soldCount >= tier.min {
			return tier.label
		}
	}
	return "Launch Edition"
}

// Builder assembles course purchase metadata. siteURL feeds external_url;
// nowFunc is injectable for deterministic purchase dates in tests.
type Builder struct {
	siteURL string
	nowFunc func() time.Time
}

type BuilderOption func(*Builder)

func WithNowFunc(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.nowFunc = now
	}
}

func NewBuilder(siteURL string, options ...BuilderOption) *Builder {
	b := &Builder{siteURL: strings.TrimRight(siteURL, "/"), nowFunc: time.Now}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Build constructs the metadata document for a purchase. imageURI is the
// ipfs:// address of the already-pinned thumbnail.
func (b *Builder) Build(course *backendapi.Course, token chain.PaymentToken, walletAddress, imageURI string) (*Metadata, error) {
	if course == nil {
		return nil, errors.New("[Builder.Build] course is required")
	}
	network, ok := chain.GetNetwork(token.ChainID)
	if !ok {
		return nil, errors.Errorf("[Builder.Build] unsupported chain %d", token.ChainID)
	}

	attrs := []Attribute{
		{TraitType: "Course Title", Value: course.Title},
		{TraitType: "Course Type", Value: courseTypeLabel(course.Type)},
		{TraitType: "Instructor", Value: course.Instructor.Username},
		{TraitType: "Payment Token", Value: token.Symbol},
		{TraitType: "Blockchain", Value: network.Name},
		{TraitType: "Price", Value: fmt.Sprintf("%.2f USD", course.Price)},
		{TraitType: "Course Popularity", Value: PopularityTier(course.SoldCount)},
		{TraitType: "Purchase Date", Value: b.nowFunc().UTC().Format("2006-01-02"), DisplayType: "date"},
		{TraitType: "Owner", Value: walletAddress},
	}
	if course.Level != "" {
		attrs = append(attrs, Attribute{TraitType: "Level", Value: course.Level})
	}
	if course.AccessDuration > 0 {
		attrs = append(attrs, Attribute{TraitType: "Access Duration", Value: fmt.Sprintf("%d days", course.AccessDuration)})
	} else {
		attrs = append(attrs, Attribute{TraitType: "Access Duration", Value: "Lifetime"})
	}
	if course.AvailableQuantity > 0 {
		attrs = append(attrs,
			Attribute{TraitType: "Limited Edition", Value: "Yes"},
			Attribute{TraitType: "Total Supply", Value: course.AvailableQuantity, DisplayType: "number"},
			Attribute{TraitType: "Edition Number", Value: course.SoldCount + 1, DisplayType: "number"},
		)
	}

	md := &Metadata{
		Name:        course.Title,
		Description: fmt.Sprintf("Access pass for the Kenesis course %q by %s.", course.Title, course.Instructor.Username),
		Image:       imageURI,
		Attributes:  attrs,
	}
	if b.siteURL != "" {
		md.ExternalURL = b.siteURL + "/course/" + course.ID
	}
	return md, nil
}

// Validate checks the document carries every required attribute key. A miss
// aborts the pipeline before anything is uploaded.
func Validate(md *Metadata) error {
	if md == nil {
		return errors.New("[Validate] nil metadata")
	}
	present := make(map[string]bool, len(md.Attributes))
	for _, a := range md.Attributes {
		present[a.TraitType] = true
	}
	for _, key := range requiredAttributes {
		if !present[key] {
			return errors.Wrap(ErrMissingAttribute, key)
		}
	}
	if md.Name == "" || md.Image == "" {
		return errors.New("[Validate] name and image are required")
	}
	return nil
}

func courseTypeLabel(t string) string {
	switch strings.ToLower(t) {
	case "video":
		return "Video Course"
	case "document":
		return "Document Course"
	default:
		if t == "" {
			return "Course"
		}
		return strings.ToUpper(t[:1]) + t[1:]
	}
}
