package nftmeta_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/chain"
	"github.com/kenesis-labs/kenesis-engine/nftmeta"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func testCourse() *backendapi.Course {
	return &backendapi.Course{
		ID:         "course-1",
		Title:      "Intro to Solidity",
		Type:       "video",
		Price:      49.99,
		SoldCount:  120,
		Instructor: backendapi.Instructor{ID: "inst-1", Username: "vitalik"},
	}
}

func polygonUSDC(t *testing.T) chain.PaymentToken {
	t.Helper()
	token, err := chain.GetToken("USDC-137")
	require.NoError(t, err)
	return token
}

func attributeValue(t *testing.T, md *nftmeta.Metadata, traitType string) any {
	t.Helper()
	for _, a := range md.Attributes {
		if a.TraitType == traitType {
			return a.Value
		}
	}
	t.Fatalf("attribute %q not present", traitType)
	return nil
}

func TestBuildCarriesRequiredAttributes(t *testing.T) {
	builder := nftmeta.NewBuilder("https://kenesis.io", nftmeta.WithNowFunc(fixedNow))
	md, err := builder.Build(testCourse(), polygonUSDC(t), "0xabc", "ipfs://QmThumb")
	require.NoError(t, err)
	require.NoError(t, nftmeta.Validate(md))

	require.Equal(t, "Intro to Solidity", attributeValue(t, md, "Course Title"))
	require.Equal(t, "Video Course", attributeValue(t, md, "Course Type"))
	require.Equal(t, "vitalik", attributeValue(t, md, "Instructor"))
	require.Equal(t, "USDC", attributeValue(t, md, "Payment Token"))
	require.Equal(t, "Polygon", attributeValue(t, md, "Blockchain"))
	require.Equal(t, "2025-06-15", attributeValue(t, md, "Purchase Date"))
	require.Equal(t, "ipfs://QmThumb", md.Image)
	require.Equal(t, "https://kenesis.io/course/course-1", md.ExternalURL)
}

func TestBuildLimitedEditionAttributes(t *testing.T) {
	course := testCourse()
	course.AvailableQuantity = 500
	course.SoldCount = 50

	builder := nftmeta.NewBuilder("", nftmeta.WithNowFunc(fixedNow))
	md, err := builder.Build(course, polygonUSDC(t), "0xabc", "ipfs://QmThumb")
	require.NoError(t, err)

	require.Equal(t, "Yes", attributeValue(t, md, "Limited Edition"))
	require.EqualValues(t, 500, attributeValue(t, md, "Total Supply"))
	require.EqualValues(t, 51, attributeValue(t, md, "Edition Number"))
}

func TestBuildOmitsLimitedEditionForUnlimitedCourses(t *testing.T) {
	builder := nftmeta.NewBuilder("", nftmeta.WithNowFunc(fixedNow))
	md, err := builder.Build(testCourse(), polygonUSDC(t), "0xabc", "ipfs://QmThumb")
	require.NoError(t, err)

	for _, a := range md.Attributes {
		require.NotEqual(t, "Limited Edition", a.TraitType)
		require.NotEqual(t, "Total Supply", a.TraitType)
		require.NotEqual(t, "Edition Number", a.TraitType)
	}
}

func TestBuildAccessDuration(t *testing.T) {
	builder := nftmeta.NewBuilder("", nftmeta.WithNowFunc(fixedNow))

	md, err := builder.Build(testCourse(), polygonUSDC(t), "0xabc", "ipfs://QmThumb")
	require.NoError(t, err)
	require.Equal(t, "Lifetime", attributeValue(t, md, "Access Duration"))

	course := testCourse()
	course.AccessDuration = 365
	md, err = builder.Build(course, polygonUSDC(t), "0xabc", "ipfs://QmThumb")
	require.NoError(t, err)
	require.Equal(t, "365 days", attributeValue(t, md, "Access Duration"))
}

func TestBuildRejectsUnsupportedChain(t *testing.T) {
	builder := nftmeta.NewBuilder("", nftmeta.WithNowFunc(fixedNow))
	_, err := builder.Build(testCourse(), chain.PaymentToken{Symbol: "USDC", ChainID: 999}, "0xabc", "ipfs://QmThumb")
	require.Error(t, err)
}

func TestPopularityTier(t *testing.T) {
	tests := []struct {
		soldCount int64
		want      string
	}{
		{0, "Launch Edition"},
		{9, "Launch Edition"},
		{10, "Emerging"},
		{99, "Emerging"},
		{100, "Established"},
		{1000, "Well-Known"},
		{5000, "Popular"},
		{9999, "Popular"},
		{10000, "Bestseller"},
		{250000, "Bestseller"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, nftmeta.PopularityTier(tc.soldCount), "soldCount=%d", tc.soldCount)
	}
}

func TestValidateFlagsMissingAttribute(t *testing.T) {
	builder := nftmeta.NewBuilder("", nftmeta.WithNowFunc(fixedNow))
	md, err := builder.Build(testCourse(), polygonUSDC(t), "0xabc", "ipfs://QmThumb")
	require.NoError(t, err)

	kept := md.Attributes[:0]
	for _, a := range md.Attributes {
		if a.TraitType != "Payment Token" {
			kept = append(kept, a)
		}
	}
	md.Attributes = kept

	require.ErrorIs(t, nftmeta.Validate(md), nftmeta.ErrMissingAttribute)
}
