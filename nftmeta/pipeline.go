package nftmeta

import (
	"context"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/kenesis-labs/kenesis-engine/backendapi"
	"github.com/kenesis-labs/kenesis-engine/chain"
	"github.com/kenesis-labs/kenesis-engine/ipfs"
)

// Pipeline produces the content URI minted into the purchase NFT. The steps
// are strictly sequential: the metadata's image field depends on the
// thumbnail's content hash, so the thumbnail upload must finish before the
// metadata document can even be built.
type Pipeline struct {
	pinner  ipfs.Pinner
	builder *Builder
	fetcher *resty.Client
}

func NewPipeline(pinner ipfs.Pinner, builder *Builder) (*Pipeline, error) {
	if pinner == nil {
		return nil, errors.New("[NewPipeline] pinner is required")
	}
	if builder == nil {
		return nil, errors.New("[NewPipeline] builder is required")
	}
	return &Pipeline{
		pinner:  pinner,
		builder: builder,
		fetcher: resty.New().SetTimeout(30 * time.Second),
	}, nil
}

// CreateCourseNFT runs thumbnail fetch → pin file → build → validate → pin
// JSON and returns the ipfs:// URI of the metadata document. Any failure
// aborts the whole pipeline; a partially built document is never returned.
func (p *Pipeline) CreateCourseNFT(ctx context.Context, course *backendapi.Course, token chain.PaymentToken, walletAddress string) (string, error) {
	if course == nil {
		return "", errors.New("[Pipeline.CreateCourseNFT] course is required")
	}

	imageURI, err := p.pinThumbnail(ctx, course)
	if err != nil {
		return "", errors.Wrap(err, "[Pipeline.CreateCourseNFT] thumbnail")
	}

	md, err := p.builder.Build(course, token, walletAddress, imageURI)
	if err != nil {
		return "", errors.Wrap(err, "[Pipeline.CreateCourseNFT] build metadata")
	}
	if err := Validate(md); err != nil {
		return "", errors.Wrap(err, "[Pipeline.CreateCourseNFT] metadata failed validation")
	}

	result, err := p.pinner.PinJSON(ctx, md)
	if err != nil {
		return "", errors.Wrap(err, "[Pipeline.CreateCourseNFT] pin metadata")
	}

	log.Info().
		Str("course", course.ID).
		Str("metadata", result.URI()).
		Str("image", imageURI).
		Msg("course NFT metadata pinned")
	return result.URI(), nil
}

func (p *Pipeline) pinThumbnail(ctx context.Context, course *backendapi.Course) (string, error) {
	if course.Thumbnail == "" {
		return "", errors.New("course has no thumbnail")
	}
	resp, err := p.fetcher.R().SetContext(ctx).Get(course.Thumbnail)
	if err != nil {
		return "", errors.Wrap(err, "fetch")
	}
	if resp.IsError() {
		return "", errors.Errorf("fetch: %s", resp.Status())
	}
	name := path.Base(course.Thumbnail)
	if name == "." || name == "/" {
		name = course.ID + "-thumbnail"
	}
	result, err := p.pinner.PinFile(ctx, name, resp.Body())
	if err != nil {
		return "", errors.Wrap(err, "pin")
	}
	return result.URI(), nil
}
