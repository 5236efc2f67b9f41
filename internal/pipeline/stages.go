package pipeline

import (
	"context"
	"fmt"

	"github.com/halcyon-labs/pagesmith/internal/capability"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

// DefaultRegistry builds the full content-generation workflow. Stage order
// and grouping encode the coarse dependency tiers; DependsOn edges encode
// the fine-grained ones.
func DefaultRegistry() *Registry {
	return &Registry{
		Groups: []StageGroup{
			{
				Label:  "prep",
				Status: models.StatusPending,
				Stages: []Stage{
					{
						ID:      StageDedup,
						Label:   "Duplicate check",
						Slots:   []string{models.SlotDedup},
						Execute: executeDedup,
					},
				},
			},
			{
				Label:  "research",
				Status: models.StatusResearching,
				Stages: []Stage{
					{
						ID:       StageResearch,
						Label:    "Topic research",
						Optional: true,
						Slots:    []string{models.SlotResearch},
						Condition: func(pc *models.PipelineContext, campaign *models.Campaign) bool {
							return campaign.UseResearch
						},
						Execute: executeResearch,
					},
				},
			},
			{
				Label:  "authoring",
				Status: models.StatusGenerating,
				Stages: []Stage{
					{
						ID:        StageContent,
						Label:     "Content generation",
						DependsOn: []string{StageDedup},
						Slots:     []string{models.SlotContent},
						Execute:   executeContent,
					},
				},
			},
			{
				Label:    "media",
				Status:   models.StatusImaging,
				Parallel: true,
				Stages: []Stage{
					{
						ID:        StageImages,
						Label:     "Image generation",
						DependsOn: []string{StageContent},
						Optional:  true,
						Slots:     []string{models.SlotImages},
						Condition: func(pc *models.PipelineContext, campaign *models.Campaign) bool {
							return campaign.IncludeImages
						},
						Execute: executeImages,
					},
					{
						ID:        StageAuthor,
						Label:     "Author matching",
						DependsOn: []string{StageContent},
						Optional:  true,
						Slots:     []string{models.SlotAuthor},
						Condition: func(pc *models.PipelineContext, campaign *models.Campaign) bool {
							return campaign.OptimizeForSEO
						},
						Execute: executeAuthorMatch,
					},
				},
			},
			{
				Label:    "seo",
				Status:   models.StatusLinking,
				Parallel: true,
				Stages: []Stage{
					{
						ID:        StageLinks,
						Label:     "Internal linking",
						DependsOn: []string{StageContent},
						Optional:  true,
						Slots:     []string{models.SlotLinks},
						Condition: func(pc *models.PipelineContext, campaign *models.Campaign) bool {
							return campaign.OptimizeForSEO
						},
						Execute: executeLinks,
					},
					{
						ID:        StageSchema,
						Label:     "Schema markup",
						DependsOn: []string{StageContent},
						Optional:  true,
						Slots:     []string{models.SlotSchema},
						Condition: func(pc *models.PipelineContext, campaign *models.Campaign) bool {
							return campaign.IncludeSchema
						},
						Execute: executeSchema,
					},
				},
			},
			{
				Label:  "quality",
				Status: models.StatusGenerating,
				Stages: []Stage{
					{
						ID:        StageQuality,
						Label:     "Quality gate",
						DependsOn: []string{StageContent},
						Optional:  true,
						Slots:     []string{models.SlotQuality},
						Condition: func(pc *models.PipelineContext, campaign *models.Campaign) bool {
							return campaign.QualityGateEnabled
						},
						Execute: executeQuality,
					},
				},
			},
			{
				Label:  "publish",
				Status: models.StatusPublishing,
				Stages: []Stage{
					{
						ID:        StagePublish,
						Label:     "Publish",
						DependsOn: []string{StageDedup, StageContent},
						Slots:     []string{models.SlotPublish},
						Execute:   executePublish,
					},
				},
			},
			{
				Label:  "distribution",
				Status: models.StatusPublishing,
				Stages: []Stage{
					{
						ID:        StageRecord,
						Label:     "Record publication",
						DependsOn: []string{StagePublish},
						Slots:     []string{models.SlotDistribution},
						Execute:   executeRecord,
					},
					{
						ID:        StageMultiSite,
						Label:     "Multi-site publish",
						DependsOn: []string{StagePublish},
						Optional:  true,
						Slots:     []string{models.SlotDistribution},
						Condition: func(pc *models.PipelineContext, campaign *models.Campaign) bool {
							return campaign.MultiSiteEnabled
						},
						Execute: executeMultiSite,
					},
					{
						ID:        StageSyndicate,
						Label:     "Syndication",
						DependsOn: []string{StagePublish},
						Optional:  true,
						Slots:     []string{models.SlotDistribution},
						Condition: func(pc *models.PipelineContext, campaign *models.Campaign) bool {
							return campaign.SyndicationEnabled
						},
						Execute: executeSyndicate,
					},
				},
			},
		},
	}
}

func executeDedup(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	dup, err := caps.Dedup.IsDuplicate(ctx, pc.Campaign, pc.Item)
	if err != nil {
		return "", err
	}
	pc.Duplicate = dup
	if dup {
		return "", fmt.Errorf("topic %q already published for campaign %s", pc.Item.Topic, pc.Campaign.ID)
	}
	return "topic is new", nil
}

func executeResearch(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	research, err := caps.Research.Research(ctx, pc.Campaign, pc.Item)
	if err != nil {
		return "", err
	}
	pc.Research = research
	return fmt.Sprintf("%d key points, %d sources", len(research.KeyPoints), len(research.Sources)), nil
}

func executeContent(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	content, err := caps.Content.Generate(ctx, pc.Campaign, pc.Item, pc.Research)
	if err != nil {
		return "", err
	}
	pc.Content = content
	return fmt.Sprintf("%q (%d words)", content.Title, content.WordCount), nil
}

func executeImages(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	images, err := caps.Images.Generate(ctx, pc.Campaign, pc.Content, pc.Item)
	if err != nil {
		return "", err
	}
	pc.Images = images
	return fmt.Sprintf("%d images", len(images.Images)), nil
}

func executeAuthorMatch(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	author, err := caps.Authors.Match(ctx, pc.Campaign, pc.Item)
	if err != nil {
		return "", err
	}
	pc.Author = author
	return fmt.Sprintf("%s (health %.2f)", author.DisplayName, author.HealthScore), nil
}

func executeLinks(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	links, err := caps.Links.PlaceLinks(ctx, pc.Campaign, pc.Content)
	if err != nil {
		return "", err
	}
	pc.Links = links
	return fmt.Sprintf("%d links", len(links.Links)), nil
}

func executeSchema(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	schema, err := caps.Schema.Generate(ctx, pc.Campaign, pc.Content)
	if err != nil {
		return "", err
	}
	pc.Schema = schema
	return schema.Type, nil
}

func executeQuality(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	quality, err := caps.Quality.Score(ctx, pc.Campaign, pc.Item, pc.Content)
	if quality != nil {
		// The score breakdown is kept even when the gate rejects, so a
		// resumed or flagged run can surface it.
		pc.Quality = quality
		if quality.Decision == models.DecisionFlag {
			pc.NeedsReview = true
		}
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.2f (%s)", quality.Total, quality.Decision), nil
}

func executePublish(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	publish, err := caps.Publisher.Publish(ctx, pc.Campaign, site, pc)
	if err != nil {
		return "", err
	}
	pc.Publish = publish
	return fmt.Sprintf("post %d (%s)", publish.PostID, publish.Status), nil
}

func executeRecord(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	if err := caps.Recorder.Record(ctx, pc.Campaign, pc.Item, pc.Publish); err != nil {
		return "", err
	}
	if pc.Distribution == nil {
		pc.Distribution = &models.DistributionResult{}
	}
	pc.Distribution.Recorded = true
	return "recorded", nil
}

func executeMultiSite(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	results, err := caps.MultiSite.PublishAll(ctx, pc.Campaign, site, pc.Content)
	if err != nil {
		return "", err
	}
	if pc.Distribution == nil {
		pc.Distribution = &models.DistributionResult{}
	}
	pc.Distribution.Sites = results
	return fmt.Sprintf("%d sites", len(results)), nil
}

func executeSyndicate(ctx context.Context, pc *models.PipelineContext, caps *capability.Set, site *capability.Site) (string, error) {
	results, err := caps.Syndicator.Syndicate(ctx, pc.Campaign, pc.Publish)
	if err != nil {
		return "", err
	}
	if pc.Distribution == nil {
		pc.Distribution = &models.DistributionResult{}
	}
	pc.Distribution.Syndication = results
	return fmt.Sprintf("%d channels", len(results)), nil
}
